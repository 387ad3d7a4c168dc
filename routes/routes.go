package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iilkane/Legerity/controllers"
)

// Controllers groups the handlers the router mounts.
type Controllers struct {
	Cart     *controllers.CartController
	Checkout *controllers.CheckoutController
	Orders   *controllers.OrderController
	Catalog  *controllers.CatalogController
}

// RegisterRoutes mounts the public catalog and reviews and the authenticated cart,
// checkout and order endpoints.
func RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc, c Controllers) {
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "legerity"})
	})

	r.GET("/products/", c.Catalog.ListProducts)
	r.GET("/products/:id", c.Catalog.GetProduct)
	r.GET("/category/", c.Catalog.ListCategories)
	r.GET("/reviews/", c.Catalog.ListReviews)

	cart := r.Group("/cart-items", auth)
	cart.GET("/", c.Cart.ListItems)
	cart.POST("/", c.Cart.AddItem)
	cart.PATCH("/:id", c.Cart.UpdateItem)
	cart.DELETE("/:id", c.Cart.RemoveItem)

	r.POST("/checkout/", auth, c.Checkout.Checkout)

	orders := r.Group("/orders", auth)
	orders.GET("/", c.Orders.GetOrders)
	orders.GET("/:id", c.Orders.GetOrderByID)
}
