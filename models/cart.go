package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart is created lazily on first access and lives as long as its user.
type Cart struct {
	ID     uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Items  []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"cart_items"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CartItem is unique per (cart, product).
type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CartID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_cart_product,priority:1" json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_cart_product,priority:2" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
}

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// SubtotalPrice is computed at the product's current price.
func (i *CartItem) SubtotalPrice() decimal.Decimal {
	if i.Product == nil {
		return decimal.Zero
	}
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartView is the list_cart projection.
type CartView struct {
	Items      []CartItemView  `json:"cart_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type CartItemView struct {
	ID            uuid.UUID       `json:"id"`
	Product       ProductView     `json:"product"`
	Quantity      int             `json:"quantity"`
	SubtotalPrice decimal.Decimal `json:"subtotal_price"`
}

// ProductView is the public catalog representation of a product.
type ProductView struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Info     string          `json:"info"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Category *Category       `json:"category"`
}

func NewProductView(p *Product) ProductView {
	return ProductView{
		ID:       p.ID,
		Name:     p.Name(),
		Info:     p.Info,
		Price:    p.Price,
		Image:    p.Image,
		Category: p.Category,
	}
}

// NewCartView builds the cart listing and its live total.
func NewCartView(cart *Cart) CartView {
	view := CartView{Items: make([]CartItemView, 0, len(cart.Items)), TotalPrice: decimal.Zero}
	for i := range cart.Items {
		item := &cart.Items[i]
		subtotal := item.SubtotalPrice()
		var product ProductView
		if item.Product != nil {
			product = NewProductView(item.Product)
		}
		view.Items = append(view.Items, CartItemView{
			ID:            item.ID,
			Product:       product,
			Quantity:      item.Quantity,
			SubtotalPrice: subtotal,
		})
		view.TotalPrice = view.TotalPrice.Add(subtotal)
	}
	return view
}

// AddCartItemRequest uses pointers so a missing field can be told apart from a zero value.
type AddCartItemRequest struct {
	Product  *uuid.UUID `json:"product"`
	Quantity *int       `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity"`
}
