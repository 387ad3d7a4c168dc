package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	wrapped := fmt.Errorf("checkout: %w", OutOfStock("p-1"))
	assert.Equal(t, KindOutOfStock, From(wrapped).Kind)
	assert.Equal(t, "p-1", From(wrapped).ProductID)

	internal := From(stderrors.New("boom"))
	assert.Equal(t, KindInternal, internal.Kind)
	assert.Equal(t, http.StatusInternalServerError, internal.Code)
}

func TestIs_MatchesKind(t *testing.T) {
	assert.ErrorIs(t, NotFound("Order not found"), ErrNotFound)
	assert.ErrorIs(t, EmptyCart(), ErrEmptyCart)
	assert.NotErrorIs(t, Conflict("dup"), ErrNotFound)
}

func TestErrorMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorMiddleware())
	r.GET("/stock", func(c *gin.Context) { _ = c.Error(OutOfStock("p-9")) })
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(stderrors.New("db down")) })
	r.GET("/written", func(c *gin.Context) {
		c.Status(http.StatusTeapot)
		c.Writer.WriteHeaderNow()
		_ = c.Error(stderrors.New("late"))
	})

	cases := []struct {
		path string
		code int
		body string
	}{
		{"/stock", http.StatusBadRequest, `"kind":"out_of_stock"`},
		{"/boom", http.StatusInternalServerError, `"message":"Internal server error"`},
		{"/written", http.StatusTeapot, ""},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
			assert.Equal(t, tc.code, w.Code)
			if tc.body != "" {
				assert.Contains(t, w.Body.String(), tc.body)
			}
			assert.NotContains(t, w.Body.String(), "db down")
		})
	}
}
