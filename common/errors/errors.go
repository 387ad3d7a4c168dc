package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an application error independently of its message.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindOutOfStock   Kind = "out_of_stock"
	KindEmptyCart    Kind = "empty_cart"
	KindUnavailable  Kind = "unavailable"
	KindUnauthorized Kind = "unauthorized"
	KindInternal     Kind = "internal"
)

// Error represents an application error
type Error struct {
	Code      int    `json:"code"`
	Kind      Kind   `json:"kind"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	ProductID string `json:"product_id,omitempty"`
	Err       error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a new Error
func New(code int, kind Kind, message string, err error) *Error {
	return &Error{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Sentinels for errors.Is checks. Never return these directly, they are shared.
var (
	ErrInvalidInput = New(http.StatusBadRequest, KindInvalidInput, "Invalid input", nil)
	ErrNotFound     = New(http.StatusNotFound, KindNotFound, "Not found", nil)
	ErrConflict     = New(http.StatusBadRequest, KindConflict, "Conflict", nil)
	ErrOutOfStock   = New(http.StatusBadRequest, KindOutOfStock, "Not enough stock", nil)
	ErrEmptyCart    = New(http.StatusBadRequest, KindEmptyCart, "Your cart is empty.", nil)
	ErrUnavailable  = New(http.StatusServiceUnavailable, KindUnavailable, "Service unavailable", nil)
	ErrUnauthorized = New(http.StatusUnauthorized, KindUnauthorized, "Unauthorized", nil)
	ErrInternal     = New(http.StatusInternalServerError, KindInternal, "Internal server error", nil)
)

func InvalidInput(field, message string) *Error {
	e := New(http.StatusBadRequest, KindInvalidInput, message, nil)
	e.Field = field
	return e
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, KindNotFound, message, nil)
}

func Conflict(message string) *Error {
	return New(http.StatusBadRequest, KindConflict, message, nil)
}

// OutOfStock names the product whose stock could not cover the request.
func OutOfStock(productID string) *Error {
	e := New(http.StatusBadRequest, KindOutOfStock, fmt.Sprintf("Not enough stock for product %s", productID), nil)
	e.ProductID = productID
	return e
}

func EmptyCart() *Error {
	return New(http.StatusBadRequest, KindEmptyCart, "Your cart is empty.", nil)
}

func Unavailable(err error) *Error {
	return New(http.StatusServiceUnavailable, KindUnavailable, "Service temporarily unavailable, please retry", err)
}

func Internal(err error) *Error {
	return New(http.StatusInternalServerError, KindInternal, "Internal server error", err)
}

// From returns err as an *Error, wrapping unknown errors as internal.
func From(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// ErrorMiddleware renders the last error a handler attached with c.Error,
// unless the handler already wrote a response.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Check if there are any errors
		if len(c.Errors) > 0 && !c.Writer.Written() {
			appErr := From(c.Errors.Last().Err)
			c.JSON(appErr.Code, appErr)
			c.Abort()
		}
	}
}
