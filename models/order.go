package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPrepared  OrderStatus = "Prepared"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCanceled  OrderStatus = "Canceled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPrepared, OrderStatusDelivered, OrderStatusCanceled:
		return true
	}
	return false
}

// Order is written once by checkout. Only fulfillment changes its status afterwards.
type Order struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_orders_user_idempotency,priority:1" json:"user_id"`
	TotalPrice     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`
	Address        string          `gorm:"type:varchar(255);not null" json:"address"`
	ZipCode        string          `gorm:"type:varchar(255);not null" json:"zip_code"`
	PhoneNumber    string          `gorm:"type:varchar(20);not null;index" json:"phone_number"`
	Status         OrderStatus     `gorm:"type:varchar(10);not null;default:'Prepared';index" json:"status"`
	IdempotencyKey *string         `gorm:"type:varchar(255);uniqueIndex:idx_orders_user_idempotency,priority:2" json:"-"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	Products       []OrderProduct  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"products"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = OrderStatusPrepared
	}
	return nil
}

// OrderProduct keeps the purchased quantity and unit price even after the product is deleted.
type OrderProduct struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	ProductID *uuid.UUID      `gorm:"type:uuid" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL" json:"-"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
}

func (op *OrderProduct) BeforeCreate(tx *gorm.DB) error {
	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}
	return nil
}

// CheckoutRequest carries the shipping details for an order.
type CheckoutRequest struct {
	Address     string `json:"address" validate:"required"`
	ZipCode     string `json:"zip_code" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"required,phone"`
}

// OrderPlacedEvent is published after a checkout commits.
type OrderPlacedEvent struct {
	Event      string           `json:"event"`
	OrderID    string           `json:"order_id"`
	UserID     string           `json:"user_id"`
	TotalPrice decimal.Decimal  `json:"total_price"`
	Items      []OrderEventItem `json:"items"`
	Timestamp  time.Time        `json:"timestamp"`
}

type OrderEventItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderResponse struct {
	Orders []Order  `json:"orders"`
	Meta   MetaData `json:"meta"`
}

type MetaData struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasMore    bool  `json:"has_more"`
}
