package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User is owned by the identity provider. The storefront only reads it.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email    string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Fullname string    `gorm:"type:varchar(255)" json:"fullname"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(50);not null" json:"title"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Product stock is only decremented by checkout and must never drop below zero.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Category    *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
	Info        string          `gorm:"type:text" json:"info"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null;index" json:"price"`
	Stock       int             `gorm:"not null;index;check:stock >= 0" json:"stock"`
	SalesNumber int64           `gorm:"not null;default:0;index" json:"sales_number"`
	Image       string          `gorm:"type:varchar(255)" json:"image,omitempty"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Review is a storefront testimonial shown on the public site.
type Review struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	Fullname  string    `gorm:"type:varchar(255)" json:"fullname"`
	Image     string    `gorm:"type:varchar(255)" json:"image"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"-"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type ProductListResponse struct {
	Products []ProductView `json:"products"`
	Meta     MetaData      `json:"meta"`
}

// Name mirrors the catalog listing contract, where a product is titled by its category.
func (p *Product) Name() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Title
}
