package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/facturapro/facturapro/pkg/db/pagination"
)

type Product struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	SKU         string       `gorm:"column:sku;not null;uniqueIndex" json:"sku"`
	Name        string       `gorm:"not null;index" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Price       float64      `gorm:"not null" json:"price"`
	VATRate     float64      `gorm:"column:vat_rate;not null" json:"vatRate"`
	ImageURL    string       `gorm:"column:image_url" json:"imageUrl,omitempty"`
	IconName    string       `json:"iconName,omitempty"`
	CreatedAt   time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updatedAt"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }

type CreateProductRequest struct {
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	VATRate     float64 `json:"vatRate"`
	ImageURL    string  `json:"imageUrl"`
	IconName    string  `json:"iconName"`
}

type UpdateProductRequest struct {
	CreateProductRequest
}

type ListProductRequest struct {
	pagination.Pagination
	SKU  string `form:"sku"`
	Name string `form:"name"`
}

type ListProductResponse struct {
	pagination.PageInfo
	Products []Product `json:"products"`
}

var (
	ErrNotFound         = errors.New("product: not found")
	ErrInvalidSKU       = errors.New("product: sku is required")
	ErrDuplicateSKU     = errors.New("product: sku already exists")
	ErrInvalidName      = errors.New("product: name is required")
	ErrInvalidPrice     = errors.New("product: price must not be negative")
	ErrInvalidVATRate   = errors.New("product: vat rate must be between 0 and 100")
	ErrInvalidPageToken = errors.New("product: invalid page token")
)
