// Package domain defines quotes. Quotes share the invoice line shape
// but live outside the ledger chain; only their conversion into an
// invoice produces a chained record.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/facturapro/facturapro/pkg/db/pagination"
	"gorm.io/datatypes"

	invoicedomain "github.com/facturapro/facturapro/internal/invoice/domain"
)

const (
	StatusDraft    = "draft"
	StatusSent     = "sent"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	StatusExpired  = "expired"
)

type Quote struct {
	ID             snowflake.ID                               `gorm:"primaryKey" json:"id"`
	Series         string                                     `gorm:"not null;uniqueIndex:idx_quotes_series_number" json:"series"`
	Number         int64                                      `gorm:"not null;uniqueIndex:idx_quotes_series_number" json:"number"`
	CustomerID     snowflake.ID                               `gorm:"not null;index" json:"customerId"`
	Date           time.Time                                  `gorm:"not null;index" json:"date"`
	ExpiryDate     time.Time                                  `gorm:"not null" json:"expiryDate"`
	Lines          datatypes.JSONSlice[invoicedomain.Line]    `gorm:"not null" json:"lines"`
	GlobalDiscount datatypes.JSONType[invoicedomain.Discount] `gorm:"column:global_discount" json:"globalDiscount"`
	TaxName        string                                     `json:"taxName,omitempty"`
	TaxRate        float64                                    `gorm:"column:tax_rate" json:"taxRate,omitempty"`
	Status         string                                     `gorm:"not null;index" json:"status"`
	Notes          string                                     `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time                                  `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time                                  `gorm:"not null" json:"updatedAt"`
}

// TableName sets the database table name.
func (Quote) TableName() string { return "quotes" }

type CreateQuoteRequest struct {
	CustomerID     snowflake.ID           `json:"customerId"`
	Date           time.Time              `json:"date"`
	ExpiryDate     *time.Time             `json:"expiryDate"`
	Lines          []invoicedomain.Line   `json:"lines"`
	GlobalDiscount invoicedomain.Discount `json:"globalDiscount"`
	TaxName        string                 `json:"taxName"`
	TaxRate        float64                `json:"taxRate"`
	Notes          string                 `json:"notes"`
}

type UpdateQuoteRequest struct {
	CreateQuoteRequest
}

type ListQuoteRequest struct {
	pagination.Pagination
	CustomerID snowflake.ID `form:"customer_id"`
	Status     string       `form:"status"`
}

type ListQuoteResponse struct {
	pagination.PageInfo
	Quotes []Quote `json:"quotes"`
}

var (
	ErrNotFound         = errors.New("quote: not found")
	ErrInvalidCustomer  = errors.New("quote: customer is required")
	ErrNoLines          = errors.New("quote: at least one line is required")
	ErrInvalidLine      = errors.New("quote: invalid line")
	ErrInvalidStatus    = errors.New("quote: invalid status")
	ErrNotAccepted      = errors.New("quote: only accepted quotes can be converted")
	ErrInvalidPageToken = errors.New("quote: invalid page token")
)

// ValidStatus reports whether the value is one of the quote lifecycle
// states.
func ValidStatus(status string) bool {
	switch status {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusExpired:
		return true
	}
	return false
}
