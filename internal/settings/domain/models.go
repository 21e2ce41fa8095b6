// Package domain holds the single-row company configuration: identity
// fields, fiscal defaults and the invoice/quote numbering sequences.
package domain

import (
	"errors"
	"time"
)

const (
	ModeNoVerifactu = "NO_VERIFACTU"
	ModeVerifactu   = "VERIFACTU"
)

// SettingsRowID is the primary key of the only settings row.
const SettingsRowID int64 = 1

type Settings struct {
	ID                    int64     `gorm:"primaryKey" json:"-"`
	CompanyName           string    `gorm:"not null" json:"companyName"`
	CompanyLegalName      string    `json:"companyLegalName,omitempty"`
	CompanyNIF            string    `gorm:"column:company_nif;not null" json:"companyNif"`
	CompanyAddress        string    `json:"companyAddress"`
	CompanyPhone          string    `json:"companyPhone,omitempty"`
	CompanyEmail          string    `json:"companyEmail,omitempty"`
	DefaultVATRate        float64   `gorm:"column:default_vat_rate;not null" json:"defaultVatRate"`
	Currency              string    `gorm:"not null" json:"currency"`
	CurrencyPlacement     string    `gorm:"not null" json:"currencyPlacement"`
	InvoicePrefix         string    `gorm:"not null" json:"invoicePrefix"`
	NextInvoiceNumber     int64     `gorm:"not null" json:"nextInvoiceNumber"`
	QuotePrefix           string    `gorm:"not null" json:"quotePrefix"`
	NextQuoteNumber       int64     `gorm:"not null" json:"nextQuoteNumber"`
	DefaultDueDays        int       `gorm:"not null" json:"defaultDueDays"`
	DefaultGlobalDiscount float64   `gorm:"not null" json:"defaultGlobalDiscount"`
	Mode                  string    `gorm:"not null" json:"mode"`
	CreatedAt             time.Time `gorm:"not null" json:"-"`
	UpdatedAt             time.Time `gorm:"not null" json:"-"`
}

// TableName sets the database table name.
func (Settings) TableName() string { return "settings" }

// Defaults is the row written on first access.
func Defaults(now time.Time) Settings {
	return Settings{
		ID:                SettingsRowID,
		CompanyName:       "Mi Empresa",
		CompanyNIF:        "",
		DefaultVATRate:    21,
		Currency:          "EUR",
		CurrencyPlacement: "after",
		InvoicePrefix:     "FAC-",
		NextInvoiceNumber: 1,
		QuotePrefix:       "PRE-",
		NextQuoteNumber:   1,
		DefaultDueDays:    30,
		Mode:              ModeNoVerifactu,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

type UpdateSettingsRequest struct {
	CompanyName           string  `json:"companyName"`
	CompanyLegalName      string  `json:"companyLegalName"`
	CompanyNIF            string  `json:"companyNif"`
	CompanyAddress        string  `json:"companyAddress"`
	CompanyPhone          string  `json:"companyPhone"`
	CompanyEmail          string  `json:"companyEmail"`
	DefaultVATRate        float64 `json:"defaultVatRate"`
	Currency              string  `json:"currency"`
	CurrencyPlacement     string  `json:"currencyPlacement"`
	InvoicePrefix         string  `json:"invoicePrefix"`
	NextInvoiceNumber     int64   `json:"nextInvoiceNumber"`
	QuotePrefix           string  `json:"quotePrefix"`
	NextQuoteNumber       int64   `json:"nextQuoteNumber"`
	DefaultDueDays        int     `json:"defaultDueDays"`
	DefaultGlobalDiscount float64 `json:"defaultGlobalDiscount"`
	Mode                  string  `json:"mode"`
}

// NumberAllocation is one consumed sequence value.
type NumberAllocation struct {
	Prefix string
	Number int64
}

var (
	ErrInvalidCompanyName = errors.New("settings: company name is required")
	ErrInvalidVATRate     = errors.New("settings: vat rate must be between 0 and 100")
	ErrInvalidCurrency    = errors.New("settings: unsupported currency")
	ErrInvalidMode        = errors.New("settings: unsupported mode")
	ErrInvalidPrefix      = errors.New("settings: numbering prefix is required")
	ErrInvalidSequence    = errors.New("settings: sequence numbers must be positive")
	ErrInvalidDueDays     = errors.New("settings: due days must not be negative")
)

// ValidCurrency reports whether the code is one the invoices can carry.
func ValidCurrency(code string) bool {
	switch code {
	case "EUR", "USD", "GBP":
		return true
	}
	return false
}
