// Package domain defines the invoice record: the business document plus
// the integrity block that binds it into the ledger chain.
package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/facturapro/facturapro/pkg/db/pagination"
	"gorm.io/datatypes"

	sifdomain "github.com/facturapro/facturapro/internal/sif/domain"
)

const (
	StatusDraft     = "draft"
	StatusIssued    = "issued"
	StatusPaid      = "paid"
	StatusVoid      = "void"
	StatusRectified = "rectified"
)

const (
	TypeCompleta      = "completa"
	TypeSimplificada  = "simplificada"
	TypeRectificativa = "rectificativa"
)

const (
	DiscountPercentage = "percentage"
	DiscountAmount     = "amount"
)

type Discount struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

type Line struct {
	ProductID   string   `json:"productId"`
	Description string   `json:"description"`
	Quantity    float64  `json:"quantity"`
	UnitPrice   float64  `json:"unitPrice"`
	VATRate     float64  `json:"vatRate"`
	Discount    Discount `json:"discount"`
}

type Recurrence struct {
	Frequency string     `json:"frequency"`
	NextDate  *time.Time `json:"nextDate,omitempty"`
}

// Invoice is one chained record. The fiscal fields (series through
// rectifies) are sealed into the hash and immutable afterwards; status,
// internal notes and recurrence stay editable without touching the
// chain.
type Invoice struct {
	ID              snowflake.ID                   `gorm:"primaryKey" json:"id"`
	Series          string                         `gorm:"not null;uniqueIndex:idx_invoices_series_number" json:"series"`
	Number          int64                          `gorm:"not null;uniqueIndex:idx_invoices_series_number" json:"number"`
	CustomerID      snowflake.ID                   `gorm:"not null;index" json:"customerId"`
	Date            time.Time                      `gorm:"not null;index" json:"date"`
	DueDate         time.Time                      `gorm:"not null" json:"dueDate"`
	Lines           datatypes.JSONSlice[Line]      `gorm:"not null" json:"lines"`
	GlobalDiscount  datatypes.JSONType[Discount]   `gorm:"column:global_discount" json:"globalDiscount"`
	TaxName         string                         `json:"taxName,omitempty"`
	TaxRate         float64                        `gorm:"column:tax_rate" json:"taxRate,omitempty"`
	Notes           string                         `gorm:"type:text" json:"notes"`
	InternalNotes   string                         `gorm:"type:text" json:"internalNotes"`
	Status          string                         `gorm:"not null;index" json:"status"`
	Type            string                         `gorm:"not null" json:"type"`
	Rectifies       *snowflake.ID                  `json:"rectifies,omitempty"`
	Recurrence      datatypes.JSONType[Recurrence] `json:"recurrence"`
	SIFHash         string                         `gorm:"column:sif_hash;not null" json:"-"`
	SIFPreviousHash string                         `gorm:"column:sif_previous_hash;not null;uniqueIndex" json:"-"`
	SIFTimestamp    time.Time                      `gorm:"column:sif_timestamp;not null" json:"-"`
	CreatedAt       time.Time                      `gorm:"not null" json:"createdAt"`
	UpdatedAt       time.Time                      `gorm:"not null" json:"updatedAt"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// MarshalJSON nests the integrity block under "sif" so exported records
// keep the documented shape.
func (inv Invoice) MarshalJSON() ([]byte, error) {
	type alias Invoice
	return json.Marshal(struct {
		alias
		SIF sifdomain.Block `json:"sif"`
	}{
		alias: alias(inv),
		SIF: sifdomain.Block{
			Hash:         inv.SIFHash,
			PreviousHash: inv.SIFPreviousHash,
			Timestamp:    inv.SIFTimestamp,
		},
	})
}

// FiscalPayload is the exact value sealed into the hash. Lifecycle
// fields (status, internal notes, recurrence) are deliberately absent so
// they can change after sealing.
func (inv Invoice) FiscalPayload() map[string]any {
	lines := make([]any, 0, len(inv.Lines))
	for _, line := range inv.Lines {
		lines = append(lines, map[string]any{
			"productId":   line.ProductID,
			"description": line.Description,
			"quantity":    line.Quantity,
			"unitPrice":   line.UnitPrice,
			"vatRate":     line.VATRate,
			"discount": map[string]any{
				"type":  line.Discount.Type,
				"value": line.Discount.Value,
			},
		})
	}

	discount := inv.GlobalDiscount.Data()
	payload := map[string]any{
		"series":     inv.Series,
		"number":     inv.Number,
		"customerId": inv.CustomerID.String(),
		"date":       inv.Date.UTC().Format(time.RFC3339),
		"dueDate":    inv.DueDate.UTC().Format(time.RFC3339),
		"lines":      lines,
		"globalDiscount": map[string]any{
			"type":  discount.Type,
			"value": discount.Value,
		},
		"taxName":   inv.TaxName,
		"taxRate":   inv.TaxRate,
		"notes":     inv.Notes,
		"type":      inv.Type,
		"rectifies": nil,
	}
	if inv.Rectifies != nil {
		payload["rectifies"] = inv.Rectifies.String()
	}
	return payload
}

// ChainRecord adapts the invoice for chain verification.
func (inv Invoice) ChainRecord() sifdomain.Record {
	return sifdomain.Record{
		Payload: inv.FiscalPayload(),
		Block: sifdomain.Block{
			Hash:         inv.SIFHash,
			PreviousHash: inv.SIFPreviousHash,
			Timestamp:    inv.SIFTimestamp,
		},
		Date:   inv.Date,
		Number: inv.Number,
	}
}

type CreateInvoiceRequest struct {
	CustomerID     snowflake.ID `json:"customerId"`
	Date           time.Time    `json:"date"`
	DueDate        *time.Time   `json:"dueDate"`
	Lines          []Line       `json:"lines"`
	GlobalDiscount Discount     `json:"globalDiscount"`
	TaxName        string       `json:"taxName"`
	TaxRate        float64      `json:"taxRate"`
	Notes          string       `json:"notes"`
	InternalNotes  string       `json:"internalNotes"`
	Status         string       `json:"status"`
	Type           string       `json:"type"`
	Recurrence     Recurrence   `json:"recurrence"`
}

// UpdateInvoiceRequest covers the fields that stay mutable after the
// record is sealed.
type UpdateInvoiceRequest struct {
	InternalNotes string     `json:"internalNotes"`
	Recurrence    Recurrence `json:"recurrence"`
}

type RectifyInvoiceRequest struct {
	// Lines override the default full negation of the original lines.
	Lines []Line `json:"lines"`
	Notes string `json:"notes"`
}

type ListInvoiceRequest struct {
	pagination.Pagination
	CustomerID snowflake.ID `form:"customer_id"`
	Status     string       `form:"status"`
	Series     string       `form:"series"`
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

var (
	ErrNotFound          = errors.New("invoice: not found")
	ErrInvalidCustomer   = errors.New("invoice: customer is required")
	ErrNoLines           = errors.New("invoice: at least one line is required")
	ErrInvalidLine       = errors.New("invoice: invalid line")
	ErrInvalidDiscount   = errors.New("invoice: invalid discount")
	ErrInvalidStatus     = errors.New("invoice: invalid status")
	ErrInvalidType       = errors.New("invoice: invalid type")
	ErrInvalidTransition = errors.New("invoice: invalid status transition")
	ErrImmutable         = errors.New("invoice: void and rectified invoices cannot be edited")
	ErrNotRectifiable    = errors.New("invoice: only issued or paid invoices can be rectified")
	ErrInvalidRecurrence = errors.New("invoice: invalid recurrence")
	ErrBackdated         = errors.New("invoice: date predates the current chain tail")
	ErrInvalidPageToken  = errors.New("invoice: invalid page token")
)

// ValidTransition reports whether a status change is allowed. Rectified
// is never a direct target; it is set when a rectificative invoice is
// issued against the record.
func ValidTransition(from, to string) bool {
	switch from {
	case StatusDraft:
		return to == StatusIssued || to == StatusVoid
	case StatusIssued:
		return to == StatusPaid || to == StatusVoid
	case StatusPaid:
		return to == StatusVoid
	}
	return false
}
