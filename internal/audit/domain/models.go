// Package domain defines the append-only audit trail. Entries are written
// in the same transaction as the mutation they describe and are never
// updated or deleted; the only read is list, newest first.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/facturapro/facturapro/pkg/db/pagination"
	"gorm.io/gorm"
)

// Entry is one immutable audit record. The JSON shape round-trips through
// the compliance export unchanged.
type Entry struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	User      string    `gorm:"column:username;not null" json:"user"`
	Action    string    `gorm:"type:text;not null;index" json:"action"`
	Entity    string    `gorm:"type:text;not null" json:"entity"`
	EntityID  string    `gorm:"not null;index" json:"entityId"`
	Details   string    `gorm:"type:text" json:"details,omitempty"`
	IP        string    `gorm:"type:text" json:"ip"`
}

// TableName sets the database table name.
func (Entry) TableName() string { return "audit_log" }

// Well-known action codes. The column is free-form; these cover the
// operations the server itself performs.
const (
	ActionCreateInvoice  = "CREATE_INVOICE"
	ActionUpdateInvoice  = "UPDATE_INVOICE"
	ActionCancelInvoice  = "CANCEL_INVOICE"
	ActionRectifyInvoice = "RECTIFY_INVOICE"
	ActionQuoteToInvoice = "QUOTE_TO_INVOICE"
	ActionCreateQuote    = "CREATE_QUOTE"
	ActionUpdateQuote    = "UPDATE_QUOTE"
	ActionDeleteQuote    = "DELETE_QUOTE"
	ActionCreateCustomer = "CREATE_CUSTOMER"
	ActionUpdateCustomer = "UPDATE_CUSTOMER"
	ActionDeleteCustomer = "DELETE_CUSTOMER"
	ActionCreateProduct  = "CREATE_PRODUCT"
	ActionUpdateProduct  = "UPDATE_PRODUCT"
	ActionDeleteProduct  = "DELETE_PRODUCT"
	ActionSettingsChange = "SETTINGS_CHANGE"
	ActionExportRegistry = "EXPORT_SIF"
)

// StatusChangeAction builds the STATUS_CHANGE_TO_<STATUS> action code.
func StatusChangeAction(status string) string {
	return "STATUS_CHANGE_TO_" + strings.ToUpper(status)
}

type ListRequest struct {
	pagination.Pagination
	Action   string
	Entity   string
	EntityID string
}

type ListResponse struct {
	pagination.PageInfo
	Entries []Entry `json:"entries"`
}

var (
	ErrInvalidAction    = errors.New("audit: invalid action")
	ErrInvalidPageToken = errors.New("audit: invalid page token")
)

// Recorder appends audit entries and lists them. Record takes the caller's
// transaction handle so that a failed audit write rolls the business
// operation back with it.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, action, entity, entityID, details string) error
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	ListAll(ctx context.Context) ([]Entry, error)
}
