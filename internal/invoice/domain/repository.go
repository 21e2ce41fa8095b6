package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListInvoiceFilter struct {
	CustomerID snowflake.ID
	Status     string
	Series     string
	Cursor     *Cursor
	Limit      int
}

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	// UpdateLifecycle writes the mutable fields only; the sealed fiscal
	// columns are never touched after insert.
	UpdateLifecycle(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	// ChainTail returns the last record in chain order (date, number
	// ascending), or nil for an empty chain.
	ChainTail(ctx context.Context, db *gorm.DB) (*Invoice, error)
	// ListChain returns every invoice in chain order.
	ListChain(ctx context.Context, db *gorm.DB) ([]Invoice, error)
	List(ctx context.Context, db *gorm.DB, filter ListInvoiceFilter) ([]*Invoice, error)
}
