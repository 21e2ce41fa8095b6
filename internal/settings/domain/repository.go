package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Get(ctx context.Context, db *gorm.DB) (*Settings, error)
	Insert(ctx context.Context, db *gorm.DB, settings *Settings) error
	Update(ctx context.Context, db *gorm.DB, settings *Settings) error
	IncrementInvoiceNumber(ctx context.Context, db *gorm.DB, at time.Time) error
	IncrementQuoteNumber(ctx context.Context, db *gorm.DB, at time.Time) error
}
