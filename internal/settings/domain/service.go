package domain

import (
	"context"

	"gorm.io/gorm"
)

// Service reads and mutates the settings row. The allocate operations
// run inside the caller's transaction so a rolled-back document returns
// its number with it.
type Service interface {
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, req UpdateSettingsRequest) (Settings, error)
	AllocateInvoiceNumber(ctx context.Context, tx *gorm.DB) (NumberAllocation, error)
	AllocateQuoteNumber(ctx context.Context, tx *gorm.DB) (NumberAllocation, error)
}
