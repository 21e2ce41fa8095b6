package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ListFilter struct {
	Action   string
	Entity   string
	EntityID string
	Cursor   *Cursor
	Limit    int
}

// Cursor points after the last entry of the previous page, newest first.
type Cursor struct {
	ID        string
	Timestamp time.Time
}

// Repository is insert plus list. There is intentionally no update or
// delete: the trail is append-only by construction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *Entry) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Entry, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
	ListAll(ctx context.Context, db *gorm.DB) ([]Entry, error)
}
