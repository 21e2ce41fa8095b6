package repository

import (
	"context"

	"github.com/facturapro/facturapro/internal/export/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.LogEntry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO export_log (id, timestamp, username, summary) VALUES (?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp,
		entry.User,
		entry.Summary,
	).Error
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB) ([]domain.LogEntry, error) {
	var entries []domain.LogEntry
	err := db.WithContext(ctx).Model(&domain.LogEntry{}).
		Order("timestamp desc, id desc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
