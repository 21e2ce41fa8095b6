package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/facturapro/facturapro/internal/quote/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, quote *domain.Quote) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO quotes (
			id, series, number, customer_id, date, expiry_date, lines,
			global_discount, tax_name, tax_rate, status, notes,
			created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		quote.ID,
		quote.Series,
		quote.Number,
		quote.CustomerID,
		quote.Date,
		quote.ExpiryDate,
		quote.Lines,
		quote.GlobalDiscount,
		quote.TaxName,
		quote.TaxRate,
		quote.Status,
		quote.Notes,
		quote.CreatedAt,
		quote.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Quote, error) {
	var quote domain.Quote
	err := db.WithContext(ctx).
		Model(&domain.Quote{}).
		Where("id = ?", id).
		Limit(1).
		Find(&quote).Error
	if err != nil {
		return nil, err
	}
	if quote.ID == 0 {
		return nil, nil
	}
	return &quote, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, quote *domain.Quote) error {
	return db.WithContext(ctx).Exec(
		`UPDATE quotes SET
			customer_id = ?, date = ?, expiry_date = ?, lines = ?,
			global_discount = ?, tax_name = ?, tax_rate = ?,
			status = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		quote.CustomerID,
		quote.Date,
		quote.ExpiryDate,
		quote.Lines,
		quote.GlobalDiscount,
		quote.TaxName,
		quote.TaxRate,
		quote.Status,
		quote.Notes,
		quote.UpdatedAt,
		quote.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM quotes WHERE id = ?`, id).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListQuoteFilter) ([]*domain.Quote, error) {
	var quotes []*domain.Quote
	stmt := db.WithContext(ctx).Model(&domain.Quote{})

	if filter.CustomerID != 0 {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		stmt = stmt.Where("status = ?", status)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}
