package repository

import (
	"context"
	"time"

	"github.com/facturapro/facturapro/internal/settings/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Get(ctx context.Context, db *gorm.DB) (*domain.Settings, error) {
	var settings domain.Settings
	err := db.WithContext(ctx).
		Model(&domain.Settings{}).
		Where("id = ?", domain.SettingsRowID).
		Limit(1).
		Find(&settings).Error
	if err != nil {
		return nil, err
	}
	if settings.ID == 0 {
		return nil, nil
	}
	return &settings, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, settings *domain.Settings) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO settings (
			id, company_name, company_legal_name, company_nif, company_address,
			company_phone, company_email, default_vat_rate, currency,
			currency_placement, invoice_prefix, next_invoice_number,
			quote_prefix, next_quote_number, default_due_days,
			default_global_discount, mode, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settings.ID,
		settings.CompanyName,
		settings.CompanyLegalName,
		settings.CompanyNIF,
		settings.CompanyAddress,
		settings.CompanyPhone,
		settings.CompanyEmail,
		settings.DefaultVATRate,
		settings.Currency,
		settings.CurrencyPlacement,
		settings.InvoicePrefix,
		settings.NextInvoiceNumber,
		settings.QuotePrefix,
		settings.NextQuoteNumber,
		settings.DefaultDueDays,
		settings.DefaultGlobalDiscount,
		settings.Mode,
		settings.CreatedAt,
		settings.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, settings *domain.Settings) error {
	return db.WithContext(ctx).Exec(
		`UPDATE settings SET
			company_name = ?, company_legal_name = ?, company_nif = ?,
			company_address = ?, company_phone = ?, company_email = ?,
			default_vat_rate = ?, currency = ?, currency_placement = ?,
			invoice_prefix = ?, next_invoice_number = ?,
			quote_prefix = ?, next_quote_number = ?,
			default_due_days = ?, default_global_discount = ?,
			mode = ?, updated_at = ?
		 WHERE id = ?`,
		settings.CompanyName,
		settings.CompanyLegalName,
		settings.CompanyNIF,
		settings.CompanyAddress,
		settings.CompanyPhone,
		settings.CompanyEmail,
		settings.DefaultVATRate,
		settings.Currency,
		settings.CurrencyPlacement,
		settings.InvoicePrefix,
		settings.NextInvoiceNumber,
		settings.QuotePrefix,
		settings.NextQuoteNumber,
		settings.DefaultDueDays,
		settings.DefaultGlobalDiscount,
		settings.Mode,
		settings.UpdatedAt,
		settings.ID,
	).Error
}

func (r *repo) IncrementInvoiceNumber(ctx context.Context, db *gorm.DB, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE settings SET next_invoice_number = next_invoice_number + 1, updated_at = ? WHERE id = ?`,
		at,
		domain.SettingsRowID,
	).Error
}

func (r *repo) IncrementQuoteNumber(ctx context.Context, db *gorm.DB, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE settings SET next_quote_number = next_quote_number + 1, updated_at = ? WHERE id = ?`,
		at,
		domain.SettingsRowID,
	).Error
}
