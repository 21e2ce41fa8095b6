// Package domain defines the compliance export: a self-contained JSON
// registry of all chained invoices, the full audit trail and the result
// of a fresh chain verification, plus the log of exports themselves.
package domain

import (
	"context"
	"time"

	auditdomain "github.com/facturapro/facturapro/internal/audit/domain"
	invoicedomain "github.com/facturapro/facturapro/internal/invoice/domain"
	settingsdomain "github.com/facturapro/facturapro/internal/settings/domain"
	sifdomain "github.com/facturapro/facturapro/internal/sif/domain"
	"gorm.io/gorm"
)

// Registry is the exported document. Invoice and audit entries keep
// their JSON shapes so the registry round-trips unchanged.
type Registry struct {
	GeneratedAt  time.Time               `json:"generatedAt"`
	Company      settingsdomain.Settings `json:"company"`
	Invoices     []invoicedomain.Invoice `json:"invoices"`
	AuditLog     []auditdomain.Entry     `json:"auditLog"`
	Verification sifdomain.Report        `json:"verification"`
}

// LogEntry records one performed export.
type LogEntry struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	User      string    `gorm:"column:username;not null" json:"user"`
	Summary   string    `gorm:"type:text;not null" json:"summary"`
}

// TableName sets the database table name.
func (LogEntry) TableName() string { return "export_log" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *LogEntry) error
	ListAll(ctx context.Context, db *gorm.DB) ([]LogEntry, error)
}

type Service interface {
	// BuildRegistry assembles the registry and records the export.
	BuildRegistry(ctx context.Context) (Registry, error)
	ListExports(ctx context.Context) ([]LogEntry, error)
}
