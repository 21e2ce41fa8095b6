// Package metrics registers the application's prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

// Metrics exposes application-level counters.
type Metrics struct {
	InvoicesCreated         prometheus.Counter
	AuditEntries            prometheus.Counter
	ChainVerifications      prometheus.Counter
	ChainVerifyFailures     prometheus.Counter
	ConcurrentAppendRetries prometheus.Counter
	Exports                 prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		InvoicesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "facturapro_invoices_created_total",
			Help: "Invoices appended to the ledger chain.",
		}),
		AuditEntries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "facturapro_audit_entries_total",
			Help: "Audit trail entries written.",
		}),
		ChainVerifications: promauto.NewCounter(prometheus.CounterOpts{
			Name: "facturapro_chain_verifications_total",
			Help: "Ledger chain verification passes run.",
		}),
		ChainVerifyFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "facturapro_chain_verification_failures_total",
			Help: "Ledger chain verification passes that found a break.",
		}),
		ConcurrentAppendRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "facturapro_concurrent_append_retries_total",
			Help: "Chain appends retried after losing the tail race.",
		}),
		Exports: promauto.NewCounter(prometheus.CounterOpts{
			Name: "facturapro_exports_total",
			Help: "Compliance registry exports generated.",
		}),
	}
}

var Module = fx.Module("metrics",
	fx.Provide(New),
)
