package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/facturapro/facturapro/internal/actorcontext"
	auditdomain "github.com/facturapro/facturapro/internal/audit/domain"
	"github.com/facturapro/facturapro/internal/clock"
	"github.com/facturapro/facturapro/internal/export/domain"
	invoicedomain "github.com/facturapro/facturapro/internal/invoice/domain"
	"github.com/facturapro/facturapro/internal/metrics"
	settingsdomain "github.com/facturapro/facturapro/internal/settings/domain"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Repo     domain.Repository
	Audit    auditdomain.Recorder
	Settings settingsdomain.Service
	Invoices invoicedomain.Service
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	repo     domain.Repository
	audit    auditdomain.Recorder
	settings settingsdomain.Service
	invoices invoicedomain.Service
	metrics  *metrics.Metrics

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("export.service"),
		clock:    p.Clock,
		repo:     p.Repo,
		audit:    p.Audit,
		settings: p.Settings,
		invoices: p.Invoices,
		metrics:  p.Metrics,
		entropy:  ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// BuildRegistry assembles the full compliance registry: a fresh chain
// verification, every invoice with its integrity block and the complete
// audit trail. The export itself is logged and audited.
func (s *Service) BuildRegistry(ctx context.Context) (domain.Registry, error) {
	company, err := s.settings.Get(ctx)
	if err != nil {
		return domain.Registry{}, err
	}
	invoices, err := s.invoices.ListChain(ctx)
	if err != nil {
		return domain.Registry{}, err
	}
	report, err := s.invoices.VerifyLedger(ctx)
	if err != nil {
		return domain.Registry{}, err
	}
	trail, err := s.audit.ListAll(ctx)
	if err != nil {
		return domain.Registry{}, err
	}

	now := s.clock.Now()
	registry := domain.Registry{
		GeneratedAt:  now,
		Company:      company,
		Invoices:     invoices,
		AuditLog:     trail,
		Verification: report,
	}

	summary := fmt.Sprintf("%d invoices, %d audit entries, chain valid=%t", len(invoices), len(trail), report.Valid)
	entry := domain.LogEntry{
		ID:        s.newID(now),
		Timestamp: now,
		User:      actorcontext.ActorFromContext(ctx),
		Summary:   summary,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &entry); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, auditdomain.ActionExportRegistry, "export", entry.ID, summary)
	})
	if err != nil {
		return domain.Registry{}, err
	}

	if s.metrics != nil {
		s.metrics.Exports.Inc()
	}
	s.log.Info("registry exported",
		zap.Int("invoices", len(invoices)),
		zap.Bool("chain_valid", report.Valid),
	)
	return registry, nil
}

func (s *Service) ListExports(ctx context.Context) ([]domain.LogEntry, error) {
	return s.repo.ListAll(ctx, s.db)
}

func (s *Service) newID(at time.Time) string {
	s.entropyMu.Lock()
	defer s.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), s.entropy).String()
}
