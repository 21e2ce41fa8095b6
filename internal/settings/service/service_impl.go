package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	auditdomain "github.com/facturapro/facturapro/internal/audit/domain"
	"github.com/facturapro/facturapro/internal/clock"
	"github.com/facturapro/facturapro/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
	Audit auditdomain.Recorder
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
	audit auditdomain.Recorder

	// allocMu serializes sequence allocations across goroutines; the
	// database increment keeps concurrent processes consistent.
	allocMu sync.Mutex
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("settings.service"),
		clock: p.Clock,
		repo:  p.Repo,
		audit: p.Audit,
	}
}

// Get returns the settings row, writing the defaults on first access.
func (s *Service) Get(ctx context.Context) (domain.Settings, error) {
	return s.ensure(ctx, s.db)
}

func (s *Service) Update(ctx context.Context, req domain.UpdateSettingsRequest) (domain.Settings, error) {
	name := strings.TrimSpace(req.CompanyName)
	if name == "" {
		return domain.Settings{}, domain.ErrInvalidCompanyName
	}
	if req.DefaultVATRate < 0 || req.DefaultVATRate > 100 {
		return domain.Settings{}, domain.ErrInvalidVATRate
	}
	if !domain.ValidCurrency(req.Currency) {
		return domain.Settings{}, domain.ErrInvalidCurrency
	}
	if req.Mode != domain.ModeNoVerifactu && req.Mode != domain.ModeVerifactu {
		return domain.Settings{}, domain.ErrInvalidMode
	}
	invoicePrefix := strings.TrimSpace(req.InvoicePrefix)
	quotePrefix := strings.TrimSpace(req.QuotePrefix)
	if invoicePrefix == "" || quotePrefix == "" {
		return domain.Settings{}, domain.ErrInvalidPrefix
	}
	if req.NextInvoiceNumber < 1 || req.NextQuoteNumber < 1 {
		return domain.Settings{}, domain.ErrInvalidSequence
	}
	if req.DefaultDueDays < 0 {
		return domain.Settings{}, domain.ErrInvalidDueDays
	}

	placement := req.CurrencyPlacement
	if placement != "before" {
		placement = "after"
	}

	var updated domain.Settings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.ensure(ctx, tx)
		if err != nil {
			return err
		}

		current.CompanyName = name
		current.CompanyLegalName = strings.TrimSpace(req.CompanyLegalName)
		current.CompanyNIF = strings.TrimSpace(req.CompanyNIF)
		current.CompanyAddress = strings.TrimSpace(req.CompanyAddress)
		current.CompanyPhone = strings.TrimSpace(req.CompanyPhone)
		current.CompanyEmail = strings.TrimSpace(req.CompanyEmail)
		current.DefaultVATRate = req.DefaultVATRate
		current.Currency = req.Currency
		current.CurrencyPlacement = placement
		current.InvoicePrefix = invoicePrefix
		current.NextInvoiceNumber = req.NextInvoiceNumber
		current.QuotePrefix = quotePrefix
		current.NextQuoteNumber = req.NextQuoteNumber
		current.DefaultDueDays = req.DefaultDueDays
		current.DefaultGlobalDiscount = req.DefaultGlobalDiscount
		current.Mode = req.Mode
		current.UpdatedAt = s.clock.Now()

		if err := s.repo.Update(ctx, tx, &current); err != nil {
			return err
		}

		details := fmt.Sprintf("mode=%s currency=%s invoicePrefix=%s", current.Mode, current.Currency, current.InvoicePrefix)
		if err := s.audit.Record(ctx, tx, auditdomain.ActionSettingsChange, "settings", "1", details); err != nil {
			return err
		}

		updated = current
		return nil
	})
	if err != nil {
		return domain.Settings{}, err
	}

	s.log.Info("settings updated", zap.String("mode", updated.Mode))
	return updated, nil
}

// AllocateInvoiceNumber consumes the next invoice sequence value inside
// the caller's transaction.
func (s *Service) AllocateInvoiceNumber(ctx context.Context, tx *gorm.DB) (domain.NumberAllocation, error) {
	return s.allocate(ctx, tx, false)
}

// AllocateQuoteNumber consumes the next quote sequence value inside the
// caller's transaction.
func (s *Service) AllocateQuoteNumber(ctx context.Context, tx *gorm.DB) (domain.NumberAllocation, error) {
	return s.allocate(ctx, tx, true)
}

func (s *Service) allocate(ctx context.Context, tx *gorm.DB, quote bool) (domain.NumberAllocation, error) {
	if tx == nil {
		tx = s.db
	}

	s.allocMu.Lock()
	defer s.allocMu.Unlock()

	current, err := s.ensure(ctx, tx)
	if err != nil {
		return domain.NumberAllocation{}, err
	}

	now := s.clock.Now()
	if quote {
		if err := s.repo.IncrementQuoteNumber(ctx, tx, now); err != nil {
			return domain.NumberAllocation{}, err
		}
		return domain.NumberAllocation{Prefix: current.QuotePrefix, Number: current.NextQuoteNumber}, nil
	}
	if err := s.repo.IncrementInvoiceNumber(ctx, tx, now); err != nil {
		return domain.NumberAllocation{}, err
	}
	return domain.NumberAllocation{Prefix: current.InvoicePrefix, Number: current.NextInvoiceNumber}, nil
}

func (s *Service) ensure(ctx context.Context, db *gorm.DB) (domain.Settings, error) {
	current, err := s.repo.Get(ctx, db)
	if err != nil {
		return domain.Settings{}, err
	}
	if current != nil {
		return *current, nil
	}

	defaults := domain.Defaults(s.clock.Now())
	if err := s.repo.Insert(ctx, db, &defaults); err != nil {
		return domain.Settings{}, err
	}
	s.log.Info("settings initialized with defaults")
	return defaults, nil
}
