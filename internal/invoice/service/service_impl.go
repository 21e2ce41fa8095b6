package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/facturapro/facturapro/internal/audit/domain"
	"github.com/facturapro/facturapro/internal/clock"
	"github.com/facturapro/facturapro/internal/invoice/calc"
	"github.com/facturapro/facturapro/internal/invoice/domain"
	"github.com/facturapro/facturapro/internal/metrics"
	settingsdomain "github.com/facturapro/facturapro/internal/settings/domain"
	sifdomain "github.com/facturapro/facturapro/internal/sif/domain"
	"github.com/facturapro/facturapro/pkg/db"
	"github.com/facturapro/facturapro/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// appendRetries bounds how often an append is replayed after losing the
// chain tail to a concurrent writer in another process.
const appendRetries = 3

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	GenID    *snowflake.Node
	Repo     domain.Repository
	Audit    auditdomain.Recorder
	Settings settingsdomain.Service
	Chain    sifdomain.Service
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	genID    *snowflake.Node
	repo     domain.Repository
	audit    auditdomain.Recorder
	settings settingsdomain.Service
	chain    sifdomain.Service
	metrics  *metrics.Metrics

	// chainMu serializes appends within this process; the unique index
	// on sif_previous_hash catches races with other processes.
	chainMu sync.Mutex
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		clock:    p.Clock,
		genID:    p.GenID,
		repo:     p.Repo,
		audit:    p.Audit,
		settings: p.Settings,
		chain:    p.Chain,
		metrics:  p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvoiceRequest) (domain.Invoice, error) {
	if err := normalize(&req); err != nil {
		return domain.Invoice{}, err
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return domain.Invoice{}, err
	}

	date := req.Date
	if date.IsZero() {
		date = s.clock.Now()
	}
	dueDate := date.AddDate(0, 0, cfg.DefaultDueDays)
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}
	discount := req.GlobalDiscount
	if discount.Type == "" {
		discount = domain.Discount{Type: domain.DiscountPercentage, Value: cfg.DefaultGlobalDiscount}
	}

	return s.appendRecord(ctx, func(tx *gorm.DB) (domain.Invoice, error) {
		alloc, err := s.settings.AllocateInvoiceNumber(ctx, tx)
		if err != nil {
			return domain.Invoice{}, err
		}

		now := s.clock.Now()
		invoice := domain.Invoice{
			ID:             s.genID.Generate(),
			Series:         alloc.Prefix,
			Number:         alloc.Number,
			CustomerID:     req.CustomerID,
			Date:           date,
			DueDate:        dueDate,
			Lines:          datatypes.NewJSONSlice(req.Lines),
			GlobalDiscount: datatypes.NewJSONType(discount),
			TaxName:        strings.TrimSpace(req.TaxName),
			TaxRate:        req.TaxRate,
			Notes:          req.Notes,
			InternalNotes:  req.InternalNotes,
			Status:         req.Status,
			Type:           req.Type,
			Recurrence:     datatypes.NewJSONType(req.Recurrence),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.seal(ctx, tx, &invoice); err != nil {
			return domain.Invoice{}, err
		}
		if err := s.repo.Insert(ctx, tx, &invoice); err != nil {
			return domain.Invoice{}, err
		}

		totals := calc.Totals(invoice.Lines, discount, invoice.TaxRate)
		details := fmt.Sprintf("series=%s number=%d total=%.2f", invoice.Series, invoice.Number, totals.Total)
		if err := s.audit.Record(ctx, tx, auditdomain.ActionCreateInvoice, "invoice", invoice.ID.String(), details); err != nil {
			return domain.Invoice{}, err
		}
		return invoice, nil
	})
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}
	return *invoice, nil
}

// Update touches the mutable lifecycle fields only. The sealed fiscal
// payload cannot change; corrections go through Rectify.
func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateInvoiceRequest) (domain.Invoice, error) {
	if err := validateRecurrence(&req.Recurrence); err != nil {
		return domain.Invoice{}, err
	}

	var updated domain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrNotFound
		}
		if invoice.Status == domain.StatusVoid || invoice.Status == domain.StatusRectified {
			return domain.ErrImmutable
		}

		invoice.InternalNotes = req.InternalNotes
		invoice.Recurrence = datatypes.NewJSONType(req.Recurrence)
		invoice.UpdatedAt = s.clock.Now()

		if err := s.repo.UpdateLifecycle(ctx, tx, invoice); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, tx, auditdomain.ActionUpdateInvoice, "invoice", invoice.ID.String(), ""); err != nil {
			return err
		}
		updated = *invoice
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	return updated, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id snowflake.ID, status string) (domain.Invoice, error) {
	switch status {
	case domain.StatusIssued, domain.StatusPaid, domain.StatusVoid:
	default:
		return domain.Invoice{}, domain.ErrInvalidStatus
	}

	var updated domain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrNotFound
		}
		if !domain.ValidTransition(invoice.Status, status) {
			return domain.ErrInvalidTransition
		}

		from := invoice.Status
		invoice.Status = status
		invoice.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateLifecycle(ctx, tx, invoice); err != nil {
			return err
		}

		action := auditdomain.StatusChangeAction(status)
		if status == domain.StatusVoid {
			action = auditdomain.ActionCancelInvoice
		}
		details := fmt.Sprintf("from=%s to=%s", from, status)
		if err := s.audit.Record(ctx, tx, action, "invoice", invoice.ID.String(), details); err != nil {
			return err
		}
		updated = *invoice
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	return updated, nil
}

// Rectify issues a rectificative invoice against an issued or paid
// record and marks the original rectified. With no explicit lines the
// original lines are negated in full.
func (s *Service) Rectify(ctx context.Context, id snowflake.ID, req domain.RectifyInvoiceRequest) (domain.Invoice, error) {
	for i := range req.Lines {
		if err := validateLine(req.Lines[i]); err != nil {
			return domain.Invoice{}, err
		}
	}

	return s.appendRecord(ctx, func(tx *gorm.DB) (domain.Invoice, error) {
		original, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return domain.Invoice{}, err
		}
		if original == nil {
			return domain.Invoice{}, domain.ErrNotFound
		}
		if original.Status != domain.StatusIssued && original.Status != domain.StatusPaid {
			return domain.Invoice{}, domain.ErrNotRectifiable
		}

		lines := req.Lines
		if len(lines) == 0 {
			lines = make([]domain.Line, 0, len(original.Lines))
			for _, line := range original.Lines {
				line.Quantity = -line.Quantity
				lines = append(lines, line)
			}
		}

		alloc, err := s.settings.AllocateInvoiceNumber(ctx, tx)
		if err != nil {
			return domain.Invoice{}, err
		}

		now := s.clock.Now()
		rectifies := original.ID
		rectificative := domain.Invoice{
			ID:             s.genID.Generate(),
			Series:         alloc.Prefix,
			Number:         alloc.Number,
			CustomerID:     original.CustomerID,
			Date:           now,
			DueDate:        now,
			Lines:          datatypes.NewJSONSlice(lines),
			GlobalDiscount: original.GlobalDiscount,
			TaxName:        original.TaxName,
			TaxRate:        original.TaxRate,
			Notes:          req.Notes,
			Status:         domain.StatusIssued,
			Type:           domain.TypeRectificativa,
			Rectifies:      &rectifies,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.seal(ctx, tx, &rectificative); err != nil {
			return domain.Invoice{}, err
		}
		if err := s.repo.Insert(ctx, tx, &rectificative); err != nil {
			return domain.Invoice{}, err
		}

		original.Status = domain.StatusRectified
		original.UpdatedAt = now
		if err := s.repo.UpdateLifecycle(ctx, tx, original); err != nil {
			return domain.Invoice{}, err
		}

		details := fmt.Sprintf("rectifies=%s series=%s number=%d", original.ID, rectificative.Series, rectificative.Number)
		if err := s.audit.Record(ctx, tx, auditdomain.ActionRectifyInvoice, "invoice", rectificative.ID.String(), details); err != nil {
			return domain.Invoice{}, err
		}
		statusDetails := fmt.Sprintf("rectifiedBy=%s", rectificative.ID)
		if err := s.audit.Record(ctx, tx, auditdomain.StatusChangeAction(domain.StatusRectified), "invoice", original.ID.String(), statusDetails); err != nil {
			return domain.Invoice{}, err
		}
		return rectificative, nil
	})
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) (domain.ListInvoiceResponse, error) {
	var cursor *domain.Cursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(decoded.ID)
		if err != nil {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidPageToken
		}
		cursor = &domain.Cursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, s.db, domain.ListInvoiceFilter{
		CustomerID: req.CustomerID,
		Status:     req.Status,
		Series:     req.Series,
		Cursor:     cursor,
		Limit:      pageSize,
	})
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(invoice *domain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        invoice.ID.String(),
			CreatedAt: invoice.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	invoices := make([]domain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}

	resp := domain.ListInvoiceResponse{Invoices: invoices}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) ListChain(ctx context.Context) ([]domain.Invoice, error) {
	return s.repo.ListChain(ctx, s.db)
}

// VerifyLedger replays the full chain. A detected break is reported,
// never repaired.
func (s *Service) VerifyLedger(ctx context.Context) (sifdomain.Report, error) {
	invoices, err := s.repo.ListChain(ctx, s.db)
	if err != nil {
		return sifdomain.Report{}, err
	}

	records := make([]sifdomain.Record, 0, len(invoices))
	for _, invoice := range invoices {
		records = append(records, invoice.ChainRecord())
	}

	report, err := s.chain.Verify(records)
	if err != nil {
		return sifdomain.Report{}, err
	}

	if s.metrics != nil {
		s.metrics.ChainVerifications.Inc()
		if !report.Valid {
			s.metrics.ChainVerifyFailures.Inc()
		}
	}
	if !report.Valid {
		s.log.Warn("ledger verification failed",
			zap.Intp("index", report.FirstFailureIndex),
			zap.String("reason", report.Reason),
		)
	}
	return report, nil
}

// appendRecord runs build inside a transaction while holding the chain
// mutex, retrying when a concurrent writer in another process claimed
// the same tail first.
func (s *Service) appendRecord(ctx context.Context, build func(tx *gorm.DB) (domain.Invoice, error)) (domain.Invoice, error) {
	s.chainMu.Lock()
	defer s.chainMu.Unlock()

	for attempt := 0; attempt <= appendRetries; attempt++ {
		var created domain.Invoice
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			invoice, err := build(tx)
			if err != nil {
				return err
			}
			created = invoice
			return nil
		})
		if err == nil {
			if s.metrics != nil {
				s.metrics.InvoicesCreated.Inc()
			}
			return created, nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return domain.Invoice{}, err
		}
		if s.metrics != nil {
			s.metrics.ConcurrentAppendRetries.Inc()
		}
		s.log.Warn("chain append lost the tail race, retrying", zap.Int("attempt", attempt+1))
	}
	return domain.Invoice{}, sifdomain.ErrConcurrentAppend
}

func (s *Service) seal(ctx context.Context, tx *gorm.DB, invoice *domain.Invoice) error {
	tail, err := s.repo.ChainTail(ctx, tx)
	if err != nil {
		return err
	}
	previousHash := sifdomain.GenesisHash
	if tail != nil {
		// The chain is ordered by (date, number). A record dated before
		// the tail would sort ahead of the record whose hash it links
		// to, breaking every later verification.
		if invoice.Date.Before(tail.Date) ||
			(invoice.Date.Equal(tail.Date) && invoice.Number < tail.Number) {
			return domain.ErrBackdated
		}
		previousHash = tail.SIFHash
	}

	block, err := s.chain.Seal(invoice.FiscalPayload(), previousHash, s.clock.Now())
	if err != nil {
		return err
	}
	invoice.SIFHash = block.Hash
	invoice.SIFPreviousHash = block.PreviousHash
	invoice.SIFTimestamp = block.Timestamp
	return nil
}

func normalize(req *domain.CreateInvoiceRequest) error {
	if req.CustomerID == 0 {
		return domain.ErrInvalidCustomer
	}
	if len(req.Lines) == 0 {
		return domain.ErrNoLines
	}
	for i := range req.Lines {
		if err := validateLine(req.Lines[i]); err != nil {
			return err
		}
	}
	if err := validateDiscount(req.GlobalDiscount); err != nil {
		return err
	}

	switch req.Status {
	case "":
		req.Status = domain.StatusDraft
	case domain.StatusDraft, domain.StatusIssued:
	default:
		return domain.ErrInvalidStatus
	}

	switch req.Type {
	case "":
		req.Type = domain.TypeCompleta
	case domain.TypeCompleta, domain.TypeSimplificada:
	default:
		// Rectificative invoices are only issued through Rectify.
		return domain.ErrInvalidType
	}

	return validateRecurrence(&req.Recurrence)
}

func validateLine(line domain.Line) error {
	if strings.TrimSpace(line.Description) == "" || line.Quantity == 0 {
		return domain.ErrInvalidLine
	}
	if line.UnitPrice < 0 || line.VATRate < 0 || line.VATRate > 100 {
		return domain.ErrInvalidLine
	}
	return validateDiscount(line.Discount)
}

func validateDiscount(d domain.Discount) error {
	switch d.Type {
	case "", domain.DiscountPercentage, domain.DiscountAmount:
	default:
		return domain.ErrInvalidDiscount
	}
	if d.Value < 0 {
		return domain.ErrInvalidDiscount
	}
	if d.Type == domain.DiscountPercentage && d.Value > 100 {
		return domain.ErrInvalidDiscount
	}
	return nil
}

func validateRecurrence(r *domain.Recurrence) error {
	switch r.Frequency {
	case "":
		r.Frequency = "none"
	case "none", "monthly", "yearly":
	default:
		return domain.ErrInvalidRecurrence
	}
	return nil
}
