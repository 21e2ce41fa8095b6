package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/facturapro/facturapro/internal/audit/domain"
	"github.com/facturapro/facturapro/internal/clock"
	invoicedomain "github.com/facturapro/facturapro/internal/invoice/domain"
	"github.com/facturapro/facturapro/internal/quote/domain"
	settingsdomain "github.com/facturapro/facturapro/internal/settings/domain"
	"github.com/facturapro/facturapro/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	GenID    *snowflake.Node
	Repo     domain.Repository
	Audit    auditdomain.Recorder
	Settings settingsdomain.Service
	Invoices invoicedomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	genID    *snowflake.Node
	repo     domain.Repository
	audit    auditdomain.Recorder
	settings settingsdomain.Service
	invoices invoicedomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("quote.service"),
		clock:    p.Clock,
		genID:    p.GenID,
		repo:     p.Repo,
		audit:    p.Audit,
		settings: p.Settings,
		invoices: p.Invoices,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateQuoteRequest) (domain.Quote, error) {
	if err := validate(req); err != nil {
		return domain.Quote{}, err
	}

	date := req.Date
	if date.IsZero() {
		date = s.clock.Now()
	}
	expiry := date.AddDate(0, 0, 30)
	if req.ExpiryDate != nil {
		expiry = *req.ExpiryDate
	}

	var created domain.Quote
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		alloc, err := s.settings.AllocateQuoteNumber(ctx, tx)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		quote := domain.Quote{
			ID:             s.genID.Generate(),
			Series:         alloc.Prefix,
			Number:         alloc.Number,
			CustomerID:     req.CustomerID,
			Date:           date,
			ExpiryDate:     expiry,
			Lines:          datatypes.NewJSONSlice(req.Lines),
			GlobalDiscount: datatypes.NewJSONType(req.GlobalDiscount),
			TaxName:        strings.TrimSpace(req.TaxName),
			TaxRate:        req.TaxRate,
			Status:         domain.StatusDraft,
			Notes:          req.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.repo.Insert(ctx, tx, &quote); err != nil {
			return err
		}
		details := fmt.Sprintf("series=%s number=%d", quote.Series, quote.Number)
		if err := s.audit.Record(ctx, tx, auditdomain.ActionCreateQuote, "quote", quote.ID.String(), details); err != nil {
			return err
		}
		created = quote
		return nil
	})
	if err != nil {
		return domain.Quote{}, err
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.Quote, error) {
	quote, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Quote{}, err
	}
	if quote == nil {
		return domain.Quote{}, domain.ErrNotFound
	}
	return *quote, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateQuoteRequest) (domain.Quote, error) {
	if err := validate(req.CreateQuoteRequest); err != nil {
		return domain.Quote{}, err
	}

	var updated domain.Quote
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quote, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if quote == nil {
			return domain.ErrNotFound
		}

		quote.CustomerID = req.CustomerID
		if !req.Date.IsZero() {
			quote.Date = req.Date
		}
		if req.ExpiryDate != nil {
			quote.ExpiryDate = *req.ExpiryDate
		}
		quote.Lines = datatypes.NewJSONSlice(req.Lines)
		quote.GlobalDiscount = datatypes.NewJSONType(req.GlobalDiscount)
		quote.TaxName = strings.TrimSpace(req.TaxName)
		quote.TaxRate = req.TaxRate
		quote.Notes = req.Notes
		quote.UpdatedAt = s.clock.Now()

		if err := s.repo.Update(ctx, tx, quote); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, tx, auditdomain.ActionUpdateQuote, "quote", quote.ID.String(), ""); err != nil {
			return err
		}
		updated = *quote
		return nil
	})
	if err != nil {
		return domain.Quote{}, err
	}
	return updated, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id snowflake.ID, status string) (domain.Quote, error) {
	if !domain.ValidStatus(status) {
		return domain.Quote{}, domain.ErrInvalidStatus
	}

	var updated domain.Quote
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quote, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if quote == nil {
			return domain.ErrNotFound
		}

		from := quote.Status
		quote.Status = status
		quote.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, quote); err != nil {
			return err
		}
		details := fmt.Sprintf("from=%s to=%s", from, status)
		if err := s.audit.Record(ctx, tx, auditdomain.ActionUpdateQuote, "quote", quote.ID.String(), details); err != nil {
			return err
		}
		updated = *quote
		return nil
	})
	if err != nil {
		return domain.Quote{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quote, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if quote == nil {
			return domain.ErrNotFound
		}
		if err := s.repo.Delete(ctx, tx, id); err != nil {
			return err
		}
		details := fmt.Sprintf("series=%s number=%d", quote.Series, quote.Number)
		return s.audit.Record(ctx, tx, auditdomain.ActionDeleteQuote, "quote", id.String(), details)
	})
}

func (s *Service) List(ctx context.Context, req domain.ListQuoteRequest) (domain.ListQuoteResponse, error) {
	var cursor *domain.Cursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListQuoteResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(decoded.ID)
		if err != nil {
			return domain.ListQuoteResponse{}, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return domain.ListQuoteResponse{}, domain.ErrInvalidPageToken
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

	items, err := s.repo.List(ctx, s.db, domain.ListQuoteFilter{
		CustomerID: req.CustomerID,
		Status:     req.Status,
		Cursor:     cursor,
		Limit:      pageSize,
	})
	if err != nil {
		return domain.ListQuoteResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(quote *domain.Quote) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        quote.ID.String(),
			CreatedAt: quote.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	quotes := make([]domain.Quote, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		quotes = append(quotes, *item)
	}

	resp := domain.ListQuoteResponse{Quotes: quotes}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

// ConvertToInvoice issues a draft invoice carrying the quote's lines and
// fiscal values. The quote itself is not modified.
func (s *Service) ConvertToInvoice(ctx context.Context, id snowflake.ID) (invoicedomain.Invoice, error) {
	quote, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if quote == nil {
		return invoicedomain.Invoice{}, domain.ErrNotFound
	}
	if quote.Status != domain.StatusAccepted {
		return invoicedomain.Invoice{}, domain.ErrNotAccepted
	}

	invoice, err := s.invoices.Create(ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID:     quote.CustomerID,
		Date:           s.clock.Now(),
		Lines:          quote.Lines,
		GlobalDiscount: quote.GlobalDiscount.Data(),
		TaxName:        quote.TaxName,
		TaxRate:        quote.TaxRate,
		Notes:          quote.Notes,
		InternalNotes:  fmt.Sprintf("Convertido desde el presupuesto %s%d", quote.Series, quote.Number),
		Status:         invoicedomain.StatusDraft,
		Type:           invoicedomain.TypeCompleta,
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	details := fmt.Sprintf("quote=%s series=%s number=%d", quote.ID, invoice.Series, invoice.Number)
	if err := s.audit.Record(ctx, nil, auditdomain.ActionQuoteToInvoice, "invoice", invoice.ID.String(), details); err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.log.Info("quote converted to invoice",
		zap.String("quote_id", quote.ID.String()),
		zap.String("invoice_id", invoice.ID.String()),
	)
	return invoice, nil
}

func validate(req domain.CreateQuoteRequest) error {
	if req.CustomerID == 0 {
		return domain.ErrInvalidCustomer
	}
	if len(req.Lines) == 0 {
		return domain.ErrNoLines
	}
	for _, line := range req.Lines {
		if strings.TrimSpace(line.Description) == "" || line.Quantity == 0 {
			return domain.ErrInvalidLine
		}
		if line.UnitPrice < 0 || line.VATRate < 0 || line.VATRate > 100 {
			return domain.ErrInvalidLine
		}
	}
	return nil
}
