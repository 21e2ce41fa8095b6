package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/facturapro/facturapro/internal/audit/domain"
	"github.com/facturapro/facturapro/internal/clock"
	"github.com/facturapro/facturapro/internal/customer/domain"
	"github.com/facturapro/facturapro/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
	Repo  domain.Repository
	Audit auditdomain.Recorder
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node
	repo  domain.Repository
	audit auditdomain.Recorder
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		clock: p.Clock,
		genID: p.GenID,
		repo:  p.Repo,
		audit: p.Audit,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	if err := validate(req); err != nil {
		return domain.Customer{}, err
	}

	now := s.clock.Now()
	customer := domain.Customer{
		ID:             s.genID.Generate(),
		NIF:            strings.TrimSpace(req.NIF),
		Name:           strings.TrimSpace(req.Name),
		Address:        strings.TrimSpace(req.Address),
		Email:          strings.TrimSpace(req.Email),
		Phone:          strings.TrimSpace(req.Phone),
		Currency:       req.Currency,
		Notes:          req.Notes,
		Contact:        datatypes.NewJSONType(req.Contact),
		DefaultVATRate: req.DefaultVATRate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &customer); err != nil {
			return err
		}
		details := fmt.Sprintf("name=%s nif=%s", customer.Name, customer.NIF)
		return s.audit.Record(ctx, tx, auditdomain.ActionCreateCustomer, "customer", customer.ID.String(), details)
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return customer, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.Customer, error) {
	customer, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if customer == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *customer, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateCustomerRequest) (domain.Customer, error) {
	if err := validate(req.CreateCustomerRequest); err != nil {
		return domain.Customer{}, err
	}

	var updated domain.Customer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if customer == nil {
			return domain.ErrNotFound
		}

		customer.NIF = strings.TrimSpace(req.NIF)
		customer.Name = strings.TrimSpace(req.Name)
		customer.Address = strings.TrimSpace(req.Address)
		customer.Email = strings.TrimSpace(req.Email)
		customer.Phone = strings.TrimSpace(req.Phone)
		customer.Currency = req.Currency
		customer.Notes = req.Notes
		customer.Contact = datatypes.NewJSONType(req.Contact)
		customer.DefaultVATRate = req.DefaultVATRate
		customer.UpdatedAt = s.clock.Now()

		if err := s.repo.Update(ctx, tx, customer); err != nil {
			return err
		}
		details := fmt.Sprintf("name=%s nif=%s", customer.Name, customer.NIF)
		if err := s.audit.Record(ctx, tx, auditdomain.ActionUpdateCustomer, "customer", customer.ID.String(), details); err != nil {
			return err
		}

		updated = *customer
		return nil
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if customer == nil {
			return domain.ErrNotFound
		}
		if err := s.repo.Delete(ctx, tx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, auditdomain.ActionDeleteCustomer, "customer", id.String(), fmt.Sprintf("name=%s", customer.Name))
	})
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	var cursor *domain.Cursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListCustomerResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(decoded.ID)
		if err != nil {
			return domain.ListCustomerResponse{}, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return domain.ListCustomerResponse{}, domain.ErrInvalidPageToken
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

	items, err := s.repo.List(ctx, s.db, domain.ListCustomerFilter{
		Name:   req.Name,
		NIF:    req.NIF,
		Cursor: cursor,
		Limit:  pageSize,
	})
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(customer *domain.Customer) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        customer.ID.String(),
			CreatedAt: customer.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		customers = append(customers, *item)
	}

	resp := domain.ListCustomerResponse{Customers: customers}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func validate(req domain.CreateCustomerRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return domain.ErrInvalidName
	}
	if strings.TrimSpace(req.NIF) == "" {
		return domain.ErrInvalidNIF
	}
	if email := strings.TrimSpace(req.Email); email != "" && !strings.Contains(email, "@") {
		return domain.ErrInvalidEmail
	}
	if req.Currency != "" && !validCurrency(req.Currency) {
		return domain.ErrInvalidCurrency
	}
	return nil
}

func validCurrency(code string) bool {
	switch code {
	case "EUR", "USD", "GBP":
		return true
	}
	return false
}
