package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/facturapro/facturapro/internal/audit/domain"
	"github.com/facturapro/facturapro/internal/clock"
	"github.com/facturapro/facturapro/internal/product/domain"
	"github.com/facturapro/facturapro/pkg/db"
	"github.com/facturapro/facturapro/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
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
		log:   p.Log.Named("product.service"),
		clock: p.Clock,
		genID: p.GenID,
		repo:  p.Repo,
		audit: p.Audit,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateProductRequest) (domain.Product, error) {
	if err := validate(req); err != nil {
		return domain.Product{}, err
	}

	now := s.clock.Now()
	product := domain.Product{
		ID:          s.genID.Generate(),
		SKU:         strings.TrimSpace(req.SKU),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		VATRate:     req.VATRate,
		ImageURL:    strings.TrimSpace(req.ImageURL),
		IconName:    strings.TrimSpace(req.IconName),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &product); err != nil {
			return err
		}
		details := fmt.Sprintf("sku=%s name=%s", product.SKU, product.Name)
		return s.audit.Record(ctx, tx, auditdomain.ActionCreateProduct, "product", product.ID.String(), details)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Product{}, domain.ErrDuplicateSKU
		}
		return domain.Product{}, err
	}
	return product, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.Product, error) {
	product, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Product{}, err
	}
	if product == nil {
		return domain.Product{}, domain.ErrNotFound
	}
	return *product, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateProductRequest) (domain.Product, error) {
	if err := validate(req.CreateProductRequest); err != nil {
		return domain.Product{}, err
	}

	var updated domain.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}

		product.SKU = strings.TrimSpace(req.SKU)
		product.Name = strings.TrimSpace(req.Name)
		product.Description = req.Description
		product.Price = req.Price
		product.VATRate = req.VATRate
		product.ImageURL = strings.TrimSpace(req.ImageURL)
		product.IconName = strings.TrimSpace(req.IconName)
		product.UpdatedAt = s.clock.Now()

		if err := s.repo.Update(ctx, tx, product); err != nil {
			return err
		}
		details := fmt.Sprintf("sku=%s name=%s", product.SKU, product.Name)
		if err := s.audit.Record(ctx, tx, auditdomain.ActionUpdateProduct, "product", product.ID.String(), details); err != nil {
			return err
		}

		updated = *product
		return nil
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Product{}, domain.ErrDuplicateSKU
		}
		return domain.Product{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		if err := s.repo.Delete(ctx, tx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, auditdomain.ActionDeleteProduct, "product", id.String(), fmt.Sprintf("sku=%s", product.SKU))
	})
}

func (s *Service) List(ctx context.Context, req domain.ListProductRequest) (domain.ListProductResponse, error) {
	var cursor *domain.Cursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListProductResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(decoded.ID)
		if err != nil {
			return domain.ListProductResponse{}, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return domain.ListProductResponse{}, domain.ErrInvalidPageToken
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

	items, err := s.repo.List(ctx, s.db, domain.ListProductFilter{
		SKU:    req.SKU,
		Name:   req.Name,
		Cursor: cursor,
		Limit:  pageSize,
	})
	if err != nil {
		return domain.ListProductResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(product *domain.Product) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        product.ID.String(),
			CreatedAt: product.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	products := make([]domain.Product, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		products = append(products, *item)
	}

	resp := domain.ListProductResponse{Products: products}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func validate(req domain.CreateProductRequest) error {
	if strings.TrimSpace(req.SKU) == "" {
		return domain.ErrInvalidSKU
	}
	if strings.TrimSpace(req.Name) == "" {
		return domain.ErrInvalidName
	}
	if req.Price < 0 {
		return domain.ErrInvalidPrice
	}
	if req.VATRate < 0 || req.VATRate > 100 {
		return domain.ErrInvalidVATRate
	}
	return nil
}
