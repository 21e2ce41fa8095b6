package service

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/facturapro/facturapro/internal/actorcontext"
	auditdomain "github.com/facturapro/facturapro/internal/audit/domain"
	"github.com/facturapro/facturapro/internal/clock"
	"github.com/facturapro/facturapro/internal/metrics"
	"github.com/facturapro/facturapro/pkg/db/pagination"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    auditdomain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    auditdomain.Repository
	metrics *metrics.Metrics

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
}

func NewService(p Params) auditdomain.Recorder {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("audit.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// Record appends one entry inside the caller's transaction. An insert
// failure propagates so the business operation fails with it.
func (s *Service) Record(ctx context.Context, tx *gorm.DB, action, entity, entityID, details string) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}
	entity = strings.TrimSpace(entity)
	if entity == "" {
		entity = "UNKNOWN"
	}
	if tx == nil {
		tx = s.db
	}

	now := s.clock.Now()
	entry := auditdomain.Entry{
		ID:        s.newID(now),
		Timestamp: now,
		User:      actorcontext.ActorFromContext(ctx),
		Action:    action,
		Entity:    entity,
		EntityID:  strings.TrimSpace(entityID),
		Details:   strings.TrimSpace(details),
		IP:        actorcontext.IPAddressFromContext(ctx),
	}

	if err := s.repo.Insert(ctx, tx, &entry); err != nil {
		s.log.Error("failed to write audit entry",
			zap.String("action", action),
			zap.String("entity", entity),
			zap.Error(err),
		)
		return err
	}

	if s.metrics != nil {
		s.metrics.AuditEntries.Inc()
	}
	return nil
}

// List returns entries newest first, with optional action/entity filters
// and cursor pagination.
func (s *Service) List(ctx context.Context, req auditdomain.ListRequest) (auditdomain.ListResponse, error) {
	var cursor *auditdomain.Cursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return auditdomain.ListResponse{}, auditdomain.ErrInvalidPageToken
		}
		ts, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return auditdomain.ListResponse{}, auditdomain.ErrInvalidPageToken
		}
		cursor = &auditdomain.Cursor{
			ID:        decoded.ID,
			Timestamp: ts,
		}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, s.db, auditdomain.ListFilter{
		Action:   req.Action,
		Entity:   req.Entity,
		EntityID: req.EntityID,
		Cursor:   cursor,
		Limit:    pageSize,
	})
	if err != nil {
		return auditdomain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *auditdomain.Entry) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID,
			CreatedAt: item.Timestamp.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	entries := make([]auditdomain.Entry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entries = append(entries, *item)
	}

	resp := auditdomain.ListResponse{Entries: entries}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

// ListAll returns the complete trail newest first, for the compliance
// export.
func (s *Service) ListAll(ctx context.Context) ([]auditdomain.Entry, error) {
	return s.repo.ListAll(ctx, s.db)
}

func (s *Service) newID(at time.Time) string {
	s.entropyMu.Lock()
	defer s.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), s.entropy).String()
}
