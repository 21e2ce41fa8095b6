package service

import (
	"context"
	"testing"
	"time"

	"github.com/facturapro/facturapro/internal/actorcontext"
	auditdomain "github.com/facturapro/facturapro/internal/audit/domain"
	auditrepo "github.com/facturapro/facturapro/internal/audit/repository"
	"github.com/facturapro/facturapro/internal/clock"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (auditdomain.Recorder, *clock.FakeClock, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auditdomain.Entry{}))

	fake := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: fake,
		Repo:  auditrepo.Provide(),
	})
	return svc, fake, db
}

func TestRecordWritesEntry(t *testing.T) {
	svc, _, _ := newTestService(t)

	ctx := actorcontext.WithActor(context.Background(), "maria")
	ctx = actorcontext.WithIPAddress(ctx, "10.0.0.7")

	err := svc.Record(ctx, nil, auditdomain.ActionCreateInvoice, "invoice", "INV-2025-0001", "series=INV number=1")
	require.NoError(t, err)

	entries, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "maria", got.User)
	assert.Equal(t, auditdomain.ActionCreateInvoice, got.Action)
	assert.Equal(t, "invoice", got.Entity)
	assert.Equal(t, "INV-2025-0001", got.EntityID)
	assert.Equal(t, "series=INV number=1", got.Details)
	assert.Equal(t, "10.0.0.7", got.IP)
}

func TestRecordDefaultsActorToSystem(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Record(context.Background(), nil, auditdomain.ActionSettingsChange, "settings", "1", "")
	require.NoError(t, err)

	entries, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "system", entries[0].User)
}

func TestRecordRejectsEmptyAction(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Record(context.Background(), nil, "  ", "invoice", "1", "")
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestRecordRollsBackWithCallerTransaction(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	tx := db.Begin()
	require.NoError(t, tx.Error)
	require.NoError(t, svc.Record(ctx, tx, auditdomain.ActionCreateCustomer, "customer", "42", ""))
	require.NoError(t, tx.Rollback().Error)

	entries, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListNewestFirstWithPagination(t *testing.T) {
	svc, fake, _ := newTestService(t)
	ctx := context.Background()

	actions := []string{
		auditdomain.ActionCreateInvoice,
		auditdomain.ActionUpdateInvoice,
		auditdomain.StatusChangeAction("paid"),
		auditdomain.ActionCreateQuote,
		auditdomain.ActionExportRegistry,
	}
	for _, action := range actions {
		require.NoError(t, svc.Record(ctx, nil, action, "invoice", "1", ""))
		fake.Advance(time.Second)
	}

	var req auditdomain.ListRequest
	req.PageSize = 2
	first, err := svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, first.Entries, 2)
	assert.True(t, first.HasMore)
	assert.Equal(t, auditdomain.ActionExportRegistry, first.Entries[0].Action)
	assert.Equal(t, auditdomain.ActionCreateQuote, first.Entries[1].Action)

	req.PageToken = first.NextPageToken
	second, err := svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, second.Entries, 2)
	assert.Equal(t, "STATUS_CHANGE_TO_PAID", second.Entries[0].Action)
	assert.Equal(t, auditdomain.ActionUpdateInvoice, second.Entries[1].Action)

	req.PageToken = second.NextPageToken
	third, err := svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, third.Entries, 1)
	assert.False(t, third.HasMore)
	assert.Equal(t, auditdomain.ActionCreateInvoice, third.Entries[0].Action)
}

func TestListFiltersByAction(t *testing.T) {
	svc, fake, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, nil, auditdomain.ActionCreateInvoice, "invoice", "1", ""))
	fake.Advance(time.Second)
	require.NoError(t, svc.Record(ctx, nil, auditdomain.ActionCreateCustomer, "customer", "2", ""))

	var req auditdomain.ListRequest
	req.Action = auditdomain.ActionCreateCustomer
	resp, err := svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "customer", resp.Entries[0].Entity)
}

func TestListRejectsMalformedPageToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	var req auditdomain.ListRequest
	req.PageToken = "not-base64!"
	_, err := svc.List(context.Background(), req)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}
