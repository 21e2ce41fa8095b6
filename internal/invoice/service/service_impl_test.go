package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/facturapro/facturapro/internal/audit/domain"
	auditrepo "github.com/facturapro/facturapro/internal/audit/repository"
	auditservice "github.com/facturapro/facturapro/internal/audit/service"
	"github.com/facturapro/facturapro/internal/clock"
	"github.com/facturapro/facturapro/internal/invoice/domain"
	"github.com/facturapro/facturapro/internal/invoice/repository"
	settingsdomain "github.com/facturapro/facturapro/internal/settings/domain"
	settingsrepo "github.com/facturapro/facturapro/internal/settings/repository"
	settingsservice "github.com/facturapro/facturapro/internal/settings/service"
	sifdomain "github.com/facturapro/facturapro/internal/sif/domain"
	sifservice "github.com/facturapro/facturapro/internal/sif/service"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc   domain.Service
	audit auditdomain.Recorder
	clock *clock.FakeClock
	db    *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&domain.Invoice{},
		&settingsdomain.Settings{},
		&auditdomain.Entry{},
	))

	fake := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	audit := auditservice.NewService(auditservice.Params{
		DB:    gdb,
		Log:   zap.NewNop(),
		Clock: fake,
		Repo:  auditrepo.Provide(),
	})
	settings := settingsservice.New(settingsservice.Params{
		DB:    gdb,
		Log:   zap.NewNop(),
		Clock: fake,
		Repo:  settingsrepo.Provide(),
		Audit: audit,
	})
	chain := sifservice.NewService(sifservice.Params{Log: zap.NewNop()})

	svc := New(Params{
		DB:       gdb,
		Log:      zap.NewNop(),
		Clock:    fake,
		GenID:    node,
		Repo:     repository.Provide(),
		Audit:    audit,
		Settings: settings,
		Chain:    chain,
	})
	return &fixture{svc: svc, audit: audit, clock: fake, db: gdb}
}

func createReq(customer snowflake.ID, day int, amount float64) domain.CreateInvoiceRequest {
	date := time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC)
	return domain.CreateInvoiceRequest{
		CustomerID: customer,
		Date:       date,
		Lines: []domain.Line{{
			Description: "servicio de diseño",
			Quantity:    1,
			UnitPrice:   amount,
			VATRate:     21,
			Discount:    domain.Discount{Type: domain.DiscountPercentage},
		}},
		Status: domain.StatusIssued,
	}
}

func (f *fixture) create(t *testing.T, day int, amount float64) domain.Invoice {
	t.Helper()
	invoice, err := f.svc.Create(context.Background(), createReq(snowflake.ID(77), day, amount))
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	return invoice
}

func TestCreateLinksChain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.create(t, 1, 100)
	second := f.create(t, 2, 200)
	third := f.create(t, 3, 300)

	assert.Equal(t, sifdomain.GenesisHash, first.SIFPreviousHash)
	assert.Equal(t, first.SIFHash, second.SIFPreviousHash)
	assert.Equal(t, second.SIFHash, third.SIFPreviousHash)

	assert.Equal(t, "FAC-", first.Series)
	assert.Equal(t, int64(1), first.Number)
	assert.Equal(t, int64(2), second.Number)
	assert.Equal(t, int64(3), third.Number)

	report, err := f.svc.VerifyLedger(ctx)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, 3, report.Checked)
	assert.Nil(t, report.FirstFailureIndex)
}

func TestCreateRejectsBackdatedInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, 10, 100)

	// A record dated before the tail would sort ahead of the record its
	// previous hash points at.
	_, err := f.svc.Create(ctx, createReq(77, 5, 200))
	assert.ErrorIs(t, err, domain.ErrBackdated)

	report, err := f.svc.VerifyLedger(ctx)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, 1, report.Checked)

	// Same date as the tail is still appendable.
	sameDay, err := f.svc.Create(ctx, createReq(77, 10, 300))
	require.NoError(t, err)
	assert.Equal(t, int64(2), sameDay.Number)

	report, err = f.svc.VerifyLedger(ctx)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, 2, report.Checked)
}

func TestVerifyDetectsTamperedPayload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, 1, 100)
	f.create(t, 2, 200)
	f.create(t, 3, 300)

	// Bypass the service and edit a sealed field directly.
	require.NoError(t, f.db.Exec(`UPDATE invoices SET notes = 'tampered' WHERE number = 2`).Error)

	report, err := f.svc.VerifyLedger(ctx)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	require.NotNil(t, report.FirstFailureIndex)
	assert.Equal(t, 1, *report.FirstFailureIndex)
	assert.NotEmpty(t, report.Reason)
}

func TestVerifyEmptyChain(t *testing.T) {
	f := newFixture(t)

	report, err := f.svc.VerifyLedger(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Zero(t, report.Checked)
}

func TestCreateWritesAuditEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invoice := f.create(t, 1, 100)

	entries, err := f.audit.ListAll(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, auditdomain.ActionCreateInvoice, entries[0].Action)
	assert.Equal(t, invoice.ID.String(), entries[0].EntityID)
	assert.Contains(t, entries[0].Details, "series=FAC-")
	assert.Contains(t, entries[0].Details, "total=121.00")
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := createReq(0, 1, 100)
	_, err := f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidCustomer)

	req = createReq(77, 1, 100)
	req.Lines = nil
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrNoLines)

	req = createReq(77, 1, 100)
	req.Lines[0].Quantity = 0
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidLine)

	req = createReq(77, 1, 100)
	req.Type = domain.TypeRectificativa
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidType)

	req = createReq(77, 1, 100)
	req.GlobalDiscount = domain.Discount{Type: domain.DiscountPercentage, Value: 120}
	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidDiscount)
}

func TestUpdateLifecycleKeepsChainValid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invoice := f.create(t, 1, 100)
	f.create(t, 2, 200)

	updated, err := f.svc.Update(ctx, invoice.ID, domain.UpdateInvoiceRequest{
		InternalNotes: "pagado en efectivo",
		Recurrence:    domain.Recurrence{Frequency: "monthly"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pagado en efectivo", updated.InternalNotes)
	assert.Equal(t, invoice.SIFHash, updated.SIFHash)

	report, err := f.svc.VerifyLedger(ctx)
	require.NoError(t, err)
	assert.True(t, report.Valid)
}

func TestStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invoice := f.create(t, 1, 100)

	paid, err := f.svc.UpdateStatus(ctx, invoice.ID, domain.StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)

	_, err = f.svc.UpdateStatus(ctx, invoice.ID, domain.StatusIssued)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	voided, err := f.svc.UpdateStatus(ctx, invoice.ID, domain.StatusVoid)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVoid, voided.Status)

	_, err = f.svc.Update(ctx, invoice.ID, domain.UpdateInvoiceRequest{InternalNotes: "x"})
	assert.ErrorIs(t, err, domain.ErrImmutable)

	entries, err := f.audit.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, auditdomain.ActionCancelInvoice, entries[0].Action)
	assert.Equal(t, "STATUS_CHANGE_TO_PAID", entries[1].Action)
}

func TestRectifyAppendsNegatedRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	original := f.create(t, 1, 100)
	f.create(t, 2, 200)

	rect, err := f.svc.Rectify(ctx, original.ID, domain.RectifyInvoiceRequest{Notes: "anulación total"})
	require.NoError(t, err)
	assert.Equal(t, domain.TypeRectificativa, rect.Type)
	require.NotNil(t, rect.Rectifies)
	assert.Equal(t, original.ID, *rect.Rectifies)
	require.Len(t, rect.Lines, 1)
	assert.Equal(t, float64(-1), rect.Lines[0].Quantity)

	reloaded, err := f.svc.Get(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRectified, reloaded.Status)

	report, err := f.svc.VerifyLedger(ctx)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, 3, report.Checked)
}

func TestRectifyRejectsDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := createReq(77, 1, 100)
	req.Status = domain.StatusDraft
	draft, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = f.svc.Rectify(ctx, draft.ID, domain.RectifyInvoiceRequest{})
	assert.ErrorIs(t, err, domain.ErrNotRectifiable)
}

func TestListFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, 1, 100)
	invoice := f.create(t, 2, 200)
	_, err := f.svc.UpdateStatus(ctx, invoice.ID, domain.StatusPaid)
	require.NoError(t, err)

	var req domain.ListInvoiceRequest
	req.Status = domain.StatusPaid
	resp, err := f.svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 1)
	assert.Equal(t, invoice.ID, resp.Invoices[0].ID)
}

func TestChainOrderIsDateThenNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, 5, 100)
	f.create(t, 5, 200)
	f.create(t, 7, 300)

	invoices, err := f.svc.ListChain(ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 3)
	assert.Equal(t, int64(1), invoices[0].Number)
	assert.Equal(t, int64(2), invoices[1].Number)
	assert.Equal(t, int64(3), invoices[2].Number)
}
