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
	"github.com/facturapro/facturapro/internal/customer/domain"
	"github.com/facturapro/facturapro/internal/customer/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, auditdomain.Recorder, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Customer{}, &auditdomain.Entry{}))

	fake := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	audit := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: fake,
		Repo:  auditrepo.Provide(),
	})
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: fake,
		GenID: node,
		Repo:  repository.Provide(),
		Audit: audit,
	})
	return svc, audit, fake
}

func validCreate() domain.CreateCustomerRequest {
	return domain.CreateCustomerRequest{
		NIF:     "B76365789",
		Name:    "Constructora Pérez SL",
		Address: "Av. Ordoño II 15, León",
		Email:   "facturas@perez.example",
		Phone:   "+34 600 111 222",
		Contact: domain.ContactPerson{Name: "Ana Pérez", Email: "ana@perez.example"},
	}
}

func TestCreateGetRoundTrip(t *testing.T) {
	svc, audit, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Constructora Pérez SL", got.Name)
	assert.Equal(t, "B76365789", got.NIF)
	assert.Equal(t, "Ana Pérez", got.Contact.Data().Name)

	entries, err := audit.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, auditdomain.ActionCreateCustomer, entries[0].Action)
	assert.Equal(t, created.ID.String(), entries[0].EntityID)
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	req := validCreate()
	req.Name = " "
	_, err := svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	req = validCreate()
	req.NIF = ""
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidNIF)

	req = validCreate()
	req.Email = "not-an-email"
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	req = validCreate()
	req.Currency = "JPY"
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidCurrency)
}

func TestUpdatePersistsAndAudits(t *testing.T) {
	svc, audit, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)

	update := domain.UpdateCustomerRequest{CreateCustomerRequest: validCreate()}
	update.Name = "Constructora Pérez e Hijos SL"
	update.Currency = "EUR"

	updated, err := svc.Update(ctx, created.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "Constructora Pérez e Hijos SL", updated.Name)
	assert.Equal(t, "EUR", updated.Currency)

	entries, err := audit.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, auditdomain.ActionUpdateCustomer, entries[0].Action)
}

func TestUpdateUnknownIDReturnsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Update(context.Background(), snowflake.ID(12345), domain.UpdateCustomerRequest{CreateCustomerRequest: validCreate()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteRemovesAndAudits(t *testing.T) {
	svc, audit, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	entries, err := audit.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, auditdomain.ActionDeleteCustomer, entries[0].Action)
}

func TestListFiltersAndPaginates(t *testing.T) {
	svc, _, fake := newTestService(t)
	ctx := context.Background()

	names := []string{"Alfa SL", "Beta SL", "Gamma Construcciones", "Delta SL"}
	for i, name := range names {
		req := validCreate()
		req.Name = name
		req.NIF = "B0000000" + string(rune('1'+i))
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
		fake.Advance(time.Second)
	}

	var listReq domain.ListCustomerRequest
	listReq.Name = "SL"
	resp, err := svc.List(ctx, listReq)
	require.NoError(t, err)
	require.Len(t, resp.Customers, 3)

	listReq = domain.ListCustomerRequest{}
	listReq.PageSize = 3
	first, err := svc.List(ctx, listReq)
	require.NoError(t, err)
	require.Len(t, first.Customers, 3)
	assert.True(t, first.HasMore)
	assert.Equal(t, "Delta SL", first.Customers[0].Name)

	listReq.PageToken = first.NextPageToken
	second, err := svc.List(ctx, listReq)
	require.NoError(t, err)
	require.Len(t, second.Customers, 1)
	assert.Equal(t, "Alfa SL", second.Customers[0].Name)
	assert.False(t, second.HasMore)
}
