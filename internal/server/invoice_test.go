package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/facturapro/facturapro/internal/actorcontext"
	invoicedomain "github.com/facturapro/facturapro/internal/invoice/domain"
	sifdomain "github.com/facturapro/facturapro/internal/sif/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInvoiceService struct {
	createErr error
	statusErr error
	lastActor string
	invoice   invoicedomain.Invoice
	report    sifdomain.Report
}

func (f *fakeInvoiceService) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	f.lastActor = actorcontext.ActorFromContext(ctx)
	if f.createErr != nil {
		return invoicedomain.Invoice{}, f.createErr
	}
	return f.invoice, nil
}

func (f *fakeInvoiceService) Get(ctx context.Context, id snowflake.ID) (invoicedomain.Invoice, error) {
	if f.invoice.ID != id {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}
	return f.invoice, nil
}

func (f *fakeInvoiceService) Update(ctx context.Context, id snowflake.ID, req invoicedomain.UpdateInvoiceRequest) (invoicedomain.Invoice, error) {
	return f.invoice, nil
}

func (f *fakeInvoiceService) UpdateStatus(ctx context.Context, id snowflake.ID, status string) (invoicedomain.Invoice, error) {
	if f.statusErr != nil {
		return invoicedomain.Invoice{}, f.statusErr
	}
	return f.invoice, nil
}

func (f *fakeInvoiceService) Rectify(ctx context.Context, id snowflake.ID, req invoicedomain.RectifyInvoiceRequest) (invoicedomain.Invoice, error) {
	return f.invoice, nil
}

func (f *fakeInvoiceService) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	return invoicedomain.ListInvoiceResponse{Invoices: []invoicedomain.Invoice{f.invoice}}, nil
}

func (f *fakeInvoiceService) ListChain(ctx context.Context) ([]invoicedomain.Invoice, error) {
	return []invoicedomain.Invoice{f.invoice}, nil
}

func (f *fakeInvoiceService) VerifyLedger(ctx context.Context) (sifdomain.Report, error) {
	return f.report, nil
}

func newTestRouter(svc *fakeInvoiceService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	srv := &Server{invoiceSvc: svc}
	router := gin.New()
	router.Use(RequestContextMiddleware())
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/invoices", srv.CreateInvoice)
	router.GET("/api/invoices/:id", srv.GetInvoiceByID)
	router.POST("/api/invoices/:id/status", srv.UpdateInvoiceStatus)
	router.GET("/api/ledger/verify", srv.VerifyLedger)
	return router
}

func TestCreateInvoicePropagatesActor(t *testing.T) {
	svc := &fakeInvoiceService{invoice: invoicedomain.Invoice{ID: snowflake.ID(7)}}
	router := newTestRouter(svc)

	body := `{"customerId":"42","lines":[{"description":"Trabajo","quantity":1,"unitPrice":100,"vatRate":21}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/invoices", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", "maria")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "maria", svc.lastActor)
	assert.NotEmpty(t, resp.Header().Get("X-Request-Id"))
}

func TestCreateInvoiceRejectsBadCustomerID(t *testing.T) {
	router := newTestRouter(&fakeInvoiceService{})

	req := httptest.NewRequest(http.MethodPost, "/api/invoices", bytes.NewBufferString(`{"customerId":"not-a-number"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)

	var payload errorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Equal(t, "validation_error", payload.Error.Type)
}

func TestCreateInvoiceMapsValidationError(t *testing.T) {
	svc := &fakeInvoiceService{createErr: invoicedomain.ErrNoLines}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/invoices", bytes.NewBufferString(`{"customerId":"42"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateStatusMapsTransitionConflict(t *testing.T) {
	svc := &fakeInvoiceService{statusErr: invoicedomain.ErrInvalidTransition}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/invoices/7/status", bytes.NewBufferString(`{"status":"issued"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusConflict, resp.Code)

	var payload errorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Equal(t, "conflict", payload.Error.Type)
}

func TestGetInvoiceMapsNotFound(t *testing.T) {
	svc := &fakeInvoiceService{invoice: invoicedomain.Invoice{ID: snowflake.ID(7)}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/invoices/8", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestVerifyLedgerReturnsReport(t *testing.T) {
	svc := &fakeInvoiceService{report: sifdomain.Report{Valid: true, Checked: 3}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/ledger/verify", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var payload struct {
		Data sifdomain.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.True(t, payload.Data.Valid)
	assert.Equal(t, 3, payload.Data.Checked)
}
