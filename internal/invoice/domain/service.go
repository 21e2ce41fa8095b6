package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"

	sifdomain "github.com/facturapro/facturapro/internal/sif/domain"
)

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	Get(ctx context.Context, id snowflake.ID) (Invoice, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateInvoiceRequest) (Invoice, error)
	UpdateStatus(ctx context.Context, id snowflake.ID, status string) (Invoice, error)
	Rectify(ctx context.Context, id snowflake.ID, req RectifyInvoiceRequest) (Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	// ListChain returns every invoice in chain order for verification
	// and export.
	ListChain(ctx context.Context) ([]Invoice, error)
	VerifyLedger(ctx context.Context) (sifdomain.Report, error)
}
