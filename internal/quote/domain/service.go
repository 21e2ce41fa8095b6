package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"

	invoicedomain "github.com/facturapro/facturapro/internal/invoice/domain"
)

type Service interface {
	Create(ctx context.Context, req CreateQuoteRequest) (Quote, error)
	Get(ctx context.Context, id snowflake.ID) (Quote, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateQuoteRequest) (Quote, error)
	UpdateStatus(ctx context.Context, id snowflake.ID, status string) (Quote, error)
	Delete(ctx context.Context, id snowflake.ID) error
	List(ctx context.Context, req ListQuoteRequest) (ListQuoteResponse, error)
	// ConvertToInvoice issues a draft invoice from an accepted quote.
	ConvertToInvoice(ctx context.Context, id snowflake.ID) (invoicedomain.Invoice, error)
}
