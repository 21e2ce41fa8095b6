package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateCustomerRequest) (Customer, error)
	Get(ctx context.Context, id snowflake.ID) (Customer, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateCustomerRequest) (Customer, error)
	Delete(ctx context.Context, id snowflake.ID) error
	List(ctx context.Context, req ListCustomerRequest) (ListCustomerResponse, error)
}
