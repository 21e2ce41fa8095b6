package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateProductRequest) (Product, error)
	Get(ctx context.Context, id snowflake.ID) (Product, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateProductRequest) (Product, error)
	Delete(ctx context.Context, id snowflake.ID) error
	List(ctx context.Context, req ListProductRequest) (ListProductResponse, error)
}
