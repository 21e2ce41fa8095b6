package product

import (
	"github.com/facturapro/facturapro/internal/product/repository"
	"github.com/facturapro/facturapro/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
