package customer

import (
	"github.com/facturapro/facturapro/internal/customer/repository"
	"github.com/facturapro/facturapro/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
