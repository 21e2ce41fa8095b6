package invoice

import (
	"github.com/facturapro/facturapro/internal/invoice/repository"
	"github.com/facturapro/facturapro/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
