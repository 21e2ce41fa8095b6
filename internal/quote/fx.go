package quote

import (
	"github.com/facturapro/facturapro/internal/quote/repository"
	"github.com/facturapro/facturapro/internal/quote/service"
	"go.uber.org/fx"
)

var Module = fx.Module("quote.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
