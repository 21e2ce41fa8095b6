package export

import (
	"github.com/facturapro/facturapro/internal/export/repository"
	"github.com/facturapro/facturapro/internal/export/service"
	"go.uber.org/fx"
)

var Module = fx.Module("export.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
