package settings

import (
	"github.com/facturapro/facturapro/internal/settings/repository"
	"github.com/facturapro/facturapro/internal/settings/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settings.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
