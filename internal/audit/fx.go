package audit

import (
	"github.com/facturapro/facturapro/internal/audit/repository"
	"github.com/facturapro/facturapro/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
