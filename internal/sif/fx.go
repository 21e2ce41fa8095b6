package sif

import (
	"github.com/facturapro/facturapro/internal/sif/service"
	"go.uber.org/fx"
)

var Module = fx.Module("sif.service",
	fx.Provide(service.NewService),
)
