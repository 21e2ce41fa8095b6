package migration

import (
	auditdomain "github.com/facturapro/facturapro/internal/audit/domain"
	"github.com/facturapro/facturapro/internal/config"
	customerdomain "github.com/facturapro/facturapro/internal/customer/domain"
	exportdomain "github.com/facturapro/facturapro/internal/export/domain"
	invoicedomain "github.com/facturapro/facturapro/internal/invoice/domain"
	productdomain "github.com/facturapro/facturapro/internal/product/domain"
	quotedomain "github.com/facturapro/facturapro/internal/quote/domain"
	settingsdomain "github.com/facturapro/facturapro/internal/settings/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		return conn.AutoMigrate(
			&settingsdomain.Settings{},
			&customerdomain.Customer{},
			&productdomain.Product{},
			&invoicedomain.Invoice{},
			&quotedomain.Quote{},
			&auditdomain.Entry{},
			&exportdomain.LogEntry{},
		)
	}),
)
