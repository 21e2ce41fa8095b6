package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/facturapro/facturapro/internal/audit"
	auditdomain "github.com/facturapro/facturapro/internal/audit/domain"
	"github.com/facturapro/facturapro/internal/config"
	"github.com/facturapro/facturapro/internal/customer"
	customerdomain "github.com/facturapro/facturapro/internal/customer/domain"
	"github.com/facturapro/facturapro/internal/export"
	exportdomain "github.com/facturapro/facturapro/internal/export/domain"
	"github.com/facturapro/facturapro/internal/invoice"
	invoicedomain "github.com/facturapro/facturapro/internal/invoice/domain"
	"github.com/facturapro/facturapro/internal/metrics"
	"github.com/facturapro/facturapro/internal/product"
	productdomain "github.com/facturapro/facturapro/internal/product/domain"
	"github.com/facturapro/facturapro/internal/quote"
	quotedomain "github.com/facturapro/facturapro/internal/quote/domain"
	"github.com/facturapro/facturapro/internal/settings"
	settingsdomain "github.com/facturapro/facturapro/internal/settings/domain"
	"github.com/facturapro/facturapro/internal/sif"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	config.Module,
	metrics.Module,
	fx.Provide(registerGin),
	audit.Module,
	sif.Module,
	settings.Module,
	customer.Module,
	product.Module,
	invoice.Module,
	quote.Module,
	export.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestContextMiddleware())
	r.Use(RequestLoggerMiddleware(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	invoiceSvc  invoicedomain.Service
	customerSvc customerdomain.Service
	productSvc  productdomain.Service
	quoteSvc    quotedomain.Service
	settingsSvc settingsdomain.Service
	exportSvc   exportdomain.Service
	auditSvc    auditdomain.Recorder
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	InvoiceSvc  invoicedomain.Service
	CustomerSvc customerdomain.Service
	ProductSvc  productdomain.Service
	QuoteSvc    quotedomain.Service
	SettingsSvc settingsdomain.Service
	ExportSvc   exportdomain.Service
	AuditSvc    auditdomain.Recorder
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		invoiceSvc:  p.InvoiceSvc,
		customerSvc: p.CustomerSvc,
		productSvc:  p.ProductSvc,
		quoteSvc:    p.QuoteSvc,
		settingsSvc: p.SettingsSvc,
		exportSvc:   p.ExportSvc,
		auditSvc:    p.AuditSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.PATCH("/invoices/:id", s.UpdateInvoice)
	api.POST("/invoices/:id/status", s.UpdateInvoiceStatus)
	api.POST("/invoices/:id/rectify", s.RectifyInvoice)

	// -------- Ledger --------
	api.GET("/ledger", s.ListLedger)
	api.GET("/ledger/verify", s.VerifyLedger)

	// -------- Customers --------
	api.GET("/customers", s.ListCustomers)
	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers/:id", s.GetCustomerByID)
	api.PUT("/customers/:id", s.UpdateCustomer)
	api.DELETE("/customers/:id", s.DeleteCustomer)

	// -------- Products --------
	api.GET("/products", s.ListProducts)
	api.POST("/products", s.CreateProduct)
	api.GET("/products/:id", s.GetProductByID)
	api.PUT("/products/:id", s.UpdateProduct)
	api.DELETE("/products/:id", s.DeleteProduct)

	// -------- Quotes --------
	api.GET("/quotes", s.ListQuotes)
	api.POST("/quotes", s.CreateQuote)
	api.GET("/quotes/:id", s.GetQuoteByID)
	api.PUT("/quotes/:id", s.UpdateQuote)
	api.DELETE("/quotes/:id", s.DeleteQuote)
	api.POST("/quotes/:id/status", s.UpdateQuoteStatus)
	api.POST("/quotes/:id/convert", s.ConvertQuote)

	// -------- Settings --------
	api.GET("/settings", s.GetSettings)
	api.PUT("/settings", s.UpdateSettings)

	// -------- Audit --------
	api.GET("/audit-logs", s.ListAuditLogs)

	// -------- Exports --------
	api.GET("/exports", s.ListExports)
	api.POST("/exports", s.BuildExport)
}

func parseID(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return 0, false
	}
	return id, true
}
