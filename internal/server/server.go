package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/scanprice/internal/assistant"
	"github.com/smallbiznis/scanprice/internal/catalog"
	"github.com/smallbiznis/scanprice/internal/config"
	"github.com/smallbiznis/scanprice/internal/importer"
	"github.com/smallbiznis/scanprice/internal/notification"
	notificationdomain "github.com/smallbiznis/scanprice/internal/notification/domain"
	"github.com/smallbiznis/scanprice/internal/notification/liveevents"
	"github.com/smallbiznis/scanprice/internal/observability"
	obsmiddleware "github.com/smallbiznis/scanprice/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/scanprice/internal/observability/metrics"
	obstracing "github.com/smallbiznis/scanprice/internal/observability/tracing"
	"github.com/smallbiznis/scanprice/internal/pos"
	"github.com/smallbiznis/scanprice/internal/product"
	productdomain "github.com/smallbiznis/scanprice/internal/product/domain"
	"github.com/smallbiznis/scanprice/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	product.Module,
	notification.Module,
	importer.Module,
	pos.Module,
	catalog.Module,
	assistant.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	engine           *gin.Engine
	cfg              config.Config
	productSvc       productdomain.Service
	notificationSvc  notificationdomain.Service
	liveEvents       *liveevents.Hub
	importSvc        *importer.Service
	posSvc           *pos.Service
	catalogSvc       *catalog.Service
	assistantTasks   *assistant.Tasks
	assistantLimiter *ratelimit.AssistantLimiter
}

type ServerParams struct {
	fx.In

	Gin              *gin.Engine
	Cfg              config.Config
	ProductSvc       productdomain.Service
	NotificationSvc  notificationdomain.Service
	LiveEvents       *liveevents.Hub `optional:"true"`
	ImportSvc        *importer.Service
	PosSvc           *pos.Service
	CatalogSvc       *catalog.Service
	AssistantTasks   *assistant.Tasks
	AssistantLimiter *ratelimit.AssistantLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:           p.Gin,
		cfg:              p.Cfg,
		productSvc:       p.ProductSvc,
		notificationSvc:  p.NotificationSvc,
		liveEvents:       p.LiveEvents,
		importSvc:        p.ImportSvc,
		posSvc:           p.PosSvc,
		catalogSvc:       p.CatalogSvc,
		assistantTasks:   p.AssistantTasks,
		assistantLimiter: p.AssistantLimiter,
	}

	svc.registerAPIRoutes()
	svc.registerPublicRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Products --------
	api.GET("/products", s.ListProducts)
	api.POST("/products", s.CreateProduct)
	api.POST("/products/scans", s.BulkScanProducts)
	api.POST("/products/batch", s.BatchUpsertProducts)
	api.POST("/products/refresh", s.RefreshProducts)
	api.GET("/products/:id", s.GetProductByID)
	api.PUT("/products/:id", s.UpdateProduct)
	api.DELETE("/products/:id", s.DeleteProduct)
	api.POST("/products/:id/scan", s.ScanProduct)
	api.POST("/products/:id/decrement", s.DecrementProductStock)
	api.GET("/products/:id/qr.png", s.GetProductQRCode)
	api.POST("/sales", s.RecordSales)
	api.GET("/dashboard", s.GetDashboard)

	// -------- Notifications --------
	api.GET("/notifications", s.ListNotifications)
	api.GET("/notifications/stream", s.StreamNotifications)
	api.DELETE("/notifications/:id", s.DismissNotification)

	// -------- Import --------
	api.POST("/import/products", s.ImportProducts)
	api.POST("/import/sales", s.ImportSales)

	// -------- Point of sale --------
	api.POST("/pos/carts", s.CreateCart)
	api.GET("/pos/carts/:id", s.GetCart)
	api.POST("/pos/carts/:id/items", s.AddCartItem)
	api.DELETE("/pos/carts/:id/items/:productId", s.RemoveCartItem)
	api.POST("/pos/carts/:id/checkout", s.CheckoutCart)

	// -------- Catalog --------
	api.GET("/catalog/qr.zip", s.DownloadQRArchive)
	api.GET("/catalog/labels.pdf", s.DownloadLabels)

	// -------- Assistant --------
	api.POST("/assistant/descriptions", s.AssistantRateLimit(), s.GenerateDescription)
	api.POST("/assistant/videos", s.AssistantRateLimit(), s.GenerateVideo)
	api.GET("/assistant/tasks/:id", s.GetAssistantTask)
	api.GET("/assistant/subjects/:subject/latest", s.GetLatestAssistantTask)
}

func (s *Server) registerPublicRoutes() {
	public := s.engine.Group("/public")

	public.GET("/products/:id", s.GetPublicProduct)
}
