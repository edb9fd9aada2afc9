package server

import (
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"funnel-checkout/internal/config"
	"funnel-checkout/internal/handler"
	"funnel-checkout/internal/ledger"
	"funnel-checkout/internal/middleware"
	"funnel-checkout/internal/service"
)

type Server struct {
	echo            *echo.Echo
	cfg             *config.Config
	checkoutHandler *handler.CheckoutHandler
	adminHandler    *handler.AdminHandler
	debugHandler    *handler.DebugHandler
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	checkoutService service.CheckoutService,
	reconciler service.Reconciler,
	counters *ledger.CounterStore,
	purchases *ledger.PurchaseStore,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.Gzip())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	// Built frontend with SPA fallback; API and metrics bypass it.
	e.Use(echomw.StaticWithConfig(echomw.StaticConfig{
		Root:  cfg.StaticDir,
		HTML5: true,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return strings.HasPrefix(p, "/api") || p == "/metrics"
		},
	}))

	s := &Server{
		echo:            e,
		cfg:             cfg,
		checkoutHandler: handler.NewCheckoutHandler(checkoutService, reconciler, logger),
		adminHandler:    handler.NewAdminHandler(&cfg.Admin, counters, purchases, logger),
		debugHandler:    handler.NewDebugHandler(cfg),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- checkout flow --------
	api.POST("/create-transaction", s.checkoutHandler.CreateTransaction)
	api.POST("/check-status", s.checkoutHandler.CheckStatus)
	api.POST("/verify-purchase", s.checkoutHandler.VerifyPurchase)

	// -------- gateway callbacks --------
	api.POST("/ipaymu-webhook", s.checkoutHandler.Webhook)
	api.POST("/test-webhook", s.debugHandler.TestWebhook)

	// -------- admin / stats --------
	adminAuth := middleware.AdminAuth(s.cfg.Admin.Email, s.cfg.Admin.Password)
	api.POST("/auth", s.adminHandler.Auth)
	api.POST("/track-event", s.adminHandler.TrackEvent)
	api.GET("/get-stats", s.adminHandler.GetStats, adminAuth)
	api.GET("/get-purchases", s.adminHandler.GetPurchases, adminAuth)

	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
