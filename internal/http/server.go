package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jmehdipour/sms-panel/internal/config"
	"github.com/jmehdipour/sms-panel/internal/http/middleware"
	"github.com/jmehdipour/sms-panel/internal/logger"
	"github.com/jmehdipour/sms-panel/internal/repository"
	"github.com/jmehdipour/sms-panel/internal/service/accounts"
	"github.com/jmehdipour/sms-panel/internal/service/campaign"
	"github.com/jmehdipour/sms-panel/internal/service/queue"
	"github.com/jmehdipour/sms-panel/internal/service/stats"
	echo "github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var errNoAnalytics = errors.New("clickhouse analytics not configured")

// Deps are the collaborators the API is built from. Queue, CHUsage, Redis
// and Gatherer are optional.
type Deps struct {
	Config   config.Config
	Accounts *accounts.Service
	Engine   *campaign.Engine
	Stats    *stats.Service
	Queue    *queue.Service
	CHUsage  repository.CHUsageRepository
	Redis    *redis.Client
	Log      *zap.Logger
	Gatherer prometheus.Gatherer
}

type Server struct {
	e   *echo.Echo
	log *zap.Logger
}

func NewServer(d Deps) *Server {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	cfg := d.Config

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(logger.EchoLevel(cfg.Log.Level))

	e.Use(echoMid.Recover())
	e.Use(echoMid.RequestLoggerWithConfig(echoMid.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echoMid.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			d.Log.Info("http request", fields...)
			return nil
		},
	}))
	if cfg.HTTP.MaxUploadMB > 0 {
		e.Use(echoMid.BodyLimit(formatMB(cfg.HTTP.MaxUploadMB)))
	}

	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	e.POST("/v1/login", loginHandler(d.Accounts))

	// middlewares
	authMW := middleware.APIKeyMiddleware(d.Accounts)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          d.Redis,
		RPS:            cfg.RateLimit.RPS,
		KeyPrefix:      "rl:acct:",
		Window:         time.Second,
		RetryAfterHint: true,
	})
	admin := middleware.RequireAdmin

	// routes
	v1 := e.Group("/v1", authMW, rlMW)
	v1.GET("/me", meHandler(d.Accounts))
	v1.POST("/sms/send", sendSMSHandler(d.Engine))

	v1.GET("/stats/dashboard", dashboardStatsHandler(d.Stats))
	v1.GET("/stats/users", userStatsHandler(d.Stats), admin)
	v1.GET("/stats/sms", smsSeriesHandler(d.Stats))
	v1.GET("/reports/usage", usageReportHandler(d.CHUsage))

	acc := v1.Group("/accounts", admin)
	acc.GET("", listAccountsHandler(d.Accounts))
	acc.POST("", createAccountHandler(d.Accounts))
	acc.PUT("/:id", updateAccountHandler(d.Accounts))
	acc.DELETE("/:id", deleteAccountHandler(d.Accounts))
	acc.PATCH("/:id/status", accountStatusHandler(d.Accounts))
	acc.POST("/:id/credits", addCreditsHandler(d.Accounts))

	ch := &campaignHandlers{
		engine:    d.Engine,
		queue:     d.Queue,
		uploadDir: cfg.HTTP.UploadDir,
		mediaDir:  cfg.HTTP.MediaDir,
	}
	cg := v1.Group("/campaigns")
	cg.POST("", ch.create)
	cg.GET("", ch.list)
	cg.GET("/:id", ch.get)
	cg.POST("/:id/contacts", ch.addContacts)
	cg.POST("/:id/dispatch", ch.dispatch)
	cg.PATCH("/:id/status", ch.updateStatus)
	cg.DELETE("/:id", ch.remove)
	cg.GET("/:id/report", ch.report)
	cg.GET("/:id/report/export", ch.exportReport)

	ct := &contactsHandlers{engine: d.Engine}
	cc := v1.Group("/contacts", admin)
	cc.GET("", ct.list)
	cc.GET("/export", ct.export)

	return &Server{e: e, log: d.Log}
}

func formatMB(mb int64) string { return strconv.FormatInt(mb, 10) + "M" }

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	s.log.Info("http: listening", zap.String("addr", addr))
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
