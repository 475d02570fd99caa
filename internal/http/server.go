package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/commentera/commentera-api/internal/config"
	"github.com/commentera/commentera-api/internal/http/middleware"
	"github.com/commentera/commentera-api/internal/metrics"
	"github.com/commentera/commentera-api/internal/registry"
	"github.com/commentera/commentera-api/internal/repository"
	"github.com/commentera/commentera-api/internal/service/badge"
	"github.com/commentera/commentera-api/internal/token"
)

type Server struct{ e *echo.Echo }

func NewServer(cfg config.Config, mysqlDB, clickhouseDB *sqlx.DB, rds *redis.Client, reg *registry.Registry) *Server {
	// repos (MySQL)
	usersRepo := repository.NewUsersRepository(mysqlDB)
	badgesRepo := repository.NewBadgesRepository(mysqlDB)
	outboxRepo := repository.NewOutboxRepository(mysqlDB)

	// repos (ClickHouse)
	eventsRepo := repository.NewEventsRepository(clickhouseDB)

	// services
	tokenSvc := token.NewService(reg, cfg.Auth.SecretKey, cfg.Auth.TokenTTL)
	badgeSvc := badge.NewService(mysqlDB, reg, usersRepo, badgesRepo, outboxRepo)

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// token issuance is the one unauthenticated domain endpoint
	e.POST("/generate_token", generateTokenHandler(tokenSvc))

	// middlewares
	authMW := middleware.BearerMiddleware(tokenSvc)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          rds,
		RPS:            cfg.RateLimit.RPS,
		KeyPrefix:      "rl:cust:",
		Window:         time.Second,
		RetryAfterHint: true,
	})

	// routes
	users := e.Group("/users", authMW, rlMW)
	users.POST("/:user_id/badges/", addBadgesHandler(badgeSvc))
	users.PATCH("/:user_id/badges/", replaceBadgesHandler(badgeSvc))
	users.DELETE("/:user_id/badges/", removeBadgesHandler(badgeSvc))
	users.GET("/by_customer/", listUsersHandler(usersRepo))

	reports := e.Group("/reports", authMW, rlMW)
	reports.GET("/badge_events", listBadgeEventsHandler(eventsRepo))

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	log.Printf("http: listening on %s", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }

// Echo exposes the underlying router, for tests.
func (s *Server) Echo() *echo.Echo { return s.e }
