package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"toolrental/cmd/server/docs"
	"toolrental/internal/api"
	"toolrental/internal/api/services"
	"toolrental/internal/api/ws"
	"toolrental/internal/config"
	"toolrental/internal/events"
	"toolrental/internal/logger"
	"toolrental/internal/metrics"
	"toolrental/internal/redis"
	"toolrental/internal/repository"
	"toolrental/internal/scheduler"
	"toolrental/internal/telemetry"
	"toolrental/internal/worker"
)

// @title Tool Rental API
// @version 1.0
// @description Peer-to-peer tool rental marketplace API

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description JWT token. Example: Bearer eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...

func main() {
	configPath := flag.String("config", "", "optional YAML config file overlaid on the environment")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded, relying on environment")
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	db, err := repository.New(cfg)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := redis.New(cfg)
	if err := redis.Ping(ctx, rdb); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		amqpPublisher := events.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		defer amqpPublisher.Close()
		publisher = amqpPublisher

		go worker.NewRentalEventWorker(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, rdb).Start(ctx)
	} else {
		logger.Warn("RABBITMQ_URL is empty, rental events are not published")
	}

	docs.SwaggerInfo.Host = cfg.HTTPAddr
	if cfg.IsProduction() {
		docs.SwaggerInfo.Schemes = []string{"https"}
	} else {
		docs.SwaggerInfo.Schemes = []string{"http"}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(otelecho.Middleware(cfg.Telemetry.ServiceName))
	e.Use(requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(metrics.PrometheusMiddleware())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api.SetupRoutes(e, db.DB(), rdb, cfg, publisher, ws.GetHub())

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	go func() {
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(services.NewRentalService(db.DB(), rdb, publisher))
		if err := sched.Register(cfg.Scheduler.OverdueCheck); err != nil {
			logger.Error("failed to register scheduled jobs", "error", err)
			os.Exit(1)
		}
		sched.Start()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("tracer shutdown failed", "error", err)
	}
}

func requestLogger() echo.MiddlewareFunc {
	reqLog := logger.WithComponent("http")
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			reqLog.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			)
			return nil
		},
	})
}
