package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/supplychain-backend/api/controllers"
	"github.com/angelmondragon/supplychain-backend/api/routes"
	"github.com/angelmondragon/supplychain-backend/internal/movementlogs"
	"github.com/angelmondragon/supplychain-backend/internal/orders"
	"github.com/angelmondragon/supplychain-backend/internal/payments"
	product "github.com/angelmondragon/supplychain-backend/internal/products"
	"github.com/angelmondragon/supplychain-backend/internal/reporting"
	"github.com/angelmondragon/supplychain-backend/internal/requests"
	"github.com/angelmondragon/supplychain-backend/internal/stock"
	"github.com/angelmondragon/supplychain-backend/internal/users"
	"github.com/angelmondragon/supplychain-backend/pkg/config"
	"github.com/angelmondragon/supplychain-backend/pkg/db"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
	"github.com/angelmondragon/supplychain-backend/pkg/metrics"
	"github.com/angelmondragon/supplychain-backend/pkg/migrate"
	"github.com/angelmondragon/supplychain-backend/pkg/redis"
	"github.com/angelmondragon/supplychain-backend/pkg/stripe"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	readiness := map[string]controllers.Pinger{"db": dbClient, "redis": nil}
	deps := routes.Deps{Readiness: readiness}

	// Redis is optional: without it charges rely on the row lock and
	// idempotency replay is off.
	var chargeLocks *redis.Client
	if cfg.Redis.Enabled() {
		var redisClient *redis.Client
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		readiness["redis"] = redisClient
		deps.Idempotency = redisClient
		chargeLocks = redisClient
	} else {
		logg.Warn(ctx, "redis disabled; idempotency replay and charge locks are off")
	}

	gateway, err := stripe.NewGateway(ctx, cfg.Stripe, logg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Registry = reg
	deps.Metrics = metrics.NewWorkflowMetrics(reg)

	services, err := buildServices(dbClient, chargeLocks, payments.NewStripeGateway(gateway), logg, deps.Metrics)
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"addr":   addr,
		"stripe": gateway.Environment(),
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildServices(dbClient *db.Client, locks *redis.Client, gateway payments.Gateway, logg *logger.Logger, m *metrics.WorkflowMetrics) (routes.Services, error) {
	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	productRepo := product.NewRepository(conn)

	var svc routes.Services
	var errs error
	var err error

	svc.Users, err = users.NewService(userRepo)
	errs = multierr.Append(errs, err)
	svc.Products, err = product.NewService(productRepo, logg)
	errs = multierr.Append(errs, err)

	logs, err := movementlogs.NewService(movementlogs.NewRepository(conn))
	errs = multierr.Append(errs, err)
	svc.MovementLogs = logs

	svc.Stock, err = stock.NewService(stock.NewRepository(conn), logs, dbClient, logg, m)
	errs = multierr.Append(errs, err)
	svc.Requests, err = requests.NewService(requests.NewRepository(conn), productRepo, userRepo, dbClient, logg, m)
	errs = multierr.Append(errs, err)
	svc.Orders, err = orders.NewService(orders.NewRepository(conn), userRepo, dbClient, svc.Stock, logg, m)
	errs = multierr.Append(errs, err)

	if locks != nil {
		svc.Payments, err = payments.NewService(payments.NewRepository(conn), userRepo, gateway, dbClient, locks, logg, m)
	} else {
		svc.Payments, err = payments.NewService(payments.NewRepository(conn), userRepo, gateway, dbClient, nil, logg, m)
	}
	errs = multierr.Append(errs, err)

	svc.Reporting, err = reporting.NewService(reporting.NewRepository(conn), logg)
	errs = multierr.Append(errs, err)

	return svc, errs
}
