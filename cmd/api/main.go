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
	"github.com/shopspring/decimal"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/api/controllers"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/api/routes"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/eventlog"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/ledger"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/notifications"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/orders"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/reconcile"
	paystackwebhook "github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/webhooks/paystack"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/config"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/db"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/logger"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/metrics"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/migrate"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/paystack"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/pubsub"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/redis"
)

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	paystackClient, err := paystack.NewClient(context.Background(), cfg.Paystack, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap paystack client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reconcileMetrics := metrics.NewReconcileMetrics(registry)

	ledgerRepo := ledger.NewRepository(dbClient.DB())

	ledgerService, err := ledger.NewService(ledgerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	eventLogService, err := eventlog.NewService(eventlog.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create event log service", err)
		os.Exit(1)
	}

	publisher, err := notifications.NewPublisher(pubsubClient.NotificationPublisher())
	if err != nil {
		logg.Error(context.Background(), "failed to create notification publisher", err)
		os.Exit(1)
	}
	notifier, err := notifications.NewNotifier(publisher, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifier", err)
		os.Exit(1)
	}
	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	defaultCommission, err := decimal.NewFromString(cfg.Commission.DefaultRate)
	if err != nil {
		logg.Error(context.Background(), "invalid default commission rate", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()), ledgerRepo, defaultCommission)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	engine, err := reconcile.NewEngine(ledgerRepo, notifier, logg, reconcileMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile engine", err)
		os.Exit(1)
	}

	guard, err := reconcile.NewGuard(redisClient, cfg.Reconcile.GuardTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create replay guard", err)
		os.Exit(1)
	}

	dispatcher, err := reconcile.NewDispatcher(engine, notifier, reconcile.DispatcherOptions{
		QueueSize:    cfg.Reconcile.QueueSize,
		Workers:      cfg.Reconcile.Workers,
		DrainTimeout: cfg.Reconcile.DrainTimeout,
	}, logg, reconcileMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile dispatcher", err)
		os.Exit(1)
	}
	dispatcher.Start(context.Background())

	verifyService, err := reconcile.NewVerifyService(paystackClient, engine, eventLogService, ledgerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create verify service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.RouterParams{
		Config: cfg,
		Logger: logg,
		Health: controllers.HealthDeps{
			DB:       dbClient,
			Redis:    redisClient,
			PubSub:   pubsubClient,
			Provider: paystackClient,
		},
		Verifier:      paystackwebhook.NewVerifier(cfg.Paystack.SigningSecret()),
		Guard:         guard,
		Dispatcher:    dispatcher,
		VerifySvc:     verifyService,
		EventLog:      eventLogService,
		Ledger:        ledgerService,
		Orders:        ordersService,
		Notifications: notificationsService,
		Alerts:        notifier,
		Metrics:       registry,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "server shutdown failed", err)
		}
		// drain queued reconciliations before the process exits
		dispatcher.Stop()
	}
}
