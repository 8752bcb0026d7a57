package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/account-model/config"
	"github.com/ErlanBelekov/account-model/internal/billing"
	"github.com/ErlanBelekov/account-model/internal/domain"
	"github.com/ErlanBelekov/account-model/internal/email"
	"github.com/ErlanBelekov/account-model/internal/health"
	"github.com/ErlanBelekov/account-model/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/account-model/internal/log"
	"github.com/ErlanBelekov/account-model/internal/metrics"
	"github.com/ErlanBelekov/account-model/internal/pkg/distlock"
	"github.com/ErlanBelekov/account-model/internal/sms"
	httptransport "github.com/ErlanBelekov/account-model/internal/transport/http"
	"github.com/ErlanBelekov/account-model/internal/transport/http/handler"
	"github.com/ErlanBelekov/account-model/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const userLockTTL = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := ctxlog.New(os.Stdout, cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		stop()
		log.Fatalf("migrate: %v", err)
	}

	deps := map[string]health.Pinger{"postgres": pool}

	// Per-user locking is optional; the repository's version check still
	// rejects lost updates without it.
	var locker usecase.Locker
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			stop()
			log.Fatalf("redis url: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		locker = distlock.NewLocker(rdb, "accounts:user-lock:", userLockTTL)
		deps["redis"] = health.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	// Transports
	mail, err := email.NewSender(ctx, email.Options{
		Provider:     cfg.MailProvider,
		From:         cfg.MailFrom,
		Subject:      cfg.MailSubject,
		ResendAPIKey: cfg.ResendAPIKey,
		AWSRegion:    cfg.AWSRegion,
		AWSAccessKey: cfg.AWSAccessKeyID,
		AWSSecretKey: cfg.AWSSecretAccessKey,
	}, logger)
	if err != nil {
		stop()
		log.Fatalf("mail: %v", err)
	}
	transports := domain.Transports{
		SMS:  sms.NewSender(cfg.SMSBaseURL, cfg.SMSAccountSID, cfg.SMSAuthToken, cfg.SMSFrom, logger),
		Mail: mail,
	}

	// Gateways
	gateways := newGateways(ctx, cfg, logger)

	userRepo := postgres.NewUserRepository(pool)
	accountUsecase := usecase.NewAccountUsecase(userRepo, locker, transports, gateways, cfg.DefaultCurrency, logger)
	verificationUsecase := usecase.NewVerificationUsecase(
		accountUsecase,
		postgres.NewVerificationRepository(pool),
		mail,
		cfg.VerifyURL,
		cfg.VerifyTokenTTL,
		logger,
	)
	accountHandler := handler.NewAccountHandler(accountUsecase, verificationUsecase, logger)

	metrics.Register()
	checker := health.NewChecker(deps, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httptransport.NewRouter(logger, accountHandler, []byte(cfg.JWTSecret)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

// newGateways builds the charge gateways that have credentials. In local runs
// a missing gateway falls back to the log charger; elsewhere it stays nil and
// charges for that method fail with domain.ErrGatewayUnavailable.
func newGateways(ctx context.Context, cfg *config.Config, logger *slog.Logger) domain.Gateways {
	var gw domain.Gateways
	fake := billing.NewLogCharger(logger)

	switch {
	case cfg.PayPalClientID != "":
		gw.PayPal = billing.NewPayPalCharger(ctx, cfg.PayPalBaseURL, cfg.PayPalClientID, cfg.PayPalClientSecret)
	case cfg.Env == "local":
		gw.PayPal = fake
	}

	switch {
	case cfg.StripeSecretKey != "":
		gw.Stripe = billing.NewStripeCharger(cfg.StripeSecretKey)
	case cfg.Env == "local":
		gw.Stripe = fake
	}

	return gw
}
