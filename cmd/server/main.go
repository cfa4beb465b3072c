package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Skotchmaster/online_school/internal/audit"
	"github.com/Skotchmaster/online_school/internal/gateway"
	"github.com/Skotchmaster/online_school/internal/httpserver"
	"github.com/Skotchmaster/online_school/internal/lock"
	"github.com/Skotchmaster/online_school/internal/repo"
	"github.com/Skotchmaster/online_school/internal/service"
	"github.com/Skotchmaster/online_school/pkg/authclient"
	"github.com/Skotchmaster/online_school/pkg/config"
	pkgdb "github.com/Skotchmaster/online_school/pkg/db"
	"github.com/Skotchmaster/online_school/pkg/events"
	"github.com/Skotchmaster/online_school/pkg/logging"
	authmw "github.com/Skotchmaster/online_school/pkg/middleware/auth"
	"github.com/Skotchmaster/online_school/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/online_school/pkg/middleware/logging"
)

func openDB(ctx context.Context, dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "file:") || strings.HasSuffix(dsn, ".db") {
		return pkgdb.OpenSQLite(dsn)
	}
	return pkgdb.Open(ctx, dsn)
}

func main() {
	config.LoadDotEnv(".env")
	cfg := config.Load()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.Gateway.SecretKey, "KAKAOPAY_SECRET_KEY")
	config.MustNonEmpty(cfg.Gateway.CallbackBaseURL, "PAYMENT_CALLBACK_BASE_URL")
	config.MustPositive(cfg.Payment.Ceiling, "PAYMENT_CEILING")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := openDB(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	store := repo.New(db)
	if err := store.Migrate(context.Background()); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers)
		defer kp.Close()
		publisher = kp
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var locker service.Locker = lock.NewLocal()
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		locker = lock.NewRedis(rdb)
	}

	var indexer service.ReceiptIndexer = audit.Nop{}
	var searcher service.ReceiptSearcher
	if cfg.ElasticURL != "" {
		esCtx, esCancel := context.WithTimeout(context.Background(), 10*time.Second)
		esClient, err := audit.NewClient(esCtx, audit.Config{
			URL:      cfg.ElasticURL,
			User:     cfg.ElasticUser,
			Password: cfg.ElasticPassword,
		})
		if err != nil {
			esCancel()
			log.Fatalf("elasticsearch: %v", err)
		}
		idx := audit.NewReceiptIndex(esClient, cfg.ReceiptIndex)
		if err := idx.EnsureIndex(esCtx); err != nil {
			esCancel()
			log.Fatalf("elasticsearch index: %v", err)
		}
		esCancel()
		indexer, searcher = idx, idx
	}

	policy := service.Policy{
		Ceiling:      cfg.Payment.Ceiling,
		ItemLifetime: time.Duration(cfg.Payment.ItemLifetimeDays) * 24 * time.Hour,
		RefundWindow: time.Duration(cfg.Payment.RefundWindowDays) * 24 * time.Hour,
	}

	cartSvc := &service.CartService{Repo: store, Events: publisher, Ceiling: policy.Ceiling}
	orderSvc := &service.OrderService{Repo: store, Carts: store, Events: publisher, Ceiling: policy.Ceiling}
	paymentSvc := &service.PaymentService{
		Repo: store,
		Gateway: gateway.New(gateway.Config{
			BaseURL:         cfg.Gateway.BaseURL,
			SecretKey:       cfg.Gateway.SecretKey,
			MerchantID:      cfg.Gateway.MerchantID,
			CallbackBaseURL: cfg.Gateway.CallbackBaseURL,
			Timeout:         cfg.Gateway.Timeout,
		}),
		Locker:   locker,
		Events:   publisher,
		Receipts: indexer,
		Policy:   policy,
	}
	receiptSvc := &service.ReceiptService{Repo: store, Search: searcher}
	billingSvc := &service.BillingService{Repo: store}

	var refresher authmw.Refresher
	if cfg.AuthHTTPURL != "" {
		refresher = authclient.NewClient(cfg.AuthHTTPURL)
	}

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = cfg.CSRFSecureCookie
	csrfCfg.SkipPrefixes = []string{"/health"}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(csrf.Middleware(csrfCfg))

	httpserver.Register(e, &httpserver.Deps{
		CartHandler:    &httpserver.CartHTTP{Svc: cartSvc},
		OrderHandler:   &httpserver.OrderHTTP{Svc: orderSvc},
		PaymentHandler: &httpserver.PaymentHTTP{Svc: paymentSvc, Carts: cartSvc},
		ReceiptHandler: &httpserver.ReceiptHTTP{Svc: receiptSvc},
		BillingHandler: &httpserver.BillingHTTP{Svc: billingSvc},
		JWTSecret:      cfg.JWTAccessSecret,
		AuthClient:     refresher,
		Ready: func(ctx context.Context) error {
			if err := store.Ping(ctx); err != nil {
				return err
			}
			if rdb != nil {
				return rdb.Ping(ctx).Err()
			}
			return nil
		},
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("server_stopped")
}
