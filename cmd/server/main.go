package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appaccounting "github.com/erp/ledger/internal/application/accounting"
	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/interfaces/http/handler"
	"github.com/erp/ledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("starting ledger service",
		zap.String("name", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 0)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()
	log.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("dbname", cfg.Database.DBName),
	)

	// Rule cache: redis when enabled, in-process TTL map otherwise
	var ruleCache accounting.RuleCache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		ruleCache = cache.NewRedisRuleCache(redisClient, cfg.Posting.RuleCacheTTL, log)
		log.Info("redis rule cache enabled", zap.String("addr", cfg.Redis.Addr()))
	} else {
		ruleCache = cache.NewInMemoryRuleCache(cfg.Posting.RuleCacheTTL)
	}

	// Repositories
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	ruleRepo := persistence.NewGormAccountingRuleRepository(db.DB)
	entryRepo := persistence.NewGormJournalEntryRepository(db.DB)
	postingRepo := persistence.NewGormBalancePostingRepository(db.DB)
	movementRepo := persistence.NewGormInventoryTransactionRepository(db.DB)
	txm := persistence.NewGormTransactionManager(db.DB)

	// Domain services
	registry := accounting.NewChartOfAccountsRegistry(accountRepo, postingRepo, cfg.Posting.MaxHierarchyDepth)
	resolver := accounting.NewAccountingRuleResolver(ruleRepo, ruleCache, accounting.RulePrecedence(cfg.Posting.RulePrecedence))
	composer := accounting.NewJournalEntryComposer(registry, resolver)
	poster := accounting.NewLedgerPoster(txm, registry, entryRepo, accountRepo, cfg.Posting.MaxRetries, cfg.Posting.RetryBackoff)

	// Application services
	recorder := appaccounting.NewInventoryTransactionRecorder(txm, composer, poster, movementRepo, log)
	ledgerService := appaccounting.NewLedgerService(registry, poster, entryRepo, log)

	// HTTP boundary
	ledgerHandler := handler.NewLedgerHandler(recorder, ledgerService)
	systemHandler := handler.NewSystemHandler(db)
	engine := router.New(log, ledgerHandler, systemHandler).Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}
