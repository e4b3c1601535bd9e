package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	authsvc "github.com/xela07ax/erp-approval-engine/internal/auth"
	"github.com/xela07ax/erp-approval-engine/internal/audit"
	"github.com/xela07ax/erp-approval-engine/internal/handler"
	"github.com/xela07ax/erp-approval-engine/internal/infra"
	infraauth "github.com/xela07ax/erp-approval-engine/internal/infra/auth"
	"github.com/xela07ax/erp-approval-engine/internal/notify"
	"github.com/xela07ax/erp-approval-engine/internal/policy"
	"github.com/xela07ax/erp-approval-engine/internal/repository/postgres"
	"github.com/xela07ax/erp-approval-engine/internal/server"
	"github.com/xela07ax/erp-approval-engine/internal/workflow"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	// Контекст жизненного цикла фоновых горутин
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Инфраструктура: Postgres + Redis
	repo, err := postgres.NewRepo(appCtx, cfg.Database)
	if err != nil {
		logger.Fatal("postgres init failed", zap.Error(err))
	}
	defer repo.Close()

	pingCtx, pingCancel := context.WithTimeout(appCtx, 5*time.Second)
	if err := repo.Ping(pingCtx); err != nil {
		logger.Fatal("database unreachable", zap.Error(err))
	}
	pingCancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 3. Кэш политик: холодная загрузка + слушатель инвалидации
	memo := policy.NewMemoStore(repo, rdb, logger)
	if err := memo.Refresh(appCtx); err != nil {
		logger.Fatal("policy cache warmup failed", zap.Error(err))
	}
	go memo.StartListener(appCtx)

	// 4. Метрики
	reg := prometheus.NewRegistry()
	metrics := workflow.NewMetrics(reg)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		logger.Info("metrics listener started", zap.String("addr", cfg.Metrics.Addr))
		if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
			logger.Error("metrics listener failed", zap.Error(err))
		}
	}()

	// 5. Диспетчер уведомлений (fire-and-forget)
	senders := []notify.Sender{notify.NewRedisSender(rdb)}
	if cfg.Notify.WebhookURL != "" {
		senders = append(senders, notify.NewWebhookSender(cfg.Notify))
	}
	dispatcher := notify.NewDispatcher(
		notify.NewFanout(senders...),
		logger,
		cfg.Notify.BufferSize,
		metrics.NotifyBufferFill,
		metrics.NotifyFailures,
	)
	dispatcher.Start()

	// 6. Сборка ядра движка
	recorder := audit.NewRecorder(repo, logger)
	authority := workflow.NewAuthority(memo, logger)
	resolver := workflow.NewResolver(repo, logger)
	engine := workflow.NewEngine(memo, recorder, repo, resolver, authority, repo, dispatcher, metrics, logger)

	policyService := policy.NewService(repo, rdb, logger)

	// 7. Аутентификация: выпуск и проверка RS256 токенов
	publicKey, err := infraauth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		logger.Fatal("public key load failed", zap.Error(err))
	}
	privateKey, err := infraauth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		logger.Fatal("private key load failed", zap.Error(err))
	}
	validator := infraauth.NewBaseValidator(publicKey)
	authService := authsvc.NewService(repo, privateKey, cfg.Auth.TokenTTL)

	// 8. HTTP-поверхность
	srvHandler := server.NewServer(
		cfg,
		logger,
		validator,
		handler.NewAuthHandler(authService),
		handler.NewApprovalHandler(engine),
		handler.NewPolicyHandler(policyService),
	)

	srv := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      srvHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("approval engine started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop // Ждем сигнал
	logger.Info("approval engine stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	// Диспетчер дочитывает буфер уведомлений до конца (Drain Pattern)
	dispatcher.Stop()
	logger.Info("approval engine exited properly")
}
