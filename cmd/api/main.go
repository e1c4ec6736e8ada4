package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/xavierca1/tork-crm/internal/infra/config"
	"github.com/xavierca1/tork-crm/internal/infra/database"
	"github.com/xavierca1/tork-crm/internal/infra/dedup"
	"github.com/xavierca1/tork-crm/internal/infra/http/handlers"
	appmw "github.com/xavierca1/tork-crm/internal/infra/http/middleware"
	"github.com/xavierca1/tork-crm/internal/infra/integration/chatwoot"
	applog "github.com/xavierca1/tork-crm/internal/infra/logger"
	"github.com/xavierca1/tork-crm/internal/infra/queue"
	"github.com/xavierca1/tork-crm/internal/infra/security"
	"github.com/xavierca1/tork-crm/internal/usecase"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env não encontrado, usando variáveis de ambiente")
	}

	cfg := config.Load()

	logger, err := applog.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("❌ falha ao criar logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("❌ servidor encerrado com erro", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Banco
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL não configurada")
	}
	db, err := database.NewDBConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("falha ao conectar no Postgres: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	tenantRepo := database.NewTenantRepository(db)
	stageRepo := database.NewStageRepository(db)
	dealRepo := database.NewDealRepository(db)

	// 2. Segredos
	box, err := security.NewSecretBox(cfg.EncryptionKey)
	if err != nil {
		return err
	}
	if cfg.FallbackSecret != "" && cfg.WebhookFallbackSecret() == "" {
		logger.Warn("CHATWOOT_WEBHOOK_FALLBACK_SECRET ignorado em produção (ALLOW_FALLBACK_SECRET=false)")
	}

	// 3. Dedup
	var gate usecase.DedupGate
	var redisHealth handlers.RedisPinger
	if cfg.RedisURL != "" {
		client, err := dedup.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		redisGate := dedup.NewRedisGate(client, cfg.DedupTTL)
		gate, redisHealth = redisGate, redisGate
	} else {
		if cfg.IsProduction() {
			return errors.New("REDIS_URL é obrigatório em produção (dedup precisa ser compartilhado)")
		}
		memGate := dedup.NewMemoryGate(cfg.DedupTTL)
		go memGate.StartJanitor(ctx, time.Minute)
		gate = memGate
		logger.Warn("dedup em memória: válido só com uma instância")
	}

	// 4. Chatwoot + reverse sync
	cwClient := chatwoot.NewClient(chatwoot.NewHTTPClient(cfg.ChatwootTimeout, cfg.ChatwootMaxConns), logger.Named("chatwoot"))
	syncer := usecase.NewReverseSyncer(tenantRepo, dealRepo, cwClient, box, logger.Named("sync"))
	syncHandler := instrumentSync(syncer.Handle)

	// 5. Fila de sincronização
	var syncQueue usecase.SyncQueue
	var queueHealth handlers.QueueHealth
	queueName := "sync_queue"
	drain := func() {}

	if cfg.RabbitMQURL != "" {
		rmq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer rmq.Close()

		consumerCh, err := rmq.Conn.Channel()
		if err != nil {
			return fmt.Errorf("falha ao abrir canal do worker: %w", err)
		}
		worker := queue.NewWorker(consumerCh, syncHandler, logger.Named("worker"))
		go func() {
			if err := worker.Start(ctx, queue.QueueName); err != nil {
				logger.Error("worker RabbitMQ parou", zap.Error(err))
			}
		}()

		syncQueue = queue.NewProducer(rmq.Ch)
		queueHealth, queueName = rmq, "rabbitmq"
	} else {
		memQueue := queue.NewMemoryQueue(cfg.SyncQueueCapacity, cfg.SyncWorkers, syncHandler, logger.Named("sync-queue"))
		memQueue.Start(ctx)
		syncQueue, queueHealth = memQueue, memQueue
		drain = memQueue.Wait
		logger.Warn("fila de sincronização em memória: jobs pendentes se perdem no restart")
	}

	// 6. UseCases
	resolver := security.NewSecretResolver(tenantRepo, box, cfg.WebhookFallbackSecret(), logger.Named("secrets"))
	webhookUC := usecase.NewProcessWebhookUseCase(tenantRepo, dealRepo, stageRepo, gate, logger.Named("webhook"))
	stagesUC := usecase.NewManageStagesUseCase(stageRepo, dealRepo, tenantRepo, syncQueue, logger.Named("stages"))
	dealUC := usecase.NewUpdateDealUseCase(dealRepo, stageRepo, syncQueue, logger.Named("deals"))

	// 7. Handlers + router
	limiter := appmw.NewRateLimiter(cfg.WebhookRateLimit, time.Minute)
	go limiter.StartCleanup(ctx, 10*time.Minute)

	router := newRouter(cfg.CORSAllowedOrigins, routes{
		Limiter: limiter,
		Webhook: handlers.NewChatwootWebhookHandler(security.NewSignatureVerifier(resolver), webhookUC, logger.Named("webhook")),
		Stages:  handlers.NewStageHandler(stagesUC),
		Deals:   handlers.NewDealHandler(dealUC),
		Health:  handlers.NewHealthHandler(db, redisHealth, queueHealth, queueName),
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🔥 Tork CRM rodando", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("sinal recebido, encerrando")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown do servidor HTTP", zap.Error(err))
	}

	stop()
	drain()
	return nil
}

// instrumentSync conta jobs e falhas por passo antes de devolver o erro para a fila.
func instrumentSync(h queue.Handler) queue.Handler {
	return func(ctx context.Context, job queue.SyncJob) error {
		err := h(ctx, job)
		appmw.RecordSyncJob(job.Kind, err)

		var rse *usecase.RemoteSyncError
		if errors.As(err, &rse) {
			appmw.RecordIntegrationError("chatwoot", rse.Step)
		}
		return err
	}
}
