// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"edunet-workers/internal/common/auth"
	commonaws "edunet-workers/internal/common/aws"
	"edunet-workers/internal/common/camunda"
	"edunet-workers/internal/common/config"
	"edunet-workers/internal/common/database"
	"edunet-workers/internal/common/logger"
	"edunet-workers/internal/common/observability"

	// Data Access Workers (2)
	qe "edunet-workers/internal/workers/data-access/query-elasticsearch"
	qp "edunet-workers/internal/workers/data-access/query-postgresql"

	// Matching Workers (8)
	bd "edunet-workers/internal/workers/matching/build-deck"
	ca "edunet-workers/internal/workers/matching/calculate-affinity"
	cm "edunet-workers/internal/workers/matching/check-match"
	pdf "edunet-workers/internal/workers/matching/parse-deck-filters"
	qab "edunet-workers/internal/workers/matching/query-activity-bundle"
	rd "edunet-workers/internal/workers/matching/record-decision"
	smn "edunet-workers/internal/workers/matching/send-match-notification"
	uw "edunet-workers/internal/workers/matching/update-weights"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         30 * time.Second,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init External Service Clients ---
	identity := auth.NewIdentityClient(
		cfg.Identity.URL,
		cfg.Identity.ClientID,
		cfg.Identity.ClientSecret,
		time.Duration(cfg.Identity.ReadyPollIntervalMs)*time.Millisecond,
		time.Duration(cfg.Identity.ReadyTimeoutMs)*time.Millisecond,
	)
	if !identity.WaitReady(ctx) {
		zapLog.Warn("identity service not ready, continuing in guest mode")
	}

	sesClient, err := commonaws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("ses client failed", zap.Error(err))
	}
	snsClient, err := commonaws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("sns client failed", zap.Error(err))
	}

	zapLog.Info("All external service clients initialized")

	// --- START: Register ALL 10 Workers ---

	// --- 1. Data Access Workers (2) ---
	if cfg.Workers[qp.TaskType].Enabled {
		handler := qp.NewHandler(
			&qp.Config{
				Timeout: time.Duration(cfg.Workers[qp.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, qp.TaskType, cfg.Workers[qp.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[qe.TaskType].Enabled {
		handler := qe.NewHandler(
			&qe.Config{
				Timeout: time.Duration(cfg.Workers[qe.TaskType].Timeout) * time.Millisecond,
			},
			esClient.Client, log,
		)
		startWorker(zeebeClient, qe.TaskType, cfg.Workers[qe.TaskType], handler.Handle, zapLog)
	}

	// --- 2. Matching Workers (8) ---
	if cfg.Workers[pdf.TaskType].Enabled {
		handler := pdf.NewHandler(
			&pdf.Config{
				Timeout:         time.Duration(cfg.Workers[pdf.TaskType].Timeout) * time.Millisecond,
				DefaultDeckSize: cfg.Matching.DeckSize,
				MaxDeckSize:     cfg.Matching.DeckSize,
			},
			log,
		)
		startWorker(zeebeClient, pdf.TaskType, cfg.Workers[pdf.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[qab.TaskType].Enabled {
		handler := qab.NewHandler(
			&qab.Config{
				Timeout:          time.Duration(cfg.Workers[qab.TaskType].Timeout) * time.Millisecond,
				SearchIndex:      "search-queries",
				PostLimit:        cfg.Matching.ActivityLimits.Posts,
				ProjectLimit:     cfg.Matching.ActivityLimits.Projects,
				InteractionLimit: cfg.Matching.ActivityLimits.Interactions,
				SearchLimit:      cfg.Matching.ActivityLimits.Searches,
			},
			pg.DB, esClient.Client, log,
		)
		startWorker(zeebeClient, qab.TaskType, cfg.Workers[qab.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ca.TaskType].Enabled {
		handler := ca.NewHandler(
			&ca.Config{
				Timeout:  time.Duration(cfg.Workers[ca.TaskType].Timeout) * time.Millisecond,
				CacheTTL: time.Duration(cfg.Matching.ProfileCacheTTL) * time.Second,
			},
			pg.DB, redis.Client, log,
		)
		startWorker(zeebeClient, ca.TaskType, cfg.Workers[ca.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[bd.TaskType].Enabled {
		handler := bd.NewHandler(
			&bd.Config{
				Timeout:        time.Duration(cfg.Workers[bd.TaskType].Timeout) * time.Millisecond,
				DeckSize:       cfg.Matching.DeckSize,
				SessionTTL:     time.Duration(cfg.Matching.SessionTTLMinutes) * time.Minute,
				FallbackPath:   cfg.Matching.FallbackCandidatesPath,
				NetworkEnabled: cfg.Matching.NetworkOverlapEnabled,
			},
			pg.DB, redis.Client, log,
		)
		startWorker(zeebeClient, bd.TaskType, cfg.Workers[bd.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[rd.TaskType].Enabled {
		handler := rd.NewHandler(
			&rd.Config{
				Timeout:    time.Duration(cfg.Workers[rd.TaskType].Timeout) * time.Millisecond,
				SessionTTL: time.Duration(cfg.Matching.SessionTTLMinutes) * time.Minute,
			},
			pg.DB, redis.Client, log,
		)
		startWorker(zeebeClient, rd.TaskType, cfg.Workers[rd.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[cm.TaskType].Enabled {
		handler := cm.NewHandler(
			&cm.Config{
				Timeout: time.Duration(cfg.Workers[cm.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, cm.TaskType, cfg.Workers[cm.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[uw.TaskType].Enabled {
		handler := uw.NewHandler(
			&uw.Config{
				Timeout: time.Duration(cfg.Workers[uw.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, uw.TaskType, cfg.Workers[uw.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[smn.TaskType].Enabled {
		handler := smn.NewHandler(
			&smn.Config{
				Timeout:      time.Duration(cfg.Workers[smn.TaskType].Timeout) * time.Millisecond,
				EmailEnabled: cfg.Notifications.Email.Enabled,
				FromEmail:    cfg.Notifications.Email.FromEmail,
				SMSEnabled:   cfg.Notifications.SMS.Enabled,
				SMSSuperOnly: cfg.Notifications.SMS.SuperOnly,
			},
			sesClient, snsClient, identity, log,
		)
		startWorker(zeebeClient, smn.TaskType, cfg.Workers[smn.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All 10 workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range activeWorkers {
		w.Close()
	}

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// activeWorkers collects every opened subscription so shutdown can
// drain them before the Zeebe client closes.
var activeWorkers []*camunda.Worker

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	w := camunda.NewWorker(
		client, taskType,
		wcfg.MaxJobsActive,
		time.Duration(wcfg.Timeout)*time.Millisecond,
		handlerFunc, log,
	)
	activeWorkers = append(activeWorkers, w)
}
