// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"candidate-dashboard/internal/backend"
	"candidate-dashboard/internal/common/camunda"
	"candidate-dashboard/internal/common/config"
	"candidate-dashboard/internal/common/database"
	"candidate-dashboard/internal/common/logger"
	"candidate-dashboard/internal/common/observability"
	"candidate-dashboard/internal/location"
	"candidate-dashboard/internal/records"

	scf "candidate-dashboard/internal/workers/forms/submit-candidate-form"
	ll "candidate-dashboard/internal/workers/location/lookup-locations"
	vcl "candidate-dashboard/internal/workers/location/validate-candidate-location"
	fcc "candidate-dashboard/internal/workers/records/fetch-candidate-comments"
	fcr "candidate-dashboard/internal/workers/records/filter-candidate-records"
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
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logging config is not known yet
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, cfg.Tracing)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Redis (geo cache) ---
	var geoCache location.Cache = location.NewMemoryCache()
	if cfg.Geo.Cache.Backend == config.CacheBackendRedis {
		var rc *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rc, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rc.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rc.Close()
		geoCache = location.NewRedisCache(rc.Client, time.Duration(cfg.Geo.Cache.TTL)*time.Second)
		zapLog.Info("Redis geo cache connected successfully")
	}

	gateway := location.NewGateway(location.GatewayConfigFrom(cfg.Geo), geoCache, log)
	backendClient := backend.NewClient(cfg.Backend, log)
	companies := backend.NewCompanyDirectory(backendClient, log)

	// --- Record source ---
	var source records.Source = backendClient
	switch cfg.Records.Source {
	case config.RecordSourcePostgres:
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		source = records.NewPostgresSource(pg.DB)
		zapLog.Info("PostgreSQL connected successfully")
	case config.RecordSourceElasticsearch:
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		source = records.NewElasticsearchSource(es.Client, cfg.Database.Elasticsearch.Index)
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", cfg.Database.Elasticsearch.Index))
	}

	// --- Workers ---
	var workers []*camunda.CamundaWorker
	start := func(taskType string, handler camunda.JobHandler) {
		if !config.IsWorkerEnabled(cfg, taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		wcfg := config.GetWorkerConfig(cfg, taskType)
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), taskType, wcfg, handler, obs, zapLog))
	}
	timeoutFor := func(taskType string, fallback time.Duration) time.Duration {
		if wcfg, ok := cfg.Workers[taskType]; ok && wcfg.Timeout > 0 {
			return config.GetDuration(wcfg.Timeout)
		}
		return fallback
	}

	llCfg := ll.LoadConfig()
	llCfg.Timeout = timeoutFor(ll.TaskType, llCfg.Timeout)
	start(ll.TaskType, ll.NewHandler(llCfg, gateway, companies, log))

	vclCfg := vcl.LoadConfig()
	vclCfg.Timeout = timeoutFor(vcl.TaskType, vclCfg.Timeout)
	start(vcl.TaskType, vcl.NewHandler(vclCfg, gateway, log))

	fcrCfg := fcr.LoadConfig()
	fcrCfg.Timeout = timeoutFor(fcr.TaskType, fcrCfg.Timeout)
	fcrCfg.FetchLimit = cfg.Records.Limit
	fcrCfg.PageSize = cfg.Filter.PageSize
	start(fcr.TaskType, fcr.NewHandler(fcrCfg, source, records.NewEngine(), log))

	fccCfg := fcc.LoadConfig()
	fccCfg.Timeout = timeoutFor(fcc.TaskType, fccCfg.Timeout)
	start(fcc.TaskType, fcc.NewHandler(fccCfg, backendClient, log))

	scfCfg := scf.LoadConfig()
	scfCfg.Timeout = timeoutFor(scf.TaskType, scfCfg.Timeout)
	start(scf.TaskType, scf.NewHandler(scfCfg, gateway, backendClient, log))

	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", "")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err.Error())
			return
		}
		writeStatus(w, http.StatusOK, "ready", "")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.App.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", cfg.App.MetricsAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, status, detail string) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if detail != "" {
		body["error"] = detail
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
