package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/furnimatch/furnimatch/internal/config"
	"github.com/furnimatch/furnimatch/internal/db"
	dbRedis "github.com/furnimatch/furnimatch/internal/db/redis"
	"github.com/furnimatch/furnimatch/internal/domain"
	logpkg "github.com/furnimatch/furnimatch/internal/logger"
	"github.com/furnimatch/furnimatch/internal/metrics"
	"github.com/furnimatch/furnimatch/internal/repository/catalog"
	"github.com/furnimatch/furnimatch/internal/repository/embcache"
	chiTransport "github.com/furnimatch/furnimatch/internal/transport/chi"
	openaiEmb "github.com/furnimatch/furnimatch/internal/transport/openai"
	analyticsuc "github.com/furnimatch/furnimatch/internal/usecase/analytics"
	healthuc "github.com/furnimatch/furnimatch/internal/usecase/health"
	recommenduc "github.com/furnimatch/furnimatch/internal/usecase/recommend"
	"github.com/furnimatch/furnimatch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting furnimatch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalog", cfg.Catalog.CSVPath),
	)

	ctx := context.Background()

	// Optional Redis embedding cache; empty addrs disables caching.
	var store db.Store
	if len(cfg.Cache.Addrs) > 0 {
		redisStore, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer redisStore.Close()

		if err := redisStore.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
		store = redisStore
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRecommendMetrics()

	// Build embedder chain — composition root.
	// Take the first vectorizer config.
	var vecCfg config.VectorizerConfig
	var provName string
	for _, vc := range cfg.Embedding.Vectorizers {
		vecCfg = vc
		provName = vc.Provider
		break
	}
	provCfg := cfg.Embedding.Providers[provName]

	docEmbedder := buildEmbedder(provName, provCfg, vecCfg, vecCfg.DocumentInstruction, store, logger)
	queryEmbedder := buildEmbedder(provName, provCfg, vecCfg, vecCfg.QueryInstruction, store, logger)
	logger.Info("Embedders created",
		zap.String("provider", provName),
		zap.String("model", vecCfg.Model),
		zap.Int("dimensions", vecCfg.Dimensions),
	)

	// Keyword vocabulary: built-in tables unless a file overrides them.
	vocab := recommenduc.DefaultVocabulary()
	if cfg.Recommend.KeywordsFile != "" {
		vocab, err = recommenduc.LoadVocabulary(cfg.Recommend.KeywordsFile)
		if err != nil {
			logger.Fatal("Failed to load keyword tables", zap.Error(err))
		}
	}

	loader := catalog.NewLoader(cfg.Catalog.CSVPath, logger)

	handle := recommenduc.NewHandle()
	recSvc := recommenduc.New(handle, queryEmbedder, docEmbedder, loader, vocab, recommenduc.Config{
		MinSimilarity: *cfg.Recommend.MinSimilarity,
		Weights: recommenduc.Weights{
			Text:     cfg.Recommend.Weights.Text,
			Category: cfg.Recommend.Weights.Category,
			Material: cfg.Recommend.Weights.Material,
			Color:    cfg.Recommend.Weights.Color,
		},
	})

	// Initial index build. Documents go through the document-instruction
	// embedder; queries use their own chain at request time.
	buildCtx := logpkg.ContextWithLogger(ctx, logger)
	if n, err := buildInitialIndex(buildCtx, loader, handle, docEmbedder, vocab); err != nil {
		logger.Fatal("Failed to build initial index", zap.Error(err))
	} else {
		logger.Info("Initial index built", zap.Int("products", n))
	}

	analyticsSvc := analyticsuc.New(recSvc)

	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(recSvc, newEmbeddingHealthChecker(queryEmbedder), cachePinger)

	server := chiTransport.NewServer(recSvc, analyticsSvc, healthSvc, cfg.Recommend.DefaultTopK, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildInitialIndex loads the catalog and publishes the first index.
func buildInitialIndex(
	ctx context.Context,
	loader *catalog.Loader,
	handle *recommenduc.Handle,
	embedder domain.Embedder,
	vocab recommenduc.Vocabulary,
) (int, error) {
	products, err := loader.Load()
	if err != nil {
		return 0, fmt.Errorf("load catalog: %w", err)
	}

	idx, err := recommenduc.Build(ctx, products, embedder, vocab)
	if err != nil {
		return 0, fmt.Errorf("build index: %w", err)
	}

	handle.Swap(idx)
	metrics.IndexRebuildsTotal.WithLabelValues("success").Inc()
	metrics.IndexProducts.Set(float64(idx.Len()))
	return idx.Len(), nil
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instruction
func buildEmbedder(
	provName string,
	provCfg config.ProviderConfig,
	vecCfg config.VectorizerConfig,
	instruction string,
	store db.Store,
	logger *zap.Logger,
) domain.Embedder {
	// Base provider (with transport metrics built-in)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      vecCfg.Model,
		Dimensions: vecCfg.Dimensions,
		Provider:   provName,
		Logger:     logger,
	})

	// Cached
	var embedder domain.Embedder = base
	if store != nil {
		embedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
	}

	// Instruction prefix (outermost — cache key includes instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}

	return embedder
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
