package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/easyscale/clinic-ai-engine/internal/api/router"
	appconfig "github.com/easyscale/clinic-ai-engine/internal/config"
	"github.com/easyscale/clinic-ai-engine/internal/engine"
	"github.com/easyscale/clinic-ai-engine/internal/observability/metrics"
	"github.com/easyscale/clinic-ai-engine/internal/reasoner"
	"github.com/easyscale/clinic-ai-engine/internal/reengage"
	"github.com/easyscale/clinic-ai-engine/internal/reception"
	"github.com/easyscale/clinic-ai-engine/internal/scheduling"
	"github.com/easyscale/clinic-ai-engine/pkg/logging"
)

func main() {
	// Load .env if present; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-ai-engine API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"provider", cfg.ReasonerProvider,
	)

	ctx := context.Background()

	client, model, cleanup, err := buildReasoner(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize reasoner", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(registry)

	receptionAgent := reception.NewAgent(
		client,
		reception.NewValidator(cfg.MaxAttempts, cfg.PhoneMinDigits),
		model, cfg.ReasonerTimeout, logger.Component("reception"),
	)
	schedulingAgent := scheduling.NewAgent(
		client,
		scheduling.NewValidator(cfg.MaxAttempts),
		model, cfg.ReasonerTimeout, logger.Component("scheduling"),
	)
	reengagePipeline := reengage.NewPipeline(
		client, model, cfg.ReasonerTimeout, cfg.MaxRevisions, logger.Component("reengage"),
	)

	service := engine.New(engine.Options{
		Client:     client,
		Reception:  receptionAgent,
		Scheduling: schedulingAgent,
		Reengage:   reengagePipeline,
		Model:      model,
		Language:   cfg.InputLanguage,
		Timeout:    cfg.ReasonerTimeout,
		Metrics:    engineMetrics,
		Logger:     logger.Component("engine"),
	})

	var store *engine.HistoryStore
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		store = engine.NewHistoryStore(redisClient, nil)
		logger.Info("conversation state store enabled", "addr", cfg.RedisAddr)
	} else {
		logger.Info("conversation state store disabled; callers supply history per request")
	}

	engineHandler := engine.NewHandler(service, store, logger.Component("http"))

	r := router.New(&router.Config{
		Logger:         logger,
		EngineHandler:  engineHandler,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * cfg.ReasonerTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildReasoner wires the configured provider, with an automatic
// cross-provider fallback when a second provider has credentials. The
// returned model is what requests should carry for the primary.
func buildReasoner(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (reasoner.Client, string, func(), error) {
	cleanup := func() {}

	var primary reasoner.Client
	var model string
	switch cfg.ReasonerProvider {
	case "bedrock":
		loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
		if cfg.AWSAccessKeyID != "" && cfg.AWSSecretKey != "" {
			loaders = append(loaders, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
			))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
		if err != nil {
			return nil, "", cleanup, fmt.Errorf("load AWS config: %w", err)
		}
		runtime := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
			// LocalStack-style endpoint override for local runs.
			if cfg.AWSEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.AWSEndpoint)
			}
		})
		primary = reasoner.NewBedrockClient(runtime)
		model = cfg.BedrockModelID
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, "", cleanup, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		primary = reasoner.NewOpenAIClient(openai.NewClient(cfg.OpenAIAPIKey), cfg.OpenAIModel)
		model = cfg.OpenAIModel
	case "gemini":
		gemini, err := reasoner.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, "", cleanup, fmt.Errorf("init gemini client: %w", err)
		}
		cleanup = func() { _ = gemini.Close() }
		primary = gemini
		model = cfg.GeminiModel
	default:
		return nil, "", cleanup, fmt.Errorf("unknown reasoner provider %q", cfg.ReasonerProvider)
	}

	// Secondary provider, if configured, catches primary outages.
	var fallback reasoner.Client
	if cfg.ReasonerProvider != "openai" && cfg.OpenAIAPIKey != "" {
		fallback = reasoner.NewOpenAIClient(openai.NewClient(cfg.OpenAIAPIKey), cfg.OpenAIModel)
	} else if cfg.ReasonerProvider != "gemini" && cfg.GeminiAPIKey != "" {
		gemini, err := reasoner.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("failed to init fallback gemini client", "error", err)
		} else {
			prev := cleanup
			cleanup = func() { _ = gemini.Close(); prev() }
			fallback = gemini
		}
	}

	if fallback == nil {
		return primary, model, cleanup, nil
	}
	return reasoner.NewFallbackClient(primary, fallback, logger.Logger), model, cleanup, nil
}
