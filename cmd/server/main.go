package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookshop-assistant/internal/agent"
	"bookshop-assistant/internal/config"
	"bookshop-assistant/internal/llm"
	"bookshop-assistant/internal/middleware"
	"bookshop-assistant/internal/routes"
	"bookshop-assistant/internal/store"
	"bookshop-assistant/internal/telemetry"

	"github.com/go-chi/chi/v5"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// Telemetry
	tp, err := telemetry.Init(ctx, cfg.OTelServiceName, cfg.OTelEndpoint, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to init telemetry: %v", err)
	}

	metrics, err := telemetry.NewMetrics(tp.Meter)
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}

	// Database
	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Printf("WARNING: Database not available: %v", err)
		log.Printf("Running without database — orders cannot be confirmed")
		pool = nil
	}

	// LLM client
	var primary llm.Provider
	switch cfg.LLMProvider {
	case "ollama":
		primary = llm.NewOllamaProvider(cfg.OllamaBaseURL)
	case "google":
		primary = llm.NewGoogleProvider(cfg.GoogleAPIKey)
	default:
		primary = llm.NewOpenAIProvider(cfg.OpenAIAPIKey)
	}

	var fallback llm.Provider
	if cfg.FallbackProvider == "anthropic" && cfg.AnthropicAPIKey != "" {
		fallback = llm.NewAnthropicProvider(cfg.AnthropicAPIKey)
	}

	llmClient := &llm.Client{
		Primary:              primary,
		Fallback:             fallback,
		Tracer:               tp.Tracer,
		Metrics:              metrics,
		PrimaryProvider:      cfg.LLMProvider,
		FallbackProviderName: cfg.FallbackProvider,
		FallbackModel:        cfg.FallbackModel,
	}

	// Conversation agent
	a := &agent.Agent{
		LLM:          llmClient,
		Tracer:       tp.Tracer,
		Metrics:      metrics,
		ModelCapable: cfg.LLMModelCapable,
		ModelFast:    cfg.LLMModelFast,
		Temperature:  cfg.DefaultTemperature,
		MaxTokens:    cfg.DefaultMaxTokens,
	}
	if pool != nil {
		a.Books = &store.Catalog{DB: pool}
	}

	// Router
	r := chi.NewRouter()
	r.Use(middleware.OTelHTTP(cfg.OTelServiceName))

	r.Get("/api/health", routes.HealthHandler)
	r.Post("/api/v1/chat", routes.ChatHandler(a, metrics))

	if pool != nil {
		r.Post("/api/orders/confirm", routes.ConfirmOrderHandler(pool, metrics))
		r.Get("/api/orders/status/{id}", routes.OrderStatusHandler(pool))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting %s on :%s", cfg.OTelServiceName, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if pool != nil {
		pool.Close()
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Printf("Telemetry shutdown error: %v", err)
	}
}
