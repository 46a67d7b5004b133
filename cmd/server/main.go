package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/inxsource/sales-assistant-go/internal/ai"
	"github.com/inxsource/sales-assistant-go/internal/config"
	"github.com/inxsource/sales-assistant-go/internal/database"
	"github.com/inxsource/sales-assistant-go/internal/handler"
	"github.com/inxsource/sales-assistant-go/internal/jobs"
	"github.com/inxsource/sales-assistant-go/internal/messenger"
	"github.com/inxsource/sales-assistant-go/internal/middleware"
	"github.com/inxsource/sales-assistant-go/internal/redis"
	"github.com/inxsource/sales-assistant-go/internal/repository"
	"github.com/inxsource/sales-assistant-go/internal/service"
	"github.com/inxsource/sales-assistant-go/internal/session"
	"github.com/inxsource/sales-assistant-go/internal/sse"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	businessRepo := repository.NewBusinessRepository(db.DB)
	customerRepo := repository.NewCustomerRepository(db.DB)
	productRepo := repository.NewProductRepository(db.DB)
	orderRepo := repository.NewOrderRepository(db)

	store := session.NewStore(cfg.SessionTimeout(), cfg.MaxHistoryLength, cfg.Currency)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	var sender messenger.Sender
	if s, err := messenger.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom); err != nil {
		log.Warn().Err(err).Msg("twilio not configured, outbound messages will only be logged")
		sender = messenger.NewLogSender()
	} else {
		sender = s
	}

	generator := ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)

	catalogService := service.NewCatalogService(productRepo)
	orderService := service.NewOrderService(store, orderRepo, broker, cfg.PaymentBaseURL)
	commandService := service.NewCommandService(store, catalogService, orderService)
	resolverService := service.NewResolverService(store, businessRepo, customerRepo)
	responder := service.NewResponder(store, resolverService, commandService, generator, sender, broker, customerRepo)

	authMiddleware := middleware.NewAuthMiddleware(businessRepo)
	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client)
	twilioSignatureMiddleware := middleware.NewTwilioSignatureMiddleware(cfg.TwilioAuthToken, cfg.PublicURL)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	webhookHandler := handler.NewWebhookHandler(responder, redisClient)
	eventsHandler := handler.NewEventsHandler(broker)
	ordersHandler := handler.NewOrdersHandler(orderService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/whatsapp", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
		r.Use(twilioSignatureMiddleware.Handler)
		r.Post("/webhook", webhookHandler.ServeHTTP)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Use(rateLimitMiddleware.Handler)
		r.Get("/events", eventsHandler.ServeHTTP)
		r.Get("/orders", ordersHandler.List)
		r.Get("/orders/{orderID}", ordersHandler.Get)
		r.Post("/orders/{orderID}/paid", ordersHandler.MarkPaid)
	})

	cleanupJob := jobs.NewCleanupJob(store, orderRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0, // SSE connections stay open
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
