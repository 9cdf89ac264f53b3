package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"decentra_research_backend/cmd/api/config"
	"decentra_research_backend/internal/api"
	"decentra_research_backend/internal/auth"
	"decentra_research_backend/internal/database"
	apperrors "decentra_research_backend/internal/errors"
	"decentra_research_backend/internal/services"
	"decentra_research_backend/internal/utils/broker"
	"decentra_research_backend/internal/wsocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

const serviceName = "decentra-research"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	setupLogger(cfg.App)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(database.Config{
		Driver:     cfg.Database.Driver,
		Host:       cfg.Database.Host,
		Port:       cfg.Database.Port,
		User:       cfg.Database.User,
		Password:   cfg.Database.Password,
		Name:       cfg.Database.Name,
		SQLitePath: cfg.Database.SQLitePath,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	var tokens *auth.TokenIssuer
	if cfg.Ownership.Mode == auth.ModeToken {
		tokens, err = auth.NewTokenIssuer(cfg.Ownership.Secret, cfg.Ownership.TokenTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create owner token issuer")
		}
	} else {
		log.Warn().Msg("Legacy ownership mode: anyone who knows a record's owner string can modify it")
	}
	guard, err := auth.NewGuard(cfg.Ownership.Mode, tokens)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create ownership guard")
	}

	messageBroker := broker.NewBroker()
	var publisher broker.Publisher = messageBroker
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid REDIS_URL")
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		relay := broker.NewRedisRelay(redisClient, messageBroker)
		if err := relay.Start(ctx, services.ResearchTopic); err != nil {
			log.Fatal().Err(err).Msg("Failed to start redis event relay")
		}
		publisher = relay
		log.Info().Msg("Research events relayed through redis")
	}

	var contentStore services.ContentStore
	switch cfg.Content.Store {
	case "gcs":
		gcsStore, err := services.NewGCSContentStore(ctx, cfg.Content.BucketName, cfg.Content.BaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS content store")
		}
		defer gcsStore.Close()
		contentStore = gcsStore
	default:
		contentStore = services.NewMemoryContentStore(cfg.Content.BaseURL)
	}

	var analyzer services.TextAnalyzer = services.MockAnalyzer{}
	if cfg.Analysis.APIKey != "" {
		genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Analysis.APIKey))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GenAI client")
		}
		defer genaiClient.Close()
		analyzer = services.NewGenAIAnalyzer(genaiClient, cfg.Analysis.Model)
	} else {
		log.Warn().Msg("GOOGLE_AI_STUDIO_API_KEY not set, analysis endpoints return canned reports")
	}

	researchStore := services.NewResearchStoreDB(db)
	researchService := services.NewResearchService(researchStore, guard, tokens, services.NewMockContractClient(), publisher)
	pdfService := services.NewPDFService(cfg.Server.MaxUploadBytes)
	analysisService := services.NewAnalysisService(researchService, analyzer, contentStore, pdfService)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		apperrors.HandleError(c, apperrors.New500Error(fmt.Errorf("panic: %v", recovered)))
	}))
	r.Use(api.RequestLogger(log.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", api.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", api.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(r, api.Deps{
		Research: researchService,
		Analysis: analysisService,
		Content:  contentStore,
		PDFs:     pdfService,
		Tokens:   tokens,
		Health: api.NewHealthHandler(serviceName, cfg.App.Version, func(ctx context.Context) error {
			return database.Ping(ctx, db)
		}),
		Limiter:        api.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Version:        cfg.App.Version,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.Server.AllowedOrigins),
	}
	wsHandler := wsocket.NewHandler(messageBroker, services.ResearchTopic, upgrader)
	r.GET("/ws/research", func(c *gin.Context) {
		wsHandler.HandleWebSocket(c.Writer, c.Request)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("ownership_mode", cfg.Ownership.Mode).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func setupLogger(app config.AppConfig) {
	level, err := zerolog.ParseLevel(app.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if app.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", serviceName).Logger()
	}
	zerolog.DefaultContextLogger = &log.Logger
}

// originChecker admits browsers from the CORS allow-list and non-browser clients.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
