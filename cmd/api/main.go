package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vocalis-dev/vocalis-api/internal/config"
	"github.com/vocalis-dev/vocalis-api/internal/database"
	"github.com/vocalis-dev/vocalis-api/internal/handler"
	"github.com/vocalis-dev/vocalis-api/internal/middleware"
	"github.com/vocalis-dev/vocalis-api/internal/models"
	"github.com/vocalis-dev/vocalis-api/internal/repository"
	"github.com/vocalis-dev/vocalis-api/internal/router"
	"github.com/vocalis-dev/vocalis-api/internal/service"
	"github.com/vocalis-dev/vocalis-api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Redis, the archive database, and NATS are all optional. A bare process
	// with nothing but provider keys still serves interviews.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var archiveRepo repository.ArchiveRepository
	if cfg.ArchiveDatabaseURL != "" {
		db, err := database.ConnectArchive(cfg.ArchiveDatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to archive database: %v", err)
		}
		if err := db.AutoMigrate(&models.ArchivedSession{}); err != nil {
			log.Fatalf("failed to migrate archive database: %v", err)
		}
		archiveRepo = repository.NewArchiveRepository(db)
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	providers, err := service.BuildProviders(cfg, logger)
	if err != nil {
		log.Fatalf("failed to build ai providers: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	rootCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()

	sessionStore := store.New(cfg.SessionTTL, logger)
	sessionStore.Start(rootCtx)

	scoring := service.NewScoringPipeline(providers.Graders, cfg.ProviderTimeout, logger)
	events := service.NewNATSEvents(natsConn, logger)
	delivery := service.NewLogResultDelivery(logger)

	var archiver service.SessionArchiver
	if archiveRepo != nil {
		archiver = archiveRepo
	}

	interviewService := service.NewInterviewService(sessionStore, providers, scoring, validate, archiver, events, delivery, service.InterviewConfig{
		DefaultQuestionCount: cfg.DefaultQuestionCount,
		MaxQuestionCount:     cfg.MaxQuestionCount,
		ProviderTimeout:      cfg.ProviderTimeout,
	}, logger)
	proctorService := service.NewProctorService(sessionStore, interviewService, service.ProctorConfig{
		AwayThreshold: cfg.AwayThreshold,
		MaxViolations: cfg.MaxViolations,
	}, logger)
	speechService := service.NewSpeechService(providers, redisClient, cfg.TTSCacheTTL, cfg.ProviderTimeout, validate, logger)

	interviewHandler := handler.NewInterviewHandler(interviewService, logger)
	speechHandler := handler.NewSpeechHandler(speechService, logger)
	proctorHandler := handler.NewProctorHandler(proctorService, logger)
	adminHandler := handler.NewAdminHandler(interviewService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    32 << 20,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		InterviewService: interviewService,
		InterviewHandler: interviewHandler,
		SpeechHandler:    speechHandler,
		ProctorHandler:   proctorHandler,
		AdminHandler:     adminHandler,
		JWTMiddleware:    middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
