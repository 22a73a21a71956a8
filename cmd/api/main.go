package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/skilllink/internal/config"
	"github.com/Windi-Fikriyansyah/skilllink/internal/db"
	"github.com/Windi-Fikriyansyah/skilllink/internal/handlers"
	"github.com/Windi-Fikriyansyah/skilllink/internal/logging"
	"github.com/Windi-Fikriyansyah/skilllink/internal/metrics"
	"github.com/Windi-Fikriyansyah/skilllink/internal/middleware"
	"github.com/Windi-Fikriyansyah/skilllink/internal/realtime"
	"github.com/Windi-Fikriyansyah/skilllink/internal/repository"
	"github.com/Windi-Fikriyansyah/skilllink/internal/services/admin"
	"github.com/Windi-Fikriyansyah/skilllink/internal/services/auth"
	"github.com/Windi-Fikriyansyah/skilllink/internal/services/booking"
	"github.com/Windi-Fikriyansyah/skilllink/internal/services/chat"
	"github.com/Windi-Fikriyansyah/skilllink/internal/services/mailer"
	"github.com/Windi-Fikriyansyah/skilllink/internal/services/profile"
	"github.com/Windi-Fikriyansyah/skilllink/internal/services/skill"
	"github.com/Windi-Fikriyansyah/skilllink/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("api stopped")
	}
}

func run(cfg config.Config, logger *zerolog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Connect(cfg.DBDSN, logger)
	if err != nil {
		return err
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}
	metrics.Register()

	var broker realtime.Broker
	switch cfg.RealtimeDriver {
	case "redis":
		rdb := realtime.NewRedis(cfg)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		defer rdb.Close()
		broker = realtime.NewRedisBroker(rdb, logger)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("realtime over redis")
	default:
		broker = realtime.NewHub(logger)
		logger.Info().Msg("realtime in memory")
	}

	var store storage.Storage
	switch cfg.StorageDriver {
	case "s3":
		s3, err := storage.NewS3Storage(ctx, cfg)
		if err != nil {
			return err
		}
		store = s3
	default:
		store = storage.NewLocalStorage(cfg.UploadDir, cfg.AppBaseURL)
	}

	var mail mailer.Mailer = mailer.NewLogMailer(logger)
	if cfg.MailEnabled() {
		mail = mailer.NewSMTPMailer(cfg)
	}

	accounts := repository.NewAccountRepository(gdb)
	profiles := repository.NewProfileRepository(gdb)
	tokens := repository.NewTokenRepository(gdb)
	skills := repository.NewSkillRepository(gdb)
	bookings := repository.NewBookingRepository(gdb)
	chats := repository.NewChatRepository(gdb)
	messages := repository.NewMessageRepository(gdb)

	authSvc := auth.NewService(accounts, profiles, tokens, mail, auth.Options{
		AutoConfirm:     cfg.AutoConfirm,
		FrontendBaseURL: cfg.FrontendBaseURL,
		VerifyTTL:       cfg.VerifyTokenTTL,
		ResetTTL:        cfg.ResetTokenTTL,
	}, logger)
	profileSvc := profile.NewService(profiles, store, cfg.AvatarMaxBytes, logger)
	skillSvc := skill.NewService(skills)
	bookingSvc := booking.NewService(bookings, broker, logger)
	chatSvc := chat.NewService(chats, messages, profiles, broker, logger)
	adminSvc := admin.NewService(profiles, skills)

	authH := &handlers.AuthHandler{
		Auth:         authSvc,
		JWTSecret:    cfg.JWTSecret,
		Expires:      cfg.JWTExpiresMin,
		CookieSecure: cfg.CookieSecure,
		Logger:       logger,
	}
	var googleH *handlers.GoogleOAuthHandler
	if cfg.GoogleClientID != "" {
		googleH = &handlers.GoogleOAuthHandler{
			Auth:            authSvc,
			Session:         authH,
			GoogleClientID:  cfg.GoogleClientID,
			GoogleSecret:    cfg.GoogleSecret,
			GoogleRedirect:  cfg.GoogleRedirect,
			FrontendBaseURL: cfg.FrontendBaseURL,
			Logger:          logger,
		}
	}

	router := &handlers.Router{
		Auth:    authH,
		Google:  googleH,
		Profile: handlers.NewProfileHandler(profileSvc, logger),
		Dashboard: &handlers.DashboardHandler{
			Bookings: bookingSvc,
			Chats:    chatSvc,
			Skills:   skillSvc,
			Logger:   logger,
		},
		Category: handlers.NewCategoryHandler(skillSvc, logger),
		Skill:    handlers.NewSkillHandler(skillSvc, logger),
		Booking:  handlers.NewBookingHandler(bookingSvc, cfg.StrictBookingTransitions, logger),
		Chat:     handlers.NewChatHandler(chatSvc, broker, logger),
		Admin:    handlers.NewAdminHandler(adminSvc, logger),

		JWTSecret:     cfg.JWTSecret,
		Profiles:      profiles,
		AuthRateRPS:   cfg.AuthRateRPS,
		AuthRateBurst: cfg.AuthRateBurst,
		Health: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    int(cfg.AvatarMaxBytes) + 1<<20,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length, Content-Disposition",
		AllowCredentials: true,
	}))
	app.Use(middleware.RequestLogger(logger))

	if cfg.StorageDriver == "local" {
		app.Static("/uploads", cfg.UploadDir)
	}
	router.Mount(app)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.AppPort).Msg("api listening")
		errCh <- app.Listen(":" + cfg.AppPort)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
