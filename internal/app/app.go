package app

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/homevest/backoffice/internal/cache"
	"github.com/homevest/backoffice/internal/config"
	"github.com/homevest/backoffice/internal/env"
	"github.com/homevest/backoffice/internal/errHandler"
	"github.com/homevest/backoffice/internal/file"
	"github.com/homevest/backoffice/internal/helper"
	"github.com/homevest/backoffice/internal/repository"
	"github.com/homevest/backoffice/internal/smtp"
	"github.com/homevest/backoffice/internal/stream"
	"github.com/homevest/backoffice/internal/workflow"
	"github.com/joho/godotenv"
)

// Essential services and resources are exposed to the application
// this makes it possible for methods to have access to these items as and when they need them
type Application struct {
	Config       config.Config
	DB           repository.Database
	Logger       *slog.Logger
	Mailer       *smtp.Mailer
	WG           sync.WaitGroup
	Cache        *cache.Cache
	Kafka        *stream.KafkaStream
	FileUploader *file.FileUploader

	errorHandler *errHandler.ErrorHandler
	helper       *helper.HelperRepository

	Accounts     *workflow.AccountManager
	Verification *workflow.VerificationEngine
	Tickets      *workflow.TicketEngine
}

func NewApplication(logger *slog.Logger) (*Application, error) {
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", "error", err)
	}

	var cfg config.Config

	// config values are loaded from the .env file
	// Default values are provided for these items and these should strictly be values for development mode only
	// make sure no production-level value is exposed as default value here
	cfg.BaseURL = env.GetString("BASE_URL", "http://localhost:4444")
	cfg.PlatformName = env.GetString("PLATFORM_NAME", "Homevest")
	cfg.HttpPort = env.GetInt("HTTP_PORT", 4444)

	cfg.Db.Dsn = env.GetString("DB_DSN", "user:pass@localhost:5432/db")
	cfg.Db.Automigrate = env.GetBool("DB_AUTOMIGRATE", true)

	cfg.Jwt.SecretKey = env.GetString("JWT_SECRET_KEY", "ajf5nx3qmp6zquevllxocxqvyz42ypuo")

	// server errors won't be sent via email if the NOTIFICATIONS_EMAIL wasn't set in the .env file
	cfg.Notifications.Email = env.GetString("NOTIFICATIONS_EMAIL", "")

	cfg.Smtp.Host = env.GetString("SMTP_HOST", "example.smtp.host")
	cfg.Smtp.Port = env.GetInt("SMTP_PORT", 25)
	cfg.Smtp.Username = env.GetString("SMTP_USERNAME", "example_username")
	cfg.Smtp.Password = env.GetString("SMTP_PASSWORD", "pa55word")
	cfg.Smtp.From = env.GetString("SMTP_FROM", "Example Name <no_reply@example.org>")

	cfg.RedisServer = env.GetString("REDIS_SERVER", "localhost:6379")
	cfg.KafkaServers = env.GetString("KAFKA_SERVERS", "localhost:9092")

	cfg.FileUploader.ApiKey = env.GetString("CLOUDINARY_API_KEY", "")
	cfg.FileUploader.CloudName = env.GetString("CLOUDINARY_CLOUD_NAME", "")
	cfg.FileUploader.ApiSecret = env.GetString("CLOUDINARY_API_SECRET", "")

	db, err := repository.New(cfg.Db.Dsn, cfg.Db.Automigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	mailer, err := smtp.NewMailer(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.Username, cfg.Smtp.Password, cfg.Smtp.From)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	errorHandler := errHandler.New(cfg.Notifications.Email, cfg.BaseURL, mailer, logger)

	app := &Application{
		Config:       cfg,
		DB:           db,
		Logger:       logger,
		Mailer:       mailer,
		Cache:        cache.New(cfg.RedisServer, 0),
		Kafka:        stream.New(cfg.KafkaServers),
		FileUploader: file.New(cfg.FileUploader.CloudName, cfg.FileUploader.ApiKey, cfg.FileUploader.ApiSecret),
		errorHandler: errorHandler,
	}

	app.helper = helper.New(&app.Config.BaseURL, cfg.PlatformName, &app.WG, errorHandler)

	app.Accounts = workflow.NewAccountManager(&workflow.AccountManager{
		Accounts: db.BankAccount(),
		Logger:   logger,
	})

	app.Verification = workflow.NewVerificationEngine(&workflow.VerificationEngine{
		Submissions: db.KycSubmission(),
		Users:       db.User(),
		Stream:      app.Kafka,
		Cache:       app.Cache,
		Logger:      logger,
	})

	app.Tickets = workflow.NewTicketEngine(&workflow.TicketEngine{
		Tickets: db.Ticket(),
		Users:   db.User(),
		Stream:  app.Kafka,
		Logger:  logger,
	})

	return app, nil
}

// Helper exposes the shared background-task helper so the notification
// workers can reuse the same email data and panic recovery wiring.
func (app *Application) Helper() helper.Helper {
	return app.helper
}
