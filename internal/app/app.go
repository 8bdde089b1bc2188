package app

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/shamsfin/shamsi/internal/cache"
	"github.com/shamsfin/shamsi/internal/config"
	"github.com/shamsfin/shamsi/internal/env"
	"github.com/shamsfin/shamsi/internal/errHandler"
	"github.com/shamsfin/shamsi/internal/file"
	"github.com/shamsfin/shamsi/internal/helper"
	"github.com/shamsfin/shamsi/internal/repository"
	"github.com/shamsfin/shamsi/internal/smtp"
	"github.com/shamsfin/shamsi/internal/stream"
	"github.com/joho/godotenv"
)

// Essential services and resources are exposed to the application
// this makes it possible for methods to have access to these items when they need them
type Application struct {
	Config       config.Config
	DB           repository.Database
	Logger       *slog.Logger
	Mailer       smtp.MailerInterface
	WG           *sync.WaitGroup
	Cache        *cache.Cache
	TieredCache  *cache.Tiered
	Kafka        *stream.KafkaStream
	FileUploader file.Uploader
	Helper       *helper.HelperRepository
	errorHandler *errHandler.ErrorRepository
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
	cfg.HttpPort = env.GetInt("HTTP_PORT", 4444)

	// DB_DSN is scheme-less; the repository layer prepends postgres://
	cfg.Db.Dsn = env.GetString("DB_DSN", "user:pass@localhost:5432/shamsi?sslmode=disable")
	cfg.Db.Automigrate = env.GetBool("DB_AUTOMIGRATE", true)

	cfg.RedisServer = env.GetString("REDIS_SERVER", "localhost:6379")

	cfg.Jwt.SecretKey = env.GetString("JWT_SECRET_KEY", "hyneknzmbqmopldesgotjnxbqwaszxcv")

	cfg.RateLimit.RequestsPerMinute = env.GetInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 100)

	// server errors won't be sent via email if the NOTIFICATIONS_EMAIL wasn't set in the .env file
	cfg.Notifications.Email = env.GetString("NOTIFICATIONS_EMAIL", "")

	cfg.Smtp.Host = env.GetString("SMTP_HOST", "example.smtp.host")
	cfg.Smtp.Port = env.GetInt("SMTP_PORT", 25)
	cfg.Smtp.Username = env.GetString("SMTP_USERNAME", "example_username")
	cfg.Smtp.Password = env.GetString("SMTP_PASSWORD", "pa55word")
	cfg.Smtp.From = env.GetString("SMTP_FROM", "Shamsi <no_reply@shamsi.sa>")

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

	errorHandler := errHandler.New(cfg.Notifications.Email, mailer, logger)

	wg := &sync.WaitGroup{}
	helperRepo := helper.New(&cfg.BaseURL, wg, errorHandler)

	redisCache := cache.New(cfg.RedisServer, 0)
	tieredCache := cache.NewTiered(cache.NewMemory(), redisCache)

	kafkaStream := stream.New(cfg.KafkaServers)

	fileUploader := file.New(cfg.FileUploader.CloudName, cfg.FileUploader.ApiKey, cfg.FileUploader.ApiSecret)

	app := &Application{
		Config:       cfg,
		DB:           db,
		Logger:       logger,
		Mailer:       mailer,
		WG:           wg,
		Cache:        redisCache,
		TieredCache:  tieredCache,
		Kafka:        kafkaStream,
		FileUploader: fileUploader,
		Helper:       helperRepo,
		errorHandler: errorHandler,
	}

	return app, nil
}
