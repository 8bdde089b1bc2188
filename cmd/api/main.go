package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/shamsfin/shamsi/internal/app"
	"github.com/shamsfin/shamsi/internal/env"
	seeders "github.com/shamsfin/shamsi/internal/seeder"
	"github.com/shamsfin/shamsi/internal/version"
	"github.com/shamsfin/shamsi/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := run(logger)
	if err != nil {
		trace := string(debug.Stack())
		logger.Error(err.Error(), "trace", trace)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	showVersion := flag.Bool("version", false, "display version and exit")
	runSeeders := flag.Bool("seed", false, "run database seeders and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("version: %s\n", version.Get())
		return nil
	}

	application, err := app.NewApplication(logger)
	if err != nil {
		return err
	}
	defer application.DB.Close()
	defer application.Cache.Close()

	if *runSeeders {
		seeder := seeders.New(
			application.DB,
			env.GetString("SEED_ADMIN_EMAIL", ""),
			env.GetString("SEED_ADMIN_PASSWORD", ""),
		)
		seeder.Run()
		logger.Info("seeding completed")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wk := worker.New(&worker.Worker{
		KafkaStream: application.Kafka,
		DB:          application.DB,
		Mailer:      application.Mailer,
		Ctx:         ctx,
		Helper:      application.Helper,
	})

	go wk.AuditWorker()
	go wk.NotificationWorker()

	return application.ServeHTTP(ctx)
}
