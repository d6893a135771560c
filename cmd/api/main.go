package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/homevest/backoffice/internal/app"
	"github.com/homevest/backoffice/internal/version"
	"github.com/homevest/backoffice/internal/worker"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Notification delivery is owned by the workers; the HTTP layer only
	// ever produces events.
	wk := worker.New(&worker.Worker{
		KafkaStream: application.Kafka,
		Mailer:      application.Mailer,
		Helper:      application.Helper(),
		Ctx:         ctx,
	})

	go wk.KycDecisionWorker()
	go wk.TicketReplyWorker()
	go wk.TicketStatusWorker()

	return application.ServeHTTP()
}
