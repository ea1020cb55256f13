// notify-relay consumes the notification fanout and forwards each
// message. Device push sits behind a provider this repo does not ship;
// the relay logs what it would deliver so the queue drains in
// development too.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Jexxy1517/CashFlowReportApp/internal/cli"
	"github.com/Jexxy1517/CashFlowReportApp/internal/config"
	"github.com/Jexxy1517/CashFlowReportApp/internal/log"
	"github.com/Jexxy1517/CashFlowReportApp/internal/notify"
)

func main() {
	cli.LoadEnvFile()

	// The relay only needs the broker settings, so it skips the full
	// validation the server runs.
	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the relay")
		os.Exit(1)
	}

	relay, err := notify.NewAMQPRelay(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPExchange+".relay", logger)
	if err != nil {
		logger.Error("relay initialization failed", log.FieldError, err)
		os.Exit(1)
	}
	defer relay.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = relay.Consume(ctx, func(ctx context.Context, msg notify.Message) error {
		logger.InfoContext(ctx, "notification delivered",
			log.FieldTitle, msg.Title,
			"body", msg.Body,
			"sent_at", msg.Timestamp)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("relay stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("relay stopped")
}
