package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"docchat/internal/config"
	"docchat/internal/model"
	rabbitmqClient "docchat/internal/platform/rabbitmq"
	"docchat/internal/worker"
)

// newEventsCmd tails the document event queue and prints each event as one
// JSON line.
func newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Print document events from RabbitMQ as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.RabbitMQ.Enabled {
				return errors.New("rabbitmq is disabled, set RABBITMQ_ENABLED=true")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			conn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
			if err != nil {
				return err
			}
			defer conn.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			w := worker.NewDocumentEventWorker(conn, cfg.RabbitMQ.EventsQueue, func(_ context.Context, event model.DocumentEvent) error {
				return enc.Encode(event)
			})
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Close()

			<-ctx.Done()
			return nil
		},
	}
}
