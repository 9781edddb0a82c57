package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a tool service",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "math",
			Short: "Serve add and multiply over stdio",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				e, err := opts.engine()
				if err != nil {
					return err
				}

				ctx, cancel := signalContext(cmd.Context())
				defer cancel()

				return e.ServeMath(ctx)
			},
		},
		&cobra.Command{
			Use:   "weather",
			Short: "Serve get_alerts and get_forecast over server-sent events",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				e, err := opts.engine()
				if err != nil {
					return err
				}

				ctx, cancel := signalContext(cmd.Context())
				defer cancel()

				return e.ServeWeather(ctx)
			},
		},
	)

	return cmd
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
