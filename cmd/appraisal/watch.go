package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Appraisal/internal/config"
	"github.com/MikeSquared-Agency/Appraisal/internal/hermes"
	"github.com/MikeSquared-Agency/Appraisal/internal/logging"
)

func newWatchCmd() *cobra.Command {
	var (
		configPath string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print appraisal events from the event bus as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(configPath)
			if err != nil {
				return exitError(3, "failed to load config: %v", err)
			}
			if cfg.Hermes.URL == "" {
				return exitError(3, "hermes url is not configured")
			}
			logger := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

			hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
			if err != nil {
				return exitError(1, "failed to connect to hermes: %v", err)
			}
			defer hc.Close()

			return watch(ctx, hc, watchSubject(all), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().BoolVar(&all, "all", false, "Include every recorded review, not only anomalies")
	return cmd
}

func watchSubject(all bool) string {
	if all {
		return hermes.SubjectWildcard
	}
	return hermes.SubjectAnomalyWildcard
}

// watch writes one line per event until ctx is done.
func watch(ctx context.Context, c hermes.Client, subject string, out io.Writer) error {
	var mu sync.Mutex
	err := c.Subscribe(subject, func(subject string, data []byte) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, "%s %s\n", subject, data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	<-ctx.Done()
	return nil
}
