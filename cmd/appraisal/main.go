package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Appraisal/internal/config"
	"github.com/MikeSquared-Agency/Appraisal/internal/scoring"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:           "appraisal",
		Short:         "Summarize reviews of a target and flag the ones that diverge",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newScoreCmd())
	root.AddCommand(newWatchCmd())

	if err := root.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

func thresholdsFrom(cfg *config.Config) scoring.Thresholds {
	return scoring.Thresholds{
		Notable:   cfg.Scoring.Thresholds.Notable,
		Divergent: cfg.Scoring.Thresholds.Divergent,
		Anomalous: cfg.Scoring.Thresholds.Anomalous,
	}
}
