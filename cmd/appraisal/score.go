package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Appraisal/internal/config"
	"github.com/MikeSquared-Agency/Appraisal/internal/review"
	"github.com/MikeSquared-Agency/Appraisal/internal/scoring"
)

type scoreFlags struct {
	file         string
	configPath   string
	kind         string
	format       string
	candidate    float64
	hasCandidate bool
}

// scoreReport is the json output of the score command.
type scoreReport struct {
	Kind       review.Kind    `json:"kind"`
	Reviews    int            `json:"reviews"`
	Skipped    int            `json:"skipped,omitempty"`
	Score      float64        `json:"score"`
	Summary    string         `json:"summary"`
	Candidate  *float64       `json:"candidate,omitempty"`
	Difference *float64       `json:"difference,omitempty"`
	Level      *scoring.Level `json:"level,omitempty"`
}

func newScoreCmd() *cobra.Command {
	f := &scoreFlags{}

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Summarize a file of reviews and optionally appraise a candidate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.hasCandidate = cmd.Flags().Changed("candidate")
			return runScore(cmd.OutOrStdout(), f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.file, "file", "", "YAML or JSON list of review documents")
	flags.StringVar(&f.configPath, "config", "", "Path to config file (thresholds and default kind)")
	flags.StringVar(&f.kind, "kind", "", "Review kind to summarize: scalar or histogram (default from config)")
	flags.StringVar(&f.format, "format", "text", "Output format: text or json")
	flags.Float64Var(&f.candidate, "candidate", 0, "Raw value of a review to measure against the summary")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runScore(out io.Writer, f *scoreFlags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return exitError(3, "failed to load config: %v", err)
	}
	kind, err := review.ParseKind(f.kind, review.Kind(cfg.Scoring.DefaultKind))
	if err != nil {
		return exitError(2, "%v", err)
	}

	docs, err := loadDocuments(f.file)
	if err != nil {
		return exitError(3, "failed to load reviews: %v", err)
	}

	var reviews []review.Review
	for i, doc := range docs {
		r, err := review.Decode(doc, kind)
		if err != nil {
			return exitError(2, "review %d: %v", i+1, err)
		}
		if r.Kind() == kind {
			reviews = append(reviews, r)
		}
	}

	summary, err := review.Summarize(kind, reviews)
	if errors.Is(err, review.ErrEmpty) {
		return exitError(2, "no %s reviews in %s", kind, f.file)
	}
	if err != nil {
		return exitError(2, "summarize: %v", err)
	}

	report := scoreReport{
		Kind:    kind,
		Reviews: len(reviews),
		Skipped: len(docs) - len(reviews),
		Score:   summary.Score(),
		Summary: summary.String(),
	}

	if f.hasCandidate {
		v := f.candidate
		candidate, err := review.Decode(review.Document{Kind: kind, Value: &v}, kind)
		if err != nil {
			return exitError(2, "candidate: %v", err)
		}
		d, err := summary.DifferenceOf(candidate)
		if err != nil {
			return exitError(2, "candidate: %v", err)
		}
		level := thresholdsFrom(cfg).Level(d)
		report.Candidate = &v
		report.Difference = &d
		report.Level = &level
	}

	return writeReport(out, f.format, report)
}

// loadDocuments reads a list of review documents. JSON input parses as YAML.
func loadDocuments(path string) ([]review.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var docs []review.Document
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return docs, nil
}

func writeReport(out io.Writer, format string, r scoreReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "text", "":
		fmt.Fprintf(out, "kind:       %s\n", r.Kind)
		fmt.Fprintf(out, "reviews:    %d\n", r.Reviews)
		if r.Skipped > 0 {
			fmt.Fprintf(out, "skipped:    %d\n", r.Skipped)
		}
		fmt.Fprintf(out, "score:      %s\n", strconv.FormatFloat(r.Score, 'g', -1, 64))
		fmt.Fprintf(out, "summary:    %s\n", r.Summary)
		if r.Difference != nil {
			fmt.Fprintf(out, "candidate:  %s\n", strconv.FormatFloat(*r.Candidate, 'g', -1, 64))
			fmt.Fprintf(out, "difference: %s\n", strconv.FormatFloat(*r.Difference, 'g', -1, 64))
			fmt.Fprintf(out, "level:      %s\n", *r.Level)
		}
		return nil
	}
	return exitError(2, "unknown format %q", format)
}
