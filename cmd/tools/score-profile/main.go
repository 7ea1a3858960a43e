// cmd/tools/score-profile/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"credit-scoring-workers/internal/bootstrap"
	"credit-scoring-workers/internal/common/config"
	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/scoring"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type options struct {
	file        string
	configPath  string
	withHistory bool
	logLevel    string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "score-profile",
		Short: "Score an applicant profile offline",
		Long: `Reads an applicant profile from a JSON or YAML file, runs the credit
scoring engine and prints the result as indented JSON.

Without --with-history the profile is scored against an empty sample.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "applicant profile (.json, .yaml or .yml)")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "config file used with --with-history (defaults to configs/config.yaml lookup)")
	cmd.Flags().BoolVar(&opts.withHistory, "with-history", false, "load the historical sample from PostgreSQL")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "log level")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func run(ctx context.Context, opts *options, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.NewStructured(opts.logLevel, "console", "stderr")

	profile, err := loadProfile(opts.file)
	if err != nil {
		return err
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	var engine *scoring.Engine
	if opts.withHistory {
		cfg, err := loadConfig(opts.configPath)
		if err != nil {
			return err
		}
		clients, err := bootstrap.Connect(ctx, cfg, bootstrap.RetryPolicy{Attempts: 1}, log)
		if err != nil {
			return err
		}
		defer clients.Close()

		// read-only: never write runs from the CLI
		cfg.Scoring.PersistResults = false
		if engine, err = bootstrap.NewEngine(ctx, cfg, clients, log); err != nil {
			return err
		}
	} else {
		engine = scoring.New(nil, nil, log)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res := engine.Score(ctx, profile)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromFile(path)
}

// loadProfile decodes a profile file. YAML keys use the same camelCase names
// as the job variables.
func loadProfile(path string) (scoring.ApplicantProfile, error) {
	var p scoring.ApplicantProfile

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc map[string]interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return p, fmt.Errorf("parse yaml profile: %w", err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return p, fmt.Errorf("convert yaml profile: %w", err)
		}
	case ".json", "":
	default:
		return p, fmt.Errorf("unsupported profile format %q", filepath.Ext(path))
	}

	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return p, fmt.Errorf("parse profile: %w", err)
	}
	return p, nil
}
