package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/R3E-Network/heroapps/internal/app/runtime"
	"github.com/R3E-Network/heroapps/internal/config"
	"github.com/R3E-Network/heroapps/pkg/logger"
)

type rootOptions struct {
	configPath string
	port       int
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "heroapps",
		Short:         "Hero Apps catalogue API",
		Long:          "heroapps serves a read-only REST API for listing and fetching app records stored in MongoDB.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to YAML config (overrides HEROAPPS_CONFIG)")
	root.PersistentFlags().IntVarP(&opts.port, "port", "p", 0, "listen port (overrides PORT)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), opts)
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the effective configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				defer enc.Close()
				return enc.Encode(redact(cfg))
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), runtime.Version)
			},
		},
	)
	return root
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	if opts.configPath != "" {
		if err := os.Setenv("HEROAPPS_CONFIG", opts.configPath); err != nil {
			return nil, err
		}
	}
	if opts.port > 0 {
		if err := os.Setenv("PORT", fmt.Sprint(opts.port)); err != nil {
			return nil, err
		}
	}
	return config.Load()
}

func serve(parent context.Context, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		logger.NewDefault("heroapps").WithError(err).Error("load config")
		return err
	}
	log := logger.New(cfg.Logging)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := runtime.NewApplication(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("start heroapps")
		return err
	}

	runErr := app.Run(ctx)
	if runErr != nil {
		log.WithError(runErr).Error("server error")
	}

	log.Info("shutting down")
	if err := app.Shutdown(context.Background()); err != nil {
		log.WithError(err).Error("shutdown error")
		return err
	}
	return runErr
}

// redact hides credentials embedded in the connection string.
func redact(cfg *config.Config) *config.Config {
	out := *cfg
	if out.Mongo.URI != "" {
		out.Mongo.URI = "<redacted>"
	}
	return &out
}
