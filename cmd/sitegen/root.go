package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"codent.ru/codent-web/internal/config"
	"codent.ru/codent-web/internal/observability"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "sitegen",
		Short:         "Assemble the CO[D]ENT static site",
		Long:          "sitegen splices shared fragments into every page of a static site directory and writes the result for static hosting.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to site config file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level for fragment diagnostics")

	cmd.AddCommand(newBuildCmd(opts))
	cmd.AddCommand(newArticlesCmd(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sitegen %s (commit: %s)\n", version, commit)
		},
	})
	return cmd
}

func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func (o *rootOptions) logger(cmd *cobra.Command) *zap.Logger {
	return observability.NewWriterLogger(cmd.ErrOrStderr(), o.logLevel)
}
