// Package cmd implements the apichat command-line interface.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/apichat0/apichat/internal/app"
	"github.com/apichat0/apichat/internal/config"
	"github.com/apichat0/apichat/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "apichat",
	Short: "Catalyst Center REST API documentation assistant",
	Long: `apichat answers questions about the Cisco Catalyst Center REST API.

It retrieves context from three indexed documentation sources (the PDF
user guide, the scraped API documentation site and the LLM-enriched API
specification) and asks the configured chat model to produce an answer
with example code.

Running apichat without a subcommand starts an interactive chat session.`,
	RunE:          runChat,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setupApp loads configuration, installs the logger and wires the
// application. Every subcommand starts here.
func setupApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := log.New(log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})
	slog.SetDefault(logger)

	return app.Setup(ctx, cfg, logger)
}
