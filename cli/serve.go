package cli

import (
	"fmt"

	"github.com/devclub/formsheets/engine/infra/server"
	"github.com/devclub/formsheets/pkg/config"
	"github.com/devclub/formsheets/pkg/config/definition"
	"github.com/devclub/formsheets/pkg/logger"
	"github.com/spf13/cobra"
)

// ServeCmd starts the webhook HTTP server.
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
	addRegistryFlags(cmd.Flags(), definition.CreateRegistry(),
		"server.host", "server.port", "sheets.spreadsheet_id", "sheets.credentials_file")
	return cmd
}

func runServe(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	log := logger.FromContext(ctx)
	log.Info("Starting formsheets",
		"environment", cfg.Runtime.Environment,
		"verify", cfg.Webhook.Verify.Strategy,
		"dedupe", cfg.Webhook.Dedupe.Enabled,
	)
	deps, err := server.BuildDependencies(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build dependencies: %w", err)
	}
	srv, err := server.NewServer(ctx, deps)
	if err != nil {
		deps.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Run()
}
