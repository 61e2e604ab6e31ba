package cli

import (
	"context"
	"fmt"

	"github.com/devclub/formsheets/pkg/config"
	"github.com/devclub/formsheets/pkg/config/definition"
	"github.com/devclub/formsheets/pkg/logger"
	"github.com/spf13/cobra"
)

const (
	defaultConfigFile = "formsheets.yaml"
	defaultEnvFile    = ".env"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "formsheets",
		Short:         "Typeform webhook to Google Sheets intake service",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return SetupGlobalConfig(cmd)
		},
	}
	addGlobalFlags(root)
	root.AddCommand(
		ServeCmd(),
		SetupSheetCmd(),
		SendSampleCmd(),
		ConfigCmd(),
		VersionCmd(),
	)
	return root
}

func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", defaultConfigFile, "Path to the YAML configuration file")
	flags.String("env-file", defaultEnvFile, "Path to a .env file loaded before configuration")
	addRegistryFlags(flags, definition.CreateRegistry(), "runtime.log_level", "runtime.log_json", "runtime.log_source")
}

// SetupGlobalConfig loads the .env file and the configuration, then attaches
// the config and a logger to the command context.
func SetupGlobalConfig(cmd *cobra.Command) error {
	if _, err := loadEnvFile(cmd); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := loadConfig(ctx, cmd, configFile)
	if err != nil {
		return err
	}
	log := logger.SetupLogger(logger.ParseLevel(cfg.Runtime.LogLevel), cfg.Runtime.LogJSON, cfg.Runtime.LogSource)
	ctx = config.ContextWithConfig(ctx, cfg)
	ctx = logger.ContextWithLogger(ctx, log)
	cmd.SetContext(ctx)
	return nil
}
