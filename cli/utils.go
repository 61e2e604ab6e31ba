package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/devclub/formsheets/pkg/config"
	"github.com/devclub/formsheets/pkg/config/definition"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// extractCLIFlags collects the registry-backed flags the user explicitly
// set, keyed by flag name.
func extractCLIFlags(cmd *cobra.Command, flags map[string]any) {
	registry := definition.CreateRegistry()
	fs := cmd.Flags()
	for flagName, path := range registry.FlagPaths() {
		if fs.Lookup(flagName) == nil || !fs.Changed(flagName) {
			continue
		}
		field, _ := registry.Field(path)
		if value, err := flagValue(fs, &field); err == nil {
			flags[flagName] = value
		}
	}
}

// loadConfig layers the YAML file and explicit CLI flags over defaults and
// the environment.
func loadConfig(ctx context.Context, cmd *cobra.Command, configFile string) (*config.Config, error) {
	return loadConfigWith(ctx, cmd, config.NewService(), configFile)
}

func loadConfigWith(
	ctx context.Context,
	cmd *cobra.Command,
	service config.Service,
	configFile string,
) (*config.Config, error) {
	sources := []config.Source{config.NewYAMLProvider(configFile)}
	cliFlags := make(map[string]any)
	extractCLIFlags(cmd, cliFlags)
	if len(cliFlags) > 0 {
		sources = append(sources, config.NewCLIProvider(cliFlags))
	}
	cfg, err := service.Load(ctx, sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// loadEnvFile loads environment variables from a file inside the working
// directory. A missing file is not an error.
func loadEnvFile(cmd *cobra.Command) (string, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return "", fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if envFile == "" {
		return "", nil
	}
	pwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	if !filepath.IsAbs(envFile) {
		envFile = filepath.Join(pwd, envFile)
	}
	absPath, err := filepath.Abs(filepath.Clean(envFile))
	if err != nil {
		return "", fmt.Errorf("failed to resolve env file path: %w", err)
	}
	if !isPathWithinDirectory(absPath, pwd) {
		return "", fmt.Errorf("env file path '%s' is outside the project directory", envFile)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return absPath, nil
		}
		return "", fmt.Errorf("failed to stat env file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("env file path '%s' is not a regular file", envFile)
	}
	if err := godotenv.Load(absPath); err != nil {
		return "", fmt.Errorf("failed to load env file %s: %w", absPath, err)
	}
	return absPath, nil
}

func isPathWithinDirectory(path, dir string) bool {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(filepath.Clean(dir))
	if err != nil {
		return false
	}
	if !strings.HasSuffix(absDir, string(filepath.Separator)) {
		absDir += string(filepath.Separator)
	}
	return strings.HasPrefix(absPath, absDir) || absPath == strings.TrimSuffix(absDir, string(filepath.Separator))
}
