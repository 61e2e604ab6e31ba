package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/devclub/formsheets/pkg/config"
	"github.com/devclub/formsheets/pkg/config/definition"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

const redactedValue = "[REDACTED]"

// ConfigCmd groups configuration inspection commands.
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
	}
	cmd.AddCommand(ConfigShowCmd())
	return cmd
}

// ConfigShowCmd prints every registered key with its resolved value, the
// source that set it and the environment variable that overrides it.
func ConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show resolved configuration values and their sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd)
		},
	}
	cmd.Flags().StringP("format", "f", "table", "Output format (table, json)")
	return cmd
}

type configEntry struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source"`
	Env    string `json:"env,omitempty"`
}

func runConfigShow(cmd *cobra.Command) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	service := config.NewService()
	cfg, err := loadConfigWith(cmd.Context(), cmd, service, configFile)
	if err != nil {
		return err
	}
	entries, err := collectConfigEntries(cfg, service)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "table":
		return writeConfigTable(out, entries)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func collectConfigEntries(cfg *config.Config, service config.Service) ([]configEntry, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to flatten configuration: %w", err)
	}
	fields := definition.CreateRegistry().Fields()
	entries := make([]configEntry, 0, len(fields))
	for _, field := range fields {
		path := field.Path
		value := fmt.Sprintf("%v", k.Get(path))
		if config.IsSensitiveConfigPath(path) && value != "" {
			value = redactedValue
		}
		entries = append(entries, configEntry{
			Key:    path,
			Value:  value,
			Source: string(service.GetSource(path)),
			Env:    config.GetEnvVarForConfigPath(path),
		})
	}
	return entries, nil
}

func writeConfigTable(out io.Writer, entries []configEntry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE\tSOURCE\tENV")
	fmt.Fprintln(w, "---\t-----\t------\t---")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Key, e.Value, e.Source, e.Env)
	}
	return w.Flush()
}
