package cli

import (
	"fmt"

	"github.com/devclub/formsheets/engine/sheets"
	"github.com/devclub/formsheets/pkg/config"
	"github.com/devclub/formsheets/pkg/config/definition"
	"github.com/devclub/formsheets/pkg/logger"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"
)

// SetupSheetCmd writes the header row of the configured sheet.
func SetupSheetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup-sheet",
		Short: "Write the header row to the configured spreadsheet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetupSheet(cmd)
		},
	}
	addRegistryFlags(cmd.Flags(), definition.CreateRegistry(), "sheets.spreadsheet_id", "sheets.credentials_file")
	return cmd
}

func runSetupSheet(cmd *cobra.Command, extra ...option.ClientOption) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	if cfg.Sheets.SpreadsheetID == "" {
		return sheets.ErrNoSpreadsheet
	}
	repo, err := sheets.NewRepository(ctx, &cfg.Sheets, extra...)
	if err != nil {
		return err
	}
	if err := repo.SetupHeaders(ctx); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	logger.FromContext(ctx).Info("Header row written",
		"spreadsheet", cfg.Sheets.SpreadsheetID,
		"range", cfg.Sheets.HeaderRange(),
		"columns", len(sheets.Headers),
	)
	return nil
}
