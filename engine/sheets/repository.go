package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devclub/formsheets/pkg/config"
	"github.com/devclub/formsheets/pkg/logger"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

var ErrNoSpreadsheet = errors.New("spreadsheet id not configured")

// Headers is the header row matching the 11-cell submission row.
var Headers = []string{
	"NOME",
	"EMAIL",
	"TELEFONE",
	"CPF",
	"ENDEREÇO",
	"CIDADE",
	"ESTADO",
	"CEP",
	"RASTREIO",
	"STATUS",
	"BÔNUS ESCOLHIDO",
}

// Repository appends submission rows to a Google spreadsheet.
type Repository struct {
	svc         *gsheets.Service
	id          string
	appendRange string
	headerRange string
	inputOption string
	timeout     time.Duration
}

// NewRepository creates the Sheets client described by cfg. Without a
// credentials file, application default credentials are used. Extra options
// replace credential discovery.
func NewRepository(ctx context.Context, cfg *config.SheetsConfig, extra ...option.ClientOption) (*Repository, error) {
	opts := make([]option.ClientOption, 0, len(extra)+2)
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	switch {
	case len(extra) > 0:
	case cfg.SpreadsheetID == "":
		// Nothing can be written; skip credential discovery so the service
		// still starts and reports the sheet as unavailable.
		opts = append(opts, option.WithoutAuthentication())
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile), option.WithScopes(gsheets.SpreadsheetsScope))
	default:
		opts = append(opts, option.WithScopes(gsheets.SpreadsheetsScope))
	}
	opts = append(opts, extra...)
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Repository{
		svc:         svc,
		id:          cfg.SpreadsheetID,
		appendRange: cfg.AppendRange(),
		headerRange: cfg.HeaderRange(),
		inputOption: cfg.ValueInputOption,
		timeout:     timeout,
	}, nil
}

// AppendRow appends cells as a new row after the last populated one.
func (r *Repository) AppendRow(ctx context.Context, cells []string) error {
	if r.id == "" {
		return ErrNoSpreadsheet
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	resp, err := r.svc.Spreadsheets.Values.
		Append(r.id, r.appendRange, valueRange(cells)).
		ValueInputOption(r.inputOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	if resp.Updates != nil {
		logger.FromContext(ctx).Debug("row appended", "range", resp.Updates.UpdatedRange, "cells", resp.Updates.UpdatedCells)
	}
	return nil
}

// SetupHeaders writes the header row over the first line of the sheet.
func (r *Repository) SetupHeaders(ctx context.Context) error {
	if r.id == "" {
		return ErrNoSpreadsheet
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	_, err := r.svc.Spreadsheets.Values.
		Update(r.id, r.headerRange, valueRange(Headers)).
		ValueInputOption(r.inputOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write headers: %w", err)
	}
	return nil
}

// IsAvailable fetches the spreadsheet title to prove the credentials and
// the spreadsheet id work together.
func (r *Repository) IsAvailable(ctx context.Context) bool {
	if r == nil || r.id == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	_, err := r.svc.Spreadsheets.Get(r.id).Fields("properties/title").Context(ctx).Do()
	if err != nil {
		logger.FromContext(ctx).Warn("sheets health probe failed", "error", err)
		return false
	}
	return true
}

func valueRange(cells []string) *gsheets.ValueRange {
	row := make([]any, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return &gsheets.ValueRange{Values: [][]any{row}}
}
