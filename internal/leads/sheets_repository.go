package leads

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsRepository appends leads as rows of a Google Sheet.
type SheetsRepository struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string

	mu            sync.Mutex
	headerChecked bool
}

// NewSheetsRepository builds a sink from a Sheets service. sheetName defaults to "Leads".
func NewSheetsRepository(svc *sheets.Service, spreadsheetID, sheetName string) *SheetsRepository {
	if svc == nil {
		panic("leads: sheets service required")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Leads"
	}
	return &SheetsRepository{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

// NewSheetsService authenticates with a service-account credentials file.
func NewSheetsService(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*sheets.Service, error) {
	all := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if credentialsFile != "" {
		all = append(all, option.WithCredentialsFile(credentialsFile))
	}
	all = append(all, opts...)
	svc, err := sheets.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("leads: sheets service: %w", err)
	}
	return svc, nil
}

// Append writes the header row when the sheet is empty, then appends lead.
func (r *SheetsRepository) Append(ctx context.Context, lead ScoredLead) error {
	if err := r.ensureHeader(ctx); err != nil {
		return err
	}
	row := toCells(RecordRow(lead))
	_, err := r.svc.Spreadsheets.Values.
		Append(r.spreadsheetID, r.sheetName+"!A1", &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("leads: sheets append: %w", err)
	}
	return nil
}

func (r *SheetsRepository) ensureHeader(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.headerChecked {
		return nil
	}

	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, r.sheetName+"!A1:A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("leads: sheets read header: %w", err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		_, err := r.svc.Spreadsheets.Values.
			Update(r.spreadsheetID, r.sheetName+"!A1", &sheets.ValueRange{Values: [][]interface{}{toCells(RecordHeader)}}).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("leads: sheets write header: %w", err)
		}
	}
	r.headerChecked = true
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
