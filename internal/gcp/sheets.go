package gcp

import (
	"context"
	"fmt"
	"regexp"

	"google.golang.org/api/sheets/v4"
)

// spreadsheetIDPattern extracts the document ID from a full Google Sheets URL.
var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// SpreadsheetIDFromURL pulls the spreadsheet ID out of a sharing URL.
func SpreadsheetIDFromURL(url string) (string, error) {
	m := spreadsheetIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", fmt.Errorf("invalid Google Sheets URL: %s", url)
	}
	return m[1], nil
}

// SheetsClient is the tabular store: it reads and writes cell ranges of one
// spreadsheet. Range addressing is the usual "<sheet>!<origin>:<end>" form.
type SheetsClient struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewSheetsClient creates a Sheets API client bound to one spreadsheet,
// using application-default credentials.
func NewSheetsClient(ctx context.Context, spreadsheetID string) (*SheetsClient, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheetID must be provided to create a sheets client")
	}
	svc, err := sheets.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsClient{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// Read fetches the given range and stringifies every cell.
func (c *SheetsClient) Read(ctx context.Context, rangeName string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rangeName).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", rangeName, err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, fmt.Sprint(cell))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// Write overwrites the given range with values and returns the updated cell
// count. USER_ENTERED matches what a user typing into the sheet would get.
func (c *SheetsClient) Write(ctx context.Context, rangeName string, values [][]string) (int, error) {
	body := &sheets.ValueRange{Values: toCellValues(values)}
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rangeName, body).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("failed to update range %s: %w", rangeName, err)
	}
	return int(resp.UpdatedCells), nil
}

func toCellValues(values [][]string) [][]interface{} {
	out := make([][]interface{}, len(values))
	for i, row := range values {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		out[i] = cells
	}
	return out
}
