package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"rateio/internal/core"
	"rateio/internal/sheets"
)

var _ sheets.Mirror = (*Client)(nil)

type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountFile string
	ServiceAccountJSON string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	sheetID       int64
}

// New creates a Sheets client authenticated with a service account and
// ensures the mirror sheet carries its header row.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := credentialsJSON(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	c := &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetName: cfg.SheetName}
	if c.sheetID, err = c.lookupSheetID(ctx); err != nil {
		return nil, err
	}
	if err := c.ensureHeader(ctx); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Google Sheets mirror ready", "sheet", cfg.SheetName, "sheet_id", c.sheetID)
	return c, nil
}

func credentialsJSON(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case cfg.ServiceAccountFile != "":
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

func (c *Client) lookupSheetID(ctx context.Context) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
}

func (c *Client) ensureHeader(ctx context.Context) error {
	rng := fmt.Sprintf("%s!A1:E1", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{sheets.Header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// UpsertExpense rewrites the row holding e.ID, or appends one.
func (c *Client) UpsertExpense(ctx context.Context, e core.Expense) error {
	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	vr := &gsheet.ValueRange{Values: [][]any{sheets.ExpenseRow(e)}}

	if row := findRow(ids, e.ID); row > 0 {
		rng := fmt.Sprintf("%s!A%d:E%d", c.sheetName, row, row)
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update row %d: %w", row, err)
		}
		slog.InfoContext(ctx, "Updated mirrored expense", "id", e.ID, "row", row)
		return nil
	}

	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.sheetName+"!A:E", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	slog.InfoContext(ctx, "Appended mirrored expense", "id", e.ID)
	return nil
}

// DeleteExpense removes the row holding id. A missing row is not an error.
func (c *Client) DeleteExpense(ctx context.Context, id int64) error {
	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	row := findRow(ids, id)
	if row == 0 {
		slog.InfoContext(ctx, "Mirrored expense already absent", "id", id)
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    c.sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d: %w", row, err)
	}
	slog.InfoContext(ctx, "Deleted mirrored expense", "id", id, "row", row)
	return nil
}

func (c *Client) readIDs(ctx context.Context) ([][]any, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.sheetName+"!A:A").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read id column: %w", err)
	}
	return resp.Values, nil
}

// findRow returns the 1-based sheet row whose first cell equals id, skipping
// the header, or 0 when absent.
func findRow(values [][]any, id int64) int {
	want := strconv.FormatInt(id, 10)
	for i, row := range values {
		if i == 0 || len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == want {
			return i + 1
		}
	}
	return 0
}
