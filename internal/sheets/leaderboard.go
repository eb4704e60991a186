package sheets

import (
	"context"
	"fmt"

	sheetsv4 "google.golang.org/api/sheets/v4"

	"ultrafantasi/internal/logger"
)

const SheetLeaderboard = "Leaderboard"

// WriteLeaderboard replaces the contents of the Leaderboard sheet with grid, creating the
// sheet when the spreadsheet does not have one yet.
func (c *Client) WriteLeaderboard(ctx context.Context, grid [][]string) error {
	if err := c.ensureSheet(ctx, SheetLeaderboard); err != nil {
		return err
	}
	_, err := c.srv.Spreadsheets.Values.Clear(c.spreadsheetID, SheetLeaderboard+"!A:ZZ", &sheetsv4.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", SheetLeaderboard, err)
	}
	vr := &sheetsv4.ValueRange{Values: toValues(grid)}
	_, err = c.srv.Spreadsheets.Values.Update(c.spreadsheetID, SheetLeaderboard+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", SheetLeaderboard, err)
	}
	return nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	ss, err := c.srv.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	var titles []string
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	if hasSheet(titles, title) {
		return nil
	}
	req := &sheetsv4.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsv4.Request{
			{AddSheet: &sheetsv4.AddSheetRequest{Properties: &sheetsv4.SheetProperties{Title: title}}},
		},
	}
	if _, err := c.srv.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	logger.Info("[SHEETS] created sheet %s", title)
	return nil
}

func hasSheet(titles []string, title string) bool {
	for _, t := range titles {
		if t == title {
			return true
		}
	}
	return false
}

// toValues converts grid to the cell layout the Sheets API expects. Numeric columns stay
// strings so RAW input keeps them verbatim.
func toValues(grid [][]string) [][]interface{} {
	out := make([][]interface{}, len(grid))
	for i, row := range grid {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}
