// Package export reads and writes call spreadsheets.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/MikeSquared-Agency/callscope/internal/store"
)

const (
	SheetCalls   = "Calls"
	SheetSummary = "Summary"
)

var callHeader = []any{"ID", "Created At", "File Hash", "Sentiment", "Issue Category", "Urgency", "Agent Behavior", "Call Outcome", "LLM Status", "Transcript"}

// WriteCalls writes calls and their distribution summary as an xlsx workbook.
func WriteCalls(w io.Writer, calls []store.Call, sum store.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetCalls); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := setRow(f, SheetCalls, 1, callHeader); err != nil {
		return err
	}
	for i, c := range calls {
		hash := ""
		if c.FileHash != nil {
			hash = *c.FileHash
		}
		row := []any{
			c.ID,
			c.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			hash,
			string(c.Sentiment),
			strings.Join(c.CategoryStrings(), ", "),
			string(c.Urgency),
			string(c.AgentBehavior),
			string(c.CallOutcome),
			c.LLMStatus,
			c.Transcript,
		}
		if err := setRow(f, SheetCalls, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}
	if err := setRow(f, SheetSummary, 1, []any{"Field", "Value", "Count"}); err != nil {
		return err
	}
	r := 2
	for _, dist := range []struct {
		name   string
		counts map[string]int
	}{
		{"sentiment", sum.Sentiment},
		{"urgency", sum.Urgency},
		{"call_outcome", sum.CallOutcome},
	} {
		keys := make([]string, 0, len(dist.counts))
		for k := range dist.counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := setRow(f, SheetSummary, r, []any{dist.name, k, dist.counts[k]}); err != nil {
				return err
			}
			r++
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Transcript is one non-empty transcript cell and its 1-based sheet row.
type Transcript struct {
	Row  int
	Text string
}

// ReadTranscripts returns the non-empty cells of the transcript column of
// the first sheet. The column is the first header containing "transcript"
// or "text", falling back to the first column.
func ReadTranscripts(r io.Reader) ([]Transcript, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	col := 0
	for i, h := range rows[0] {
		n := strings.ToLower(strings.TrimSpace(h))
		if strings.Contains(n, "transcript") || strings.Contains(n, "text") {
			col = i
			break
		}
	}

	var out []Transcript
	for i, row := range rows[1:] {
		if col >= len(row) {
			continue
		}
		if s := strings.TrimSpace(row[col]); s != "" {
			out = append(out, Transcript{Row: i + 2, Text: s})
		}
	}
	return out, nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
