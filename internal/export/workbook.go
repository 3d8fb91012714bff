package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/document-analyzer/internal/analysis"
)

func newWorkbook(sheet string) (*excelize.File, error) {
	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}
	return f, nil
}

func writeRow[T any](f *excelize.File, sheet string, row int, values []T) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
	}
	return nil
}

// window normalizes the export date range to whole UTC days. The upper bound
// covers the entire last day.
func window(from, to *time.Time, now time.Time) (*time.Time, *time.Time) {
	var fromTS, toTS *time.Time
	if from != nil {
		f := dateOnly(*from)
		fromTS = &f
	}
	if to != nil {
		t := dateOnly(*to)
		toTS = &t
	}
	if fromTS != nil && toTS == nil {
		t := dateOnly(now.UTC())
		toTS = &t
	}
	if toTS != nil {
		end := toTS.Add(24*time.Hour - time.Nanosecond)
		toTS = &end
	}
	return fromTS, toTS
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func orderedCategories(diff map[string]analysis.CategoryDiff) []string {
	known := make(map[string]bool, len(analysis.EntityCategories))
	out := make([]string, 0, len(diff))
	for _, c := range analysis.EntityCategories {
		known[c] = true
		if _, ok := diff[c]; ok {
			out = append(out, c)
		}
	}
	var extra []string
	for c := range diff {
		if !known[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
