// Package tasklist reads batch job lists: one URL per row in column A and an
// optional output name in column B.
package tasklist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
)

var ErrUnsupportedList = errors.New("unsupported list format, expected .csv or .xlsx")

// Task is one row of a list. Row is 1-based.
type Task struct {
	Row  int
	URL  string
	Name string
}

// Read loads the tasks of a .csv or .xlsx file. Blank rows are skipped,
// rows with an empty URL are kept so they show up as failures.
func Read(path string) ([]Task, error) {
	var (
		rows [][]string
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx":
		rows, err = readXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedList, path)
	}
	if err != nil {
		return nil, err
	}

	return toTasks(rows), nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list: %w", err)
	}
	defer f.Close()

	return parseCSV(f)
}

func parseCSV(r io.Reader) ([][]string, error) {
	rdr := csv.NewReader(r)
	rdr.FieldsPerRecord = -1
	rdr.LazyQuotes = true

	rows, err := rdr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	return rows, nil
}

func toTasks(rows [][]string) []Task {
	return lo.FilterMap(rows, func(row []string, i int) (Task, bool) {
		cells := lo.Map(row, func(c string, _ int) string { return strings.TrimSpace(c) })
		if len(lo.Compact(cells)) == 0 {
			return Task{}, false
		}

		t := Task{Row: i + 1, URL: strings.TrimPrefix(cells[0], "\ufeff")}
		if len(cells) > 1 {
			t.Name = cells[1]
		}

		return t, true
	})
}
