// Package spreadsheet reads user rows from uploaded workbooks and writes
// table views out as XLSX.
package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

const maxRows = 100000

var (
	ErrEmptySheet = errors.New("worksheet is empty")
	ErrNoSheet    = errors.New("no worksheet found")
	ErrManySheets = errors.New("multiple worksheets found; upload a file with a single sheet")
)

type format int

const (
	formatXLSX format = iota
	formatXLS
)

// oleMagic opens every legacy compound-document .xls file.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// detect sniffs the workbook format, falling back to the file extension when
// the content is neither an OLE nor a zip container.
func detect(data []byte, filename string) format {
	switch {
	case bytes.HasPrefix(data, oleMagic):
		return formatXLS
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return formatXLSX
	case strings.EqualFold(filepath.Ext(filename), ".xls"):
		return formatXLS
	default:
		return formatXLSX
	}
}

// ReadRows returns every cell of the single worksheet in an uploaded
// workbook. Trailing blank rows are dropped.
func ReadRows(reader io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	if detect(data, filename) == formatXLS {
		rows, err = readXLS(data)
	} else {
		rows, err = readXLSX(data)
	}
	if err != nil {
		return nil, err
	}
	for len(rows) > 0 && blank(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	return rows, nil
}

func readXLS(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if err := singleSheet(workbook.NumSheets()); err != nil {
		return nil, err
	}
	return workbook.ReadAllCells(maxRows), nil
}

func readXLSX(data []byte) ([][]string, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = workbook.Close() }()

	sheets := workbook.GetSheetList()
	if err := singleSheet(len(sheets)); err != nil {
		return nil, err
	}
	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sheets[0], err)
	}
	return rows, nil
}

func singleSheet(n int) error {
	switch {
	case n == 0:
		return ErrNoSheet
	case n > 1:
		return ErrManySheets
	}
	return nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Sheet is a header row plus data rows.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// WriteXLSX encodes sheet as a single-worksheet workbook.
func WriteXLSX(w io.Writer, sheet Sheet) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	name := sheet.Name
	if name == "" {
		name = "Sheet1"
	}
	if name != "Sheet1" {
		if err := file.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	}

	header := make([]any, len(sheet.Headers))
	for i, h := range sheet.Headers {
		header[i] = h
	}
	if err := file.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := file.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Header finds the column index of the first header matching one of names,
// compared case-insensitively.
func Header(headers []string, names ...string) int {
	for i, h := range headers {
		normalized := strings.ToLower(strings.TrimSpace(h))
		for _, name := range names {
			if normalized == strings.ToLower(name) {
				return i
			}
		}
	}
	return -1
}

func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ParseDate accepts the date layouts admins tend to type plus Excel serial
// numbers and returns the time.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	// Excel numeric date serial (common in XLS/XLSX exports). Plain years
	// fall below the range.
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial >= 20000 && serial <= 80000 {
			if parsed, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	}

	layouts := []string{
		"2006-01-02",
		"2/1/2006",
		"02/01/2006",
		"2-1-2006",
		"02-01-2006",
		"2006/01/02",
		"Jan 2, 2006",
		"January 2, 2006",
		"2 Jan 2006",
		"2006-01-02 15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate returns value as YYYY-MM-DD when it parses.
func NormalizeDate(value string) (string, bool) {
	parsed, ok := ParseDate(value)
	if !ok {
		return "", false
	}
	return parsed.Format("2006-01-02"), true
}
