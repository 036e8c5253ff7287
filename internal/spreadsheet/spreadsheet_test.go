package spreadsheet

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteThenReadXLSX(t *testing.T) {
	var buf bytes.Buffer
	err := WriteXLSX(&buf, Sheet{
		Name:    "Users",
		Headers: []string{"UserID", "FirstName", "Bookings"},
		Rows: [][]any{
			{"US001", "Lan", 3},
			{"US002", "Binh", 0},
		},
	})
	require.NoError(t, err)

	rows, err := ReadRows(&buf, "export.xlsx")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"UserID", "FirstName", "Bookings"}, rows[0])
	assert.Equal(t, []string{"US001", "Lan", "3"}, rows[1])
}

func TestReadRowsRejectsGarbage(t *testing.T) {
	_, err := ReadRows(strings.NewReader("not a workbook"), "users.xlsx")
	assert.Error(t, err)
}

func TestReadRowsSniffsFormatOverExtension(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, Sheet{Headers: []string{"UserID"}, Rows: [][]any{{"US001"}}}))
	assert.Equal(t, formatXLSX, detect(buf.Bytes(), "renamed.xls"))
	assert.Equal(t, formatXLS, detect(append(append([]byte{}, oleMagic...), 0, 0), "upload.xlsx"))
	assert.Equal(t, formatXLS, detect([]byte("junk"), "old.XLS"))

	rows, err := ReadRows(&buf, "renamed.xls")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"UserID"}, {"US001"}}, rows)
}

func TestReadRowsRejectsMultipleSheets(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet("Second")
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = ReadRows(&buf, "two.xlsx")
	assert.ErrorIs(t, err, ErrManySheets)
}

func TestReadRowsEmptySheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, Sheet{Headers: []string{" "}}))
	_, err := ReadRows(&buf, "blank.xlsx")
	assert.ErrorIs(t, err, ErrEmptySheet)
}

func TestHeaderAndCell(t *testing.T) {
	headers := []string{" User ID ", "Email", "Phone"}
	assert.Equal(t, 0, Header(headers, "userid", "user id"))
	assert.Equal(t, 1, Header(headers, "EMAIL"))
	assert.Equal(t, -1, Header(headers, "gender"))

	row := []string{"US001", "  a@b.vn "}
	assert.Equal(t, "a@b.vn", Cell(row, 1))
	assert.Equal(t, "", Cell(row, 2))
	assert.Equal(t, "", Cell(row, -1))
}

func TestParseDate(t *testing.T) {
	cases := map[string]string{
		"1995-04-12":           "1995-04-12",
		"12/4/1995":            "1995-04-12",
		"12-04-1995":           "1995-04-12",
		"1995-04-12T00:00:00Z": "1995-04-12",
		"45000":                "2023-03-15",
	}
	for in, want := range cases {
		got, ok := NormalizeDate(in)
		assert.True(t, ok, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	for _, in := range []string{"", "1995", "someday"} {
		_, ok := ParseDate(in)
		assert.False(t, ok, "input %q", in)
	}
}

func TestParseDateReturnsTime(t *testing.T) {
	got, ok := ParseDate("Jan 2, 2006")
	require.True(t, ok)
	assert.Equal(t, time.January, got.Month())
}
