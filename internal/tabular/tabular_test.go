package tabular

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDecodeCSV(t *testing.T) {
	in := "Name,Email,Program\nAnn Lee,ann@x.com,Data Engineering\nBo,bo@y.org,\n"

	rows, err := Decode(strings.NewReader(in), "recipients.csv")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Ann Lee", rows[0]["Name"])
	assert.Equal(t, "ann@x.com", rows[0]["Email"])
	assert.Equal(t, "Data Engineering", rows[0]["Program"])
	assert.Equal(t, "", rows[1]["Program"])
}

func TestDecodeCSVStripsBOM(t *testing.T) {
	in := "\ufeffName,Email\nAnn,ann@x.com\n"

	rows, err := Decode(strings.NewReader(in), "recipients.csv")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ann", rows[0]["Name"])
}

func TestDecodeCSVHeaderOnly(t *testing.T) {
	rows, err := Decode(strings.NewReader("Name,Email\n"), "recipients.csv")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDecodeCSVEmptyInput(t *testing.T) {
	_, err := Decode(strings.NewReader(""), "recipients.csv")
	require.ErrorIs(t, err, ErrBadFormat)
}

func TestDecodeCSVRaggedRows(t *testing.T) {
	in := "Name,Email\nAnn,ann@x.com,extra-cell\n"

	_, err := Decode(strings.NewReader(in), "recipients.csv")
	require.ErrorIs(t, err, ErrBadFormat)
}

func TestDecodeUnsupportedExtension(t *testing.T) {
	_, err := Decode(strings.NewReader("{}"), "recipients.json")
	require.ErrorIs(t, err, ErrBadFormat)
	assert.Contains(t, err.Error(), ".json")
}

func TestDecodeCSVSkipsBlankLines(t *testing.T) {
	in := "Name,Email\nAnn,ann@x.com\n,\nBo,bo@y.org\n"

	rows, err := Decode(strings.NewReader(in), "recipients.csv")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Bo", rows[1]["Name"])
}

func TestDecodeCSVDuplicateHeaderFirstWins(t *testing.T) {
	in := "Name,Name,Email\nfirst,second,a@b.com\n"

	rows, err := Decode(strings.NewReader(in), "recipients.csv")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "first", rows[0]["Name"])
}

func buildXLSX(t *testing.T, cells [][]string) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for r, line := range cells {
		for c, value := range line {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, value))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestDecodeXLSX(t *testing.T) {
	buf := buildXLSX(t, [][]string{
		{"Student Name", "Email", "Program"},
		{"Ann Lee", "ann@x.com", "Data Engineering"},
		{"Bo", "bo@y.org"},
	})

	rows, err := Decode(buf, "recipients.xlsx")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Ann Lee", rows[0]["Student Name"])
	// Short spreadsheet lines are padded with empty cells.
	assert.Equal(t, "", rows[1]["Program"])
}

func TestDecodeXLSXNotAWorkbook(t *testing.T) {
	_, err := Decode(strings.NewReader("definitely,not,a,zip"), "recipients.xlsx")
	require.ErrorIs(t, err, ErrBadFormat)
}
