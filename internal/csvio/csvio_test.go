package csvio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadAll_StripsBOM(t *testing.T) {
	rows, err := ReadAll("\uFEFFa,b\n1,2\n")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "a", rows[0][0])
}

func TestReadAll_QuotedCommasAndNewlines(t *testing.T) {
	rows, err := ReadAll("name,note\n\"Doe, Jane\",\"line one\nline two\"\n")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Doe, Jane", rows[1][0])
	require.Equal(t, "line one\nline two", rows[1][1])
}

func TestReadAll_CRLFAndBlankRows(t *testing.T) {
	rows, err := ReadAll("a,b\r\n1,2\r\n,,\r\n\r\n3,4\r\n")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"3", "4"}, rows[2])
}

func TestReadAll_RaggedRows(t *testing.T) {
	rows, err := ReadAll("a,b,c\n1,2\n1,2,3,4\n")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Len(t, rows[1], 2)
	require.Len(t, rows[2], 4)
}

func TestWriteAll_RoundTrip(t *testing.T) {
	in := [][]string{
		{"name", "note"},
		{"Doe, Jane", "has \"quotes\" and\nnewline"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAll(&buf, in))

	out, err := ReadAll(buf.String())
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "order_key"))
	require.NoError(t, f.SetCellValue(sheet, "B1", "email"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "1001"))
	require.NoError(t, f.SetCellValue(sheet, "B2", "jane@example.com"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "1001", rows[1][0])
	require.Equal(t, "jane@example.com", rows[1][1])
}
