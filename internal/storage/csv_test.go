package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnadela/immoeliza-analysis/internal/table"
)

func TestParseCSV(t *testing.T) {
	input := "\ufeffID,City,Price\n1,\"Brussels, Centre\",250000\n2,Gent\n"

	tbl, err := ParseCSV(strings.NewReader(input), "raw")
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.Len())
	assert.True(t, tbl.Has("id"))
	assert.Equal(t, "Brussels, Centre", tbl.Cell(tbl.Rows[0], "City"))
	assert.Equal(t, "", tbl.Cell(tbl.Rows[1], "Price"))
}

func TestParseCSV_EmptyInputIsStructural(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""), "raw")

	var structural *table.StructuralError
	require.True(t, errors.As(err, &structural))
	assert.Equal(t, "raw", structural.Table)
}

func TestWriteAndReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	original := table.New("out", []string{"a", "b"}, [][]string{{"1", "x,y"}, {"2", ""}})

	require.NoError(t, WriteCSV(path, original))

	read, err := ReadCSV(path, "out")
	require.NoError(t, err)
	assert.Equal(t, original.Header, read.Header)
	assert.Equal(t, original.Rows, read.Rows)
}

func TestReadCSV_MissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"), "raw")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestEncodeCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, table.New("t", []string{"a"}, [][]string{{"1"}})))
	assert.Equal(t, "a\n1\n", buf.String())
}
