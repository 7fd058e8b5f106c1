// Package storage reads input tables and writes the stage outputs of a run.
package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gnadela/immoeliza-analysis/internal/table"
)

// ReadTable loads a CSV or XLSX file, picking the reader from the extension.
func ReadTable(path, name string) (*table.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, name, "")
	default:
		return ReadCSV(path, name)
	}
}

// ReadCSV loads a comma separated file with a header row.
func ReadCSV(path, name string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ParseCSV(f, name)
}

// ParseCSV reads a header row and data rows. Rows may be shorter or longer than the header.
func ParseCSV(r io.Reader, name string) (*table.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &table.StructuralError{Table: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", name, err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		rows = append(rows, record)
	}

	return table.New(name, header, rows), nil
}

// WriteCSV writes the table to path, creating parent directories.
func WriteCSV(path string, t *table.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := EncodeCSV(f, t); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// EncodeCSV writes the header and rows of t to w.
func EncodeCSV(w io.Writer, t *table.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}
