// Package source loads the rows the filter engine works on.
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/strudel-science/runmonitor/core/filter"
)

// ErrNoHeader is returned when a CSV input has records but no usable column
// names in its first line.
var ErrNoHeader = errors.New("csv input has no header row")

// Source produces a full row set on every call.
type Source interface {
	Load(ctx context.Context) ([]filter.Row, error)
}

// Mapping renames source columns to row fields. Columns without an entry are
// dropped. A nil Mapping keeps every column under its own name.
type Mapping map[string]string

func (m Mapping) field(column string) (string, bool) {
	if m == nil {
		return column, true
	}
	f, ok := m[column]
	return f, ok
}

// ReadCSV parses r as comma-separated records with a header line. Every value
// is kept as a string; short records leave their trailing fields absent.
func ReadCSV(r io.Reader, mapping Mapping) ([]filter.Row, error) {
	return readCSV(context.Background(), r, mapping)
}

func readCSV(ctx context.Context, r io.Reader, mapping Mapping) ([]filter.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	fields := make([]string, len(header))
	keep := make([]bool, len(header))
	named := false
	for i, column := range header {
		if i == 0 {
			column = strings.TrimPrefix(column, "\ufeff")
		}
		if column != "" {
			named = true
		}
		fields[i], keep[i] = mapping.field(column)
	}
	if !named {
		return nil, ErrNoHeader
	}

	var rows []filter.Row
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record %d: %w", len(rows)+1, err)
		}

		row := make(filter.Row, len(fields))
		for i, value := range record {
			if i >= len(fields) || !keep[i] {
				continue
			}
			row[fields[i]] = value
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// File loads rows from a CSV file on disk.
type File struct {
	Path    string
	Mapping Mapping
	logger  *zap.Logger
}

var _ Source = (*File)(nil)

// NewFile creates a file source.
func NewFile(path string, mapping Mapping, logger *zap.Logger) *File {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &File{Path: path, Mapping: mapping, logger: logger}
}

// Load reads the whole file.
func (f *File) Load(ctx context.Context) ([]filter.Row, error) {
	logger := f.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", f.Path, err)
	}
	defer fh.Close()

	rows, err := readCSV(ctx, fh, f.Mapping)
	if err != nil {
		logger.Error("Failed to load rows", zap.String("path", f.Path), zap.Error(err))
		return nil, fmt.Errorf("failed to load %q: %w", f.Path, err)
	}
	logger.Debug("Loaded rows", zap.String("path", f.Path), zap.Int("rows", len(rows)))
	return rows, nil
}
