package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/strudel-science/runmonitor/core/filter"
)

// ErrNothingToExport is returned when an export is requested for an empty
// visible set.
var ErrNothingToExport = errors.New("nothing to export")

// Saver hands a finished file to whatever delivers it: a directory, an HTTP
// response, a browser bridge.
type Saver interface {
	Save(ctx context.Context, filename, contentType string, data []byte) error
}

// DirSaver writes exports into a directory.
type DirSaver struct {
	Dir  string
	Perm os.FileMode
}

// Save writes data to Dir/filename, creating Dir when needed. Any directory
// part of filename is ignored.
func (d DirSaver) Save(ctx context.Context, filename, contentType string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	perm := d.Perm
	if perm == 0 {
		perm = 0o644
	}
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory %q: %w", dir, err)
	}
	path := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("failed to write export %q: %w", path, err)
	}
	return nil
}

// Exporter serializes a visible row set and hands it to a Saver under a name
// derived from the active filters.
type Exporter struct {
	headers   []string
	filenames Generator
	logger    *zap.Logger
}

// NewExporter creates an Exporter writing the given columns.
func NewExporter(headers []string, filenames Generator, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		headers:   headers,
		filenames: filenames,
		logger:    logger,
	}
}

// Headers returns the exported columns.
func (e *Exporter) Headers() []string {
	return e.headers
}

// Export saves rows and returns the filename used.
func (e *Exporter) Export(ctx context.Context, saver Saver, rows []filter.Row, filters []filter.ActiveFilter) (string, error) {
	if len(rows) == 0 {
		return "", ErrNothingToExport
	}
	content := ConvertToCSV(rows, e.headers)
	filename := e.filenames.Filename(filters)

	if err := saver.Save(ctx, filename, ContentType, []byte(content)); err != nil {
		e.logger.Error("Export failed", zap.String("filename", filename), zap.Error(err))
		return "", fmt.Errorf("failed to save export %q: %w", filename, err)
	}
	e.logger.Info("Exported rows",
		zap.String("filename", filename),
		zap.Int("rows", len(rows)),
		zap.Int("bytes", len(content)),
	)
	return filename, nil
}
