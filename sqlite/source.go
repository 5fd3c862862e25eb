// Package sqlite provides a read-only row source backed by a SQLite table.
// It selects the configured columns, converts driver values into row values
// and hands the rows to the filter engine unchanged otherwise.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"

	"github.com/strudel-science/runmonitor/core/filter"
	"github.com/strudel-science/runmonitor/core/source"
)

// Options configures which rows a Source reads.
type Options struct {
	// Table is the table to read, before TablePrefix is applied.
	Table       string
	TablePrefix string
	// Mapping renames table columns to row fields. When set, only mapped
	// columns are selected.
	Mapping source.Mapping
	// ListFields name row fields stored as JSON arrays.
	ListFields []string
	// Where restricts the scan with equality conditions on table columns.
	Where   squirrel.Eq
	OrderBy []string
	Limit   uint64
}

// DefaultOptions reads every column of the "runs" table.
func DefaultOptions() *Options {
	return &Options{
		Table: "runs",
	}
}

// Source loads rows from a SQLite database.
type Source struct {
	db      *sql.DB
	owned   bool
	options *Options
	builder squirrel.StatementBuilderType
	logger  *zap.Logger
}

var _ source.Source = (*Source)(nil)

// New creates a Source over an already opened database.
func New(db *sql.DB, logger *zap.Logger, options *Options) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options == nil {
		options = DefaultOptions()
	}
	return &Source{
		db:      db,
		options: options,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		logger:  logger,
	}
}

// Open opens the database file at path read-only. The returned Source owns
// the connection and must be closed.
func Open(path string, logger *zap.Logger, options *Options) (*Source, error) {
	db, err := sql.Open("sqlite3", readOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database %q: %w", path, err)
	}
	s := New(db, logger, options)
	s.owned = true
	return s, nil
}

// readOnlyDSN builds a read-only file URI for path. Each segment is escaped
// so "?", "#" and "%" in file names stay part of the path.
func readOnlyDSN(path string) string {
	segments := strings.Split(filepath.ToSlash(path), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return "file:" + strings.Join(segments, "/") + "?mode=ro&_busy_timeout=5000"
}

// Close releases the connection when the Source opened it.
func (s *Source) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// quoteIdentifier quotes a table or column name.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *Source) tableName() string {
	return quoteIdentifier(s.options.TablePrefix + s.options.Table)
}

// columns returns the selected table columns in a stable order, or nil for
// every column.
func (s *Source) columns() []string {
	if s.options.Mapping == nil {
		return nil
	}
	cols := make([]string, 0, len(s.options.Mapping))
	for col := range s.options.Mapping {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// Query returns the SELECT statement Load runs.
func (s *Source) Query() (string, []any, error) {
	if s.options.Table == "" {
		return "", nil, fmt.Errorf("sqlite source has no table")
	}

	cols := s.columns()
	selected := make([]string, 0, len(cols))
	for _, col := range cols {
		selected = append(selected, quoteIdentifier(col))
	}
	if len(selected) == 0 {
		selected = append(selected, "*")
	}

	q := s.builder.Select(selected...).From(s.tableName())
	if len(s.options.Where) > 0 {
		q = q.Where(s.options.Where)
	}
	if len(s.options.OrderBy) > 0 {
		q = q.OrderBy(s.options.OrderBy...)
	}
	if s.options.Limit > 0 {
		q = q.Limit(s.options.Limit)
	}
	return q.ToSql()
}

// Load runs the configured SELECT and converts every record into a row.
func (s *Source) Load(ctx context.Context) ([]filter.Row, error) {
	sqlQuery, params, err := s.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to build SELECT query: %w", err)
	}

	s.logger.Debug("Executing SQL SELECT", zap.String("sql", sqlQuery), zap.Any("params", params))

	rows, err := s.db.QueryContext(ctx, sqlQuery, params...)
	if err != nil {
		s.logger.Error("Failed to execute SELECT query", zap.Error(err), zap.String("sql", sqlQuery))
		return nil, fmt.Errorf("failed to execute SELECT query: %w", err)
	}
	defer rows.Close()

	result, err := readRows(s.logger, s.options, rows)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Loaded rows", zap.String("table", s.options.Table), zap.Int("rows", len(result)))
	return result, nil
}
