package activity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/strudel-science/runmonitor/core/export"
	"github.com/strudel-science/runmonitor/core/filter"
	"github.com/strudel-science/runmonitor/core/source"
	"github.com/strudel-science/runmonitor/core/store"
)

var (
	// ErrNothingToExport is returned by Export when no row is visible.
	ErrNothingToExport = export.ErrNothingToExport
	// ErrUnknownField is returned when a filter is set on a field that has
	// no FilterConfig.
	ErrUnknownField = errors.New("no filter configured for field")
)

// MonitorOptions configures a Monitor.
type MonitorOptions struct {
	Configs   []filter.FilterConfig
	Headers   []string
	Engine    *filter.EngineOptions
	Filenames export.Generator
}

// DefaultMonitorOptions returns the runs table configuration.
func DefaultMonitorOptions() *MonitorOptions {
	engine := filter.DefaultEngineOptions()
	return &MonitorOptions{
		Configs: FilterConfigs(),
		Headers: ExportHeaders,
		Engine:  &engine,
	}
}

// Monitor is one runs table: the loaded rows, its filter store, the search
// box and the export action. Every read recomputes the visible set from
// scratch.
type Monitor struct {
	mu      sync.RWMutex
	rows    []filter.Row
	search  filter.SearchQuery
	configs []filter.FilterConfig

	filters  *store.FilterStore
	engine   *filter.Engine
	exporter *export.Exporter
	logger   *zap.Logger
}

// NewMonitor creates a Monitor over rows.
func NewMonitor(rows []filter.Row, logger *zap.Logger, options *MonitorOptions) (*Monitor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options == nil {
		options = DefaultMonitorOptions()
	}
	headers := options.Headers
	if len(headers) == 0 {
		headers = ExportHeaders
	}

	filters, err := store.New(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter store: %w", err)
	}
	return &Monitor{
		rows:     rows,
		search:   filter.SearchQuery{Mode: filter.SearchModeText},
		configs:  cloneConfigs(options.Configs),
		filters:  filters,
		engine:   filter.NewEngine(logger, options.Engine),
		exporter: export.NewExporter(headers, options.Filenames, logger),
		logger:   logger,
	}, nil
}

// Load replaces the rows with a fresh read of src. Filters and search are
// kept.
func (m *Monitor) Load(ctx context.Context, src source.Source) error {
	rows, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load runs: %w", err)
	}
	m.SetRows(rows)
	return nil
}

// SetRows replaces the rows.
func (m *Monitor) SetRows(rows []filter.Row) {
	m.mu.Lock()
	m.rows = rows
	m.mu.Unlock()
	m.logger.Debug("Rows replaced", zap.Int("rows", len(rows)))
}

// Len returns the number of loaded rows.
func (m *Monitor) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

// Configs returns a copy of the filter configurations of the table.
func (m *Monitor) Configs() []filter.FilterConfig {
	return cloneConfigs(m.configs)
}

func cloneConfigs(configs []filter.FilterConfig) []filter.FilterConfig {
	if configs == nil {
		return nil
	}
	out := make([]filter.FilterConfig, len(configs))
	for i, cfg := range configs {
		if cfg.Props != nil {
			props := *cfg.Props
			props.Options = append([]filter.Option(nil), cfg.Props.Options...)
			cfg.Props = &props
		}
		out[i] = cfg
	}
	return out
}

// Filters returns the store holding the active filters.
func (m *Monitor) Filters() *store.FilterStore {
	return m.filters
}

// SetFilter applies a raw widget value to field with the operator its
// config declares. Clearing values ("any", empty) remove the filter.
func (m *Monitor) SetFilter(field string, raw any) error {
	cfg, ok := configFor(m.configs, field)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return m.filters.SetValue(field, cfg.Operator, raw)
}

// ClearFilters removes every active filter.
func (m *Monitor) ClearFilters() {
	m.filters.Clear()
}

// SetSearch sets the search box. An empty mode means text.
func (m *Monitor) SetSearch(text string, mode filter.SearchMode) {
	if mode == "" {
		mode = filter.SearchModeText
	}
	m.mu.Lock()
	m.search = filter.SearchQuery{Text: text, Mode: mode}
	m.mu.Unlock()
}

// Search returns the current search box state.
func (m *Monitor) Search() filter.SearchQuery {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.search
}

// Visible filters the loaded rows by the current search and active filters.
func (m *Monitor) Visible() filter.Result {
	m.mu.RLock()
	rows, search := m.rows, m.search
	m.mu.RUnlock()
	return m.engine.Filter(rows, m.filters.Active(), m.configs, search)
}

// VisibleRuns returns the visible rows as runs.
func (m *Monitor) VisibleRuns() ([]Run, error) {
	result := m.Visible()
	runs := make([]Run, 0, len(result.Rows))
	for i, row := range result.Rows {
		run, err := RunFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("visible row %d: %w", i, err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Export writes the visible rows through saver and returns the filename
// used. It fails with ErrNothingToExport when nothing is visible.
func (m *Monitor) Export(ctx context.Context, saver export.Saver) (string, error) {
	result := m.Visible()
	for _, w := range result.Warnings {
		m.logger.Warn("Exporting with filter warning", zap.String("code", string(w.Code)), zap.String("message", w.Message))
	}
	return m.exporter.Export(ctx, saver, result.Rows, m.filters.Active())
}
