package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/strudel-science/runmonitor/activity"
	"github.com/strudel-science/runmonitor/core/export"
	"github.com/strudel-science/runmonitor/core/filter"
	"github.com/strudel-science/runmonitor/core/source"
	"github.com/strudel-science/runmonitor/sqlite"
)

type config struct {
	data     string
	sqlite   string
	table    string
	site     string
	status   string
	result   string
	search   string
	regex    bool
	out      string
	serve    string
	logLevel string
	dev      bool
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseFlags(args []string) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("runmonitor", flag.ContinueOnError)
	fs.StringVar(&cfg.data, "data", getEnv("RUNMONITOR_DATA", ""), "runs report CSV file")
	fs.StringVar(&cfg.sqlite, "sqlite", "", "SQLite database holding a runs table")
	fs.StringVar(&cfg.table, "table", "runs", "table to read with -sqlite")
	fs.StringVar(&cfg.site, "site", "", "comma-separated sites")
	fs.StringVar(&cfg.status, "status", "", "active, done or any")
	fs.StringVar(&cfg.result, "result", "", "comma-separated Cromwell results")
	fs.StringVar(&cfg.search, "search", "", "search text")
	fs.BoolVar(&cfg.regex, "regex", false, "treat -search as a regular expression")
	fs.StringVar(&cfg.out, "out", getEnv("RUNMONITOR_OUT", "."), "export directory")
	fs.StringVar(&cfg.serve, "serve", "", "serve the runs table over HTTP on this address instead of exporting")
	fs.StringVar(&cfg.logLevel, "log-level", getEnv("RUNMONITOR_LOG_LEVEL", "info"), "log level")
	fs.BoolVar(&cfg.dev, "dev", getEnv("RUNMONITOR_ENV", "production") == "development", "development logging")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.data == "" && cfg.sqlite == "" {
		return cfg, errors.New("one of -data or -sqlite is required")
	}
	return cfg, nil
}

func newLogger(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	var zcfg zap.Config
	if development {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// splitList turns "a, b,,c" into [a b c].
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func openSource(cfg config, logger *zap.Logger) (source.Source, func(), error) {
	if cfg.sqlite == "" {
		return source.NewFile(cfg.data, activity.Columns, logger), func() {}, nil
	}
	options := sqlite.DefaultOptions()
	options.Table = cfg.table
	src, err := sqlite.Open(cfg.sqlite, logger, options)
	if err != nil {
		return nil, nil, err
	}
	return src, func() { src.Close() }, nil
}

func applyFilters(m *activity.Monitor, cfg config) error {
	if sites := splitList(cfg.site); len(sites) > 0 {
		if err := m.SetFilter(activity.FieldSite, sites); err != nil {
			return err
		}
	}
	if cfg.status != "" {
		if err := m.SetFilter(activity.FieldStatus, cfg.status); err != nil {
			return err
		}
	}
	if results := splitList(cfg.result); len(results) > 0 {
		if err := m.SetFilter(activity.FieldCromwellResult, results); err != nil {
			return err
		}
	}
	mode := filter.SearchModeText
	if cfg.regex {
		mode = filter.SearchModeRegex
	}
	m.SetSearch(cfg.search, mode)
	return nil
}

func serve(ctx context.Context, addr string, m *activity.Monitor, logger *zap.Logger) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	activity.NewHandler(m, logger).Register(router)

	srv := &http.Server{Addr: addr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving runs table", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	src, closeSource, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	m, err := activity.NewMonitor(nil, logger, nil)
	if err != nil {
		return err
	}
	if err := m.Load(ctx, src); err != nil {
		return err
	}
	if err := applyFilters(m, cfg); err != nil {
		return err
	}

	if cfg.serve != "" {
		return serve(ctx, cfg.serve, m, logger)
	}

	result := m.Visible()
	for _, w := range result.Warnings {
		logger.Warn("Filter warning", zap.String("code", string(w.Code)), zap.String("field", w.Field), zap.String("message", w.Message))
	}
	logger.Info("Filtered runs", zap.Int("total", m.Len()), zap.Int("visible", len(result.Rows)))

	name, err := m.Export(ctx, export.DirSaver{Dir: cfg.out})
	if err != nil {
		return err
	}
	fmt.Println(name)
	return nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	logger, err := newLogger(cfg.logLevel, cfg.dev)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("runmonitor failed", zap.Error(err))
		os.Exit(1)
	}
}
