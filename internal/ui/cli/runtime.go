package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	coreapp "timscompare/internal/core/app"
	"timscompare/internal/core/config"
	"timscompare/internal/core/ports"
	"timscompare/internal/engine/model"
	"timscompare/internal/shared/observability"
	"timscompare/internal/ui/report"
)

const shutdownTimeout = 5 * time.Second

func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "timscompare v%s\n", versionString)
		return 0
	}
	if err := validateOptions(opts); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 2
	}
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 2
	}

	level := new(slog.LevelVar)
	configureLogging(level, stderr, "")
	if opts.verbose {
		level.Set(slog.LevelDebug)
	}

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to detect working directory", "error", err)
		return 1
	}
	cfg, cfgPath, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logFile := cfg.Logging.File
	if logFile == "" && opts.watch {
		logFile = config.DefaultLogPath()
	}
	closeLogs := configureLogging(level, stderr, logFile)
	defer closeLogs()
	if !opts.verbose {
		level.Set(parseLevel(cfg.Logging.Level))
	}

	if cfg.Observability.Enabled && cfg.Observability.EnableTracing {
		shutdown, err := observability.InitTracing(ctx, observability.TracingOptions{
			Endpoint:    cfg.Observability.OTLPEndpoint,
			ServiceName: cfg.Observability.ServiceName,
			Insecure:    true,
		})
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := shutdown(sctx); err != nil {
					slog.Warn("failed to flush traces", "error", err)
				}
			}()
		}
	}

	catalog, err := coreapp.LoadCatalog(ctx, cfg)
	if err != nil {
		slog.Error("failed to load parameter catalog", "error", err)
		return 1
	}
	engine := coreapp.NewEngine(cfg, catalog, coreapp.WithLogger(slog.Default()))

	if cfg.Observability.Enabled {
		health := coreapp.NewHealthService(engine)
		server := observability.NewServer(fmt.Sprintf(":%d", cfg.Observability.Port), health.Probe, cfg.Observability.EnableMetrics)
		if err := server.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return 1
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = server.Stop(sctx)
		}()
	}

	printer := &printer{
		out:     stdout,
		catalog: catalog,
		format:  format,
		segment: opts.segment - 1,
		export:  opts.exportDir,
	}
	defs := additionalDefinitions(catalog, opts.params)

	if opts.watch {
		return runWatch(ctx, engine, cfgPath, level, opts, defs, printer)
	}

	code := 0
	for _, path := range opts.args {
		ds, err := engine.Load(ctx, path)
		if err == nil && (len(defs) > 0 || opts.source != "") {
			err = engine.ResolveAdditional(ctx, ds, defs, opts.source)
		}
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", path, err)
			code = 1
			continue
		}
		if err := printer.print(ds); err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", path, err)
			code = 1
		}
	}
	return code
}

func runWatch(
	ctx context.Context,
	engine *coreapp.Engine,
	cfgPath string,
	level *slog.LevelVar,
	opts cliOptions,
	defs []*model.Definition,
	printer *printer,
) int {
	if cfgPath != "" && !opts.verbose {
		cw := config.NewWatcher(cfgPath, func(cfg *config.Config) {
			level.Set(parseLevel(cfg.Logging.Level))
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config watcher disabled", "path", cfgPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	svc := coreapp.NewWatchService(engine, opts.args[0], coreapp.WatchOptions{
		Requested: defs,
		Source:    opts.source,
	})
	svc.Subscribe(func(u ports.WatchUpdate) {
		if u.Err != nil {
			fmt.Fprintf(printer.out, "%s: %v\n", u.Path, u.Err)
			return
		}
		if err := printer.print(u.Dataset); err != nil {
			slog.Error("failed to print dataset", "path", u.Path, "error", err)
		}
	})
	if err := svc.Start(ctx); err != nil {
		slog.Error("failed to start method watcher", "error", err)
		return 1
	}

	<-ctx.Done()
	return 0
}

// additionalDefinitions maps requested names to catalog definitions, or bare
// ones for names the catalog does not know.
func additionalDefinitions(catalog ports.ParameterCatalog, names []string) []*model.Definition {
	defs := make([]*model.Definition, 0, len(names))
	for _, n := range names {
		if def := catalog.Definition(model.Name(n)); def != nil {
			defs = append(defs, def)
			continue
		}
		defs = append(defs, &model.Definition{Name: model.Name(n), Label: n})
	}
	return defs
}

type printer struct {
	out     io.Writer
	catalog ports.ParameterCatalog
	format  report.Format
	segment int
	export  string
}

func (p *printer) print(ds *model.Dataset) error {
	if p.segment >= 0 && p.segment < len(ds.Segments) {
		ds.Active = p.segment
	}
	if err := report.Render(p.out, ds, p.catalog, report.Options{Format: p.format, Segment: p.segment}); err != nil {
		return err
	}
	if p.export == "" {
		return nil
	}

	for i := range ds.Segments {
		if p.segment >= 0 && i != p.segment {
			continue
		}
		seg := &ds.Segments[i]
		content, suffix, ok := report.Geometry(seg)
		if !ok {
			continue
		}
		target := filepath.Join(p.export, report.ExportFileName(ds.Path, seg, suffix))
		if err := report.WriteExport(target, content); err != nil {
			return err
		}
		slog.Info("geometry exported", "path", target, "segment", i+1, "workflow", seg.Workflow)
	}
	return nil
}

// loadConfig reads path, or ./timscompare.toml when path is empty and that
// file exists, else falls back to the defaults. Environment overrides apply
// in every case.
func loadConfig(path, cwd string) (*config.Config, string, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case path != "":
		cfg, err = config.Load(path)
		if err != nil {
			return nil, "", err
		}
	default:
		candidate := filepath.Join(cwd, config.DefaultFileName)
		if _, statErr := os.Stat(candidate); statErr == nil {
			cfg, err = config.Load(candidate)
			if err != nil {
				return nil, "", err
			}
			path = candidate
		} else {
			cfg = config.DefaultConfig()
		}
	}

	config.ApplyEnvOverrides(cfg)
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, "", errors.Join(errs...)
	}
	return cfg, path, nil
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// configureLogging installs a text handler writing to logPath, or to fallback
// when logPath is empty or cannot be opened. The returned function closes the
// log file.
func configureLogging(level *slog.LevelVar, fallback io.Writer, logPath string) func() {
	output := fallback
	closeFn := func() {}
	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(fallback, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
			fmt.Fprintf(fallback, "warning: refusing to write logs to symlink path %s\n", logPath)
		} else {
			f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
			if err == nil {
				output = f
				closeFn = func() { _ = f.Close() }
			} else {
				fmt.Fprintf(fallback, "warning: failed to open log file %s: %v\n", logPath, err)
			}
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level})))
	return closeFn
}
