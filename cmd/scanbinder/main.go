package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/scanbinder/internal/build"
	"git.home.luguber.info/inful/scanbinder/internal/config"
	ferrors "git.home.luguber.info/inful/scanbinder/internal/foundation/errors"
	"git.home.luguber.info/inful/scanbinder/internal/logfields"
	"git.home.luguber.info/inful/scanbinder/internal/metrics"
	"git.home.luguber.info/inful/scanbinder/internal/plugins"
	"git.home.luguber.info/inful/scanbinder/internal/ui"
	"git.home.luguber.info/inful/scanbinder/internal/watch"
)

var version = "dev"

// CLI is the command line grammar.
type CLI struct {
	Config      string           `short:"c" help:"Program configuration file (default: config.yaml next to the executable)" type:"path"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	Jobs        int              `short:"j" help:"Number of parallel workers, overrides global.jobs"`
	MetricsFile string           `help:"Write Prometheus metrics to this textfile after each run" type:"path"`
	Watch       bool             `short:"w" help:"Rebuild whenever the configuration or watched inputs change"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`

	ProjectDir string `arg:"" name:"project_dir" help:"Directory holding the scans and project.yaml" type:"path"`
	OutputName string `arg:"" name:"output_name" help:"Base name of the produced documents"`
}

// exitCode is raised by kong's exit hook so run can return instead of exiting.
type exitCode int

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) (code int) {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("scanbinder"),
		kong.Description("Build PDF and DjVu documents from scanned pages."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) { panic(exitCode(c)) }),
		kong.Vars{"version": version},
	)
	if err != nil {
		fmt.Fprintf(stderr, "scanbinder: %v\n", err)
		return ferrors.ExitInternal
	}

	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(exitCode)
			if !ok {
				panic(r)
			}
			code = int(c)
		}
	}()

	if _, err := parser.Parse(args); err != nil {
		parser.Errorf("%s", err)
		var parseErr *kong.ParseError
		if errors.As(err, &parseErr) && parseErr.Context != nil {
			parser.Stdout = stderr
			_ = parseErr.Context.PrintUsage(true)
		}
		return ferrors.ExitUsage
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console := ui.NewConsole(stdout, stderr)
	err = execute(ctx, &cli, console)
	return ferrors.NewCLIErrorAdapter(cli.Verbose, logger).Report(err, func(message string) {
		console.Error(ui.TitleError, message)
	})
}

// defaultConfigPath returns config.yaml next to the executable.
func defaultConfigPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryConfig, "cannot locate the executable").Build()
	}
	return filepath.Join(filepath.Dir(exe), config.ProgramFileName), nil
}

func execute(ctx context.Context, cli *CLI, u ui.UI) error {
	if cli.Jobs < 0 {
		return ferrors.ValidationError("--jobs must not be negative").Build()
	}
	programConfig := cli.Config
	if programConfig == "" {
		var err error
		if programConfig, err = defaultConfigPath(); err != nil {
			return err
		}
	}

	svc := build.NewService(plugins.NewRegistry(), u)
	var registry *prom.Registry
	if cli.MetricsFile != "" {
		registry = prom.NewRegistry()
		svc.WithRecorder(metrics.NewPrometheusRecorder(registry))
	}

	req := build.Request{
		ProgramConfig: programConfig,
		ProjectDir:    cli.ProjectDir,
		OutputName:    cli.OutputName,
		Jobs:          cli.Jobs,
	}
	runOnce := func(ctx context.Context) error {
		result, err := svc.Run(ctx, req)
		if result != nil {
			slog.Info("Run finished",
				logfields.RunID(result.RunID),
				slog.String("status", string(result.Status)),
				logfields.Duration(result.Duration))
		}
		if registry != nil {
			if werr := metrics.WriteTextfile(cli.MetricsFile, registry); werr != nil {
				slog.Warn("Cannot write metrics", logfields.Path(cli.MetricsFile), logfields.Error(werr))
			}
		}
		return err
	}

	if !cli.Watch {
		return runOnce(ctx)
	}
	return watchLoop(ctx, req, runOnce)
}

// watchLoop rebuilds on changes until interrupted. An interrupt ends watch
// mode normally.
func watchLoop(ctx context.Context, req build.Request, runOnce watch.BuildFunc) error {
	store, _, err := config.Load(req.ProgramConfig, config.ProjectFile(req.ProjectDir),
		config.Injected(req.OutputName, req.ProjectDir))
	if err != nil {
		return err
	}
	paths, err := watch.Paths(store, req.ProgramConfig, config.ProjectFile(req.ProjectDir))
	if err != nil {
		return err
	}
	w, err := watch.New(paths, watch.DefaultDebounce)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot start watching").Build()
	}
	defer func() { _ = w.Close() }()

	slog.Info("Watching for changes", slog.Int("paths", len(paths)))
	return w.Run(ctx, runOnce)
}
