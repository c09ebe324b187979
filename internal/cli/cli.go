package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/circle-catalog/internal/config"
	"github.com/pfrederiksen/circle-catalog/internal/logger"
	"github.com/pfrederiksen/circle-catalog/internal/storage"
	"github.com/pfrederiksen/circle-catalog/internal/telemetry"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUpdated = 2
)

// Version is set at build time with
// -ldflags "-X github.com/pfrederiksen/circle-catalog/internal/cli.Version=...".
var Version = "dev"

type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	dataDir    string
	format     string
	verbose    bool

	// fetch
	url      string
	noRobots bool

	// process
	stateFile     string
	mappingFile   string
	overridesFile string
	metricsFile   string
}

// app carries what the commands of one invocation share.
type app struct {
	flags    rootFlags
	stdout   io.Writer
	stderr   io.Writer
	cfg      *config.Config
	log      zerolog.Logger
	runID    string
	format   OutputFormat
	shutdown func(context.Context) error
	exitCode int
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newApp(os.Stdout, os.Stderr).rootCmd()
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:   stdout,
		stderr:   stderr,
		log:      zerolog.Nop(),
		shutdown: func(context.Context) error { return nil },
	}
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "circle-catalog",
		Short: "Build the versioned circle catalog from the convention page",
		Long: `A CLI tool that fetches the convention catalog page, normalizes every
circle into the published record shape, applies curator overrides and
writes a new snapshot version only when the catalog changed.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "Path to a YAML config file")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level: trace, debug, info, warn or error")
	pf.StringVar(&a.flags.logFormat, "log-format", "", "Log format: json or console")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "Directory holding the snapshot and release metadata")
	pf.StringVar(&a.flags.format, "format", "text", "Output format: text or json")
	pf.BoolVar(&a.flags.verbose, "verbose", false, "List changed and missing ids in text output")
	pf.StringVar(&a.flags.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")

	cmd.AddCommand(
		a.fetchCmd(),
		a.processCmd(),
		a.runCmd(),
		a.reportCmd(),
		a.versionCmd(),
	)
	return cmd
}

func (a *app) addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.flags.url, "url", "", "Catalog page URL")
	cmd.Flags().BoolVar(&a.flags.noRobots, "no-robots", false, "Skip the robots.txt check")
}

func (a *app) addProcessFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.flags.mappingFile, "mapping", "", "Fandom mapping file (JSON or YAML)")
	cmd.Flags().StringVar(&a.flags.overridesFile, "overrides", "", "Curator override file")
}

func (a *app) fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the catalog page and save its embedded state",
		Args:  cobra.NoArgs,
		RunE:  a.runFetch,
	}
	a.addFetchFlags(cmd)
	cmd.Flags().StringVar(&a.flags.stateFile, "state-file", "", "Where to save the extracted page state")
	return cmd
}

func (a *app) processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Build the catalog from a saved page state and publish it if it changed",
		Args:  cobra.NoArgs,
		RunE:  a.runProcess,
	}
	a.addProcessFlags(cmd)
	cmd.Flags().StringVar(&a.flags.stateFile, "state-file", "", "Saved page state to read")
	return cmd
}

func (a *app) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch and process in one step",
		Args:  cobra.NoArgs,
		RunE:  a.runAll,
	}
	a.addFetchFlags(cmd)
	a.addProcessFlags(cmd)
	cmd.Flags().StringVar(&a.flags.stateFile, "state-file", "", "Where to save the extracted page state")
	return cmd
}

func (a *app) reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Summarize the published snapshot without changing it",
		Args:  cobra.NoArgs,
		RunE:  a.runReport,
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		// version needs no config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "circle-catalog %s\n", Version)
		},
	}
}

// setup loads the config and builds the logger and tracer for a command.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	format := OutputFormat(strings.ToLower(a.flags.format))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", a.flags.format)
	}
	a.format = format

	cfg, err := config.Load(a.flags.configPath, a.applyFlags(cmd))
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.runID = logger.NewRunID()
	a.log = logger.WithRunID(logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: a.stderr,
	}), a.runID).With().Str("command", cmd.Name()).Logger()

	shutdown, err := telemetry.InitTracing(cmd.Context(), cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	a.shutdown = shutdown
	return nil
}

// applyFlags overrides config values with the flags set on the command line.
func (a *app) applyFlags(cmd *cobra.Command) func(*config.Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	return func(cfg *config.Config) {
		if changed("log-level") {
			cfg.Logging.Level = strings.ToLower(a.flags.logLevel)
		}
		if changed("log-format") {
			cfg.Logging.Format = strings.ToLower(a.flags.logFormat)
		}
		if changed("data-dir") {
			cfg.DataDir = a.flags.dataDir
		}
		if changed("metrics-file") {
			cfg.MetricsFile = a.flags.metricsFile
		}
		if changed("url") {
			cfg.Fetch.URL = a.flags.url
		}
		if changed("no-robots") {
			cfg.Fetch.RespectRobots = !a.flags.noRobots
		}
		if changed("state-file") {
			cfg.StateFile = a.flags.stateFile
		}
		if changed("mapping") {
			cfg.MappingFile = a.flags.mappingFile
		}
		if changed("overrides") {
			cfg.OverridesFile = a.flags.overridesFile
		}
	}
}

func (a *app) newResult(command string) *OutputResult {
	return &OutputResult{
		Command:   command,
		RunID:     a.runID,
		CheckedAt: time.Now().UTC(),
	}
}

func (a *app) runFetch(cmd *cobra.Command, _ []string) error {
	p := newPipeline(a.cfg, a.log)
	defer p.flushMetrics()

	ctx, span := p.tracer.Start(cmd.Context(), rootSpanName(cmd))
	defer span.End()

	f, err := p.fetch(ctx)
	if err != nil {
		return err
	}

	result := a.newResult("fetch")
	addFetched(result, f, a.cfg.StateFile)
	return WriteOutput(a.stdout, result, a.format, a.flags.verbose)
}

func (a *app) runProcess(cmd *cobra.Command, _ []string) error {
	p := newPipeline(a.cfg, a.log)
	defer p.flushMetrics()

	ctx, span := p.tracer.Start(cmd.Context(), rootSpanName(cmd))
	defer span.End()

	state, err := storage.ReadFile(a.cfg.StateFile)
	if err != nil {
		return fmt.Errorf("loading page state: %w", err)
	}

	out, err := p.process(ctx, state)
	if err != nil {
		return err
	}

	result := a.newResult("process")
	addProcessed(result, out)
	return a.finish(result, out)
}

func (a *app) runAll(cmd *cobra.Command, _ []string) error {
	p := newPipeline(a.cfg, a.log)
	defer p.flushMetrics()

	ctx, span := p.tracer.Start(cmd.Context(), rootSpanName(cmd))
	defer span.End()

	f, err := p.fetch(ctx)
	if err != nil {
		return err
	}

	out, err := p.process(ctx, f.State)
	if err != nil {
		return err
	}

	result := a.newResult("run")
	addFetched(result, f, a.cfg.StateFile)
	addProcessed(result, out)
	return a.finish(result, out)
}

func (a *app) runReport(cmd *cobra.Command, _ []string) error {
	p := newPipeline(a.cfg, a.log)

	store, err := p.openStore()
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	snapshot, err := store.LoadSnapshot()
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}
	a.log.Debug().Str("file", store.SnapshotPath()).Int("version", snapshot.Version).Msg("loaded snapshot")

	result := a.newResult("report")
	result.Version = snapshot.Version
	result.Summary = summarize(snapshot)
	return WriteOutput(a.stdout, result, a.format, a.flags.verbose)
}

// finish writes the result and sets the exit code from the reconcile status.
func (a *app) finish(result *OutputResult, out *processed) error {
	if err := WriteOutput(a.stdout, result, a.format, a.flags.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if out.Result.Updated() {
		a.exitCode = ExitUpdated
	}
	return nil
}

func rootSpanName(cmd *cobra.Command) string {
	return "circle-catalog " + cmd.Name()
}

// Run executes the CLI with args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	cmd := a.rootCmd()
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)

	// Flush spans even when the command failed.
	if serr := a.shutdown(context.Background()); serr != nil {
		a.log.Warn().Err(serr).Msg("tracing shutdown failed")
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, "Error: interrupted")
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return ExitError
	}
	return a.exitCode
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
