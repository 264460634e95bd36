package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/robertoallende/coderipple-sub001/internal/dispatch"
	"github.com/robertoallende/coderipple-sub001/internal/docstore"
	"github.com/robertoallende/coderipple-sub001/internal/genai"
	"github.com/robertoallende/coderipple-sub001/pkg/config"
	"github.com/robertoallende/coderipple-sub001/pkg/engine"
	"github.com/robertoallende/coderipple-sub001/pkg/observability"
	"github.com/robertoallende/coderipple-sub001/pkg/version"
)

const (
	routeArgCount      = 2
	defaultOutputDir   = "coderipple-docs"
	shutdownFlushGrace = 5 * time.Second
)

// ErrMissingAPIKey is returned when route would call the generative
// collaborator without credentials.
var ErrMissingAPIKey = errors.New("generator API key is required (set CODERIPPLE_GENERATOR_API_KEY)")

// generatorFactory builds the generative-text collaborator from config.
// Injectable so command tests can substitute a stub.
type generatorFactory func(cfg config.GeneratorConfig) (genai.Generator, error)

func defaultGeneratorFactory(cfg config.GeneratorConfig) (genai.Generator, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	return genai.NewOpenAIGenerator(cfg.APIKey, cfg.Model), nil
}

// NewRouteCommand creates the route subcommand: full analysis plus
// concurrent specialist dispatch against the configured collaborators.
func NewRouteCommand() *cobra.Command {
	return newRouteCommand(defaultGeneratorFactory)
}

func newRouteCommand(newGenerator generatorFactory) *cobra.Command {
	var (
		configPath string
		outputDir  string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "route <metadata.json> <diff-file>",
		Short: "Analyze a change event and dispatch documentation specialists",
		Args:  cobra.ExactArgs(routeArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoute(cmd, routeOptions{
				metadataPath: args[0],
				diffPath:     args[1],
				configPath:   configPath,
				outputDir:    outputDir,
				dryRun:       dryRun,
				newGenerator: newGenerator,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default: config.yaml in . or ./config)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", defaultOutputDir, "directory for generated documentation")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the routing decision without invoking specialists")

	return cmd
}

type routeOptions struct {
	metadataPath string
	diffPath     string
	configPath   string
	outputDir    string
	dryRun       bool
	newGenerator generatorFactory
}

func runRoute(cmd *cobra.Command, opts routeOptions) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	event, err := loadEvent(opts.metadataPath, opts.diffPath)
	if err != nil {
		return err
	}

	eng := engine.New(cfg.Analysis.RuleSet(), cfg.Analysis.Policy())

	analysis, err := eng.Analyze(event)
	if err != nil {
		return err
	}

	renderAnalysis(cmd.OutOrStdout(), event, analysis)

	if opts.dryRun {
		return nil
	}

	providers, err := observability.Init(observability.Config{
		ServiceName:       "coderipple",
		ServiceVersion:    version.Version,
		TraceSpans:        true,
		PrometheusMetrics: cfg.Metrics.Prometheus,
		LogLevel:          logLevel(cfg.Logging.Level),
		LogJSON:           strings.EqualFold(cfg.Logging.Format, "json"),
	})
	if err != nil {
		return err
	}

	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownFlushGrace)
		defer cancel()

		_ = providers.Shutdown(flushCtx)
	}()

	if providers.MetricsHandler != nil {
		stopMetrics := serveMetrics(cfg.Metrics.ListenAddr, providers.MetricsHandler, providers.Logger)
		defer stopMetrics()
	}

	metrics, err := observability.NewDispatchMetrics(providers.Meter)
	if err != nil {
		return err
	}

	gen, err := opts.newGenerator(cfg.Generator)
	if err != nil {
		return err
	}

	store, err := docstore.NewDirStore(opts.outputDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher := dispatch.New(dispatch.Config{
		Workers:           cfg.Dispatch.Workers,
		InvocationTimeout: cfg.Dispatch.InvocationTimeout,
		MaxAttempts:       cfg.Dispatch.MaxAttempts,
		RetryBackoff:      cfg.Dispatch.RetryBackoff,
		RequestsPerSecond: cfg.Dispatch.RequestsPerSecond,
		Burst:             cfg.Dispatch.Burst,
	}, gen, store, providers.Logger, metrics)

	report, err := dispatcher.Dispatch(ctx, analysis.Decision)
	if err != nil {
		return err
	}

	renderReport(cmd.OutOrStdout(), report)

	return nil
}

// serveMetrics exposes the Prometheus scrape endpoint for the lifetime of
// the dispatch. Long dispatches are the only reason a one-shot command
// serves metrics at all.
func serveMetrics(addr string, handler http.Handler, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: shutdownFlushGrace,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && logger != nil {
			logger.Warn("metrics listener stopped", slog.Any("error", err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownFlushGrace)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
