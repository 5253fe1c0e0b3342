package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"autodev/pkg/agent"
	"autodev/pkg/agent/middleware/metrics"
	"autodev/pkg/config"
	"autodev/pkg/console"
	"autodev/pkg/factsheet"
	"autodev/pkg/logx"
	"autodev/pkg/pipeline"
)

const descriptionQuestion = "What webserver are we building today?"

type runOptions struct {
	configPath  string
	outPath     string
	metricsAddr string
	model       string
	tee         bool
	debug       bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run [description]",
		Short: "Run the agent pipeline for a project description",
		Long: `Run the agent pipeline. The description is taken from the arguments, or asked
for interactively when none is given.

Examples:
  autodev run "Build a website that shows the latest Forex prices"
  autodev run --config autodev.yaml --out sheet.yaml "A todo app with login"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runPipeline(ctx, opts, args, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file (.json, .yaml or .yml)")
	cmd.Flags().StringVarP(&opts.outPath, "out", "o", "", "Write the final fact sheet to this file (.json, .yaml or .yml)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Model to use (overrides the config file)")
	cmd.Flags().BoolVar(&opts.tee, "tee", false, "Write logs to stderr as well as the log file")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	return cmd
}

// loadRunConfig loads the config file and applies command line overrides.
func loadRunConfig(opts runOptions) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.model != "" {
		cfg.LLM.Model = opts.model
	}
	if opts.metricsAddr != "" {
		cfg.Metrics.Addr = opts.metricsAddr
		cfg.Metrics.Enabled = true
	}
	if opts.tee {
		cfg.Logging.Tee = true
	}
	if opts.debug {
		cfg.Logging.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runPipeline(ctx context.Context, opts runOptions, args []string, in io.Reader, out io.Writer) error {
	cfg, err := loadRunConfig(opts)
	if err != nil {
		return err
	}

	if err := logx.InitializeLogFile(cfg.Logging.Dir, cfg.Logging.MaxSizeMB, cfg.Logging.Tee); err != nil {
		return fmt.Errorf("failed to initialize log file: %w", err)
	}
	defer func() {
		if closeErr := logx.CloseLogFile(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", closeErr)
		}
	}()
	logx.SetDebugConfig(cfg.Logging.Debug)
	if len(cfg.Logging.DebugDomains) > 0 {
		logx.SetDebugDomains(cfg.Logging.DebugDomains)
	}
	logger := logx.NewLogger("autodev")

	printer := console.NewPrinter(out)
	description, err := resolveDescription(args, in, printer)
	if err != nil {
		return err
	}

	internal := metrics.NewInternalRecorder()
	recorder := metrics.Recorder(internal)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		recorder = metrics.Multi(internal, metrics.NewPrometheusRecorder(reg))
		shutdown := serveMetrics(cfg.Metrics.Addr, reg, logger)
		defer shutdown()
	}

	// Missing credentials fail here, before any agent runs.
	factory, err := agent.NewLLMClientFactory(cfg.LLM, recorder)
	if err != nil {
		return err
	}

	controller, err := pipeline.NewDefault(pipeline.Dependencies{
		Config:   cfg,
		Factory:  factory,
		Recorder: recorder,
		Narrator: printer,
	})
	if err != nil {
		return err
	}

	for _, a := range controller.Agents() {
		logger.Info("Pipeline agent %s (%s)", a.GetID(), a.GetPosition())
	}

	sheet := factsheet.New(description)
	started := time.Now()
	result, runErr := controller.Run(ctx, sheet)
	printSummary(out, result, internal)

	if runErr != nil {
		printProblems(out, started)
		// The partially filled sheet is discarded.
		return fmt.Errorf("pipeline failed: %w", runErr)
	}

	fmt.Fprintln(out)
	if err := sheet.WriteYAML(out); err != nil {
		return err
	}
	if opts.outPath != "" {
		if err := writeSheet(opts.outPath, sheet); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nFact sheet written to %s\n", opts.outPath)
	}
	return nil
}

// resolveDescription takes the description from args, or asks for it.
func resolveDescription(args []string, in io.Reader, printer *console.Printer) (string, error) {
	if description := strings.TrimSpace(strings.Join(args, " ")); description != "" {
		return description, nil
	}
	if f, ok := in.(*os.File); ok && !console.IsInteractive(f) {
		return "", errors.New("no project description given and stdin is not a terminal")
	}
	description, err := printer.Ask(in, descriptionQuestion)
	if err != nil {
		return "", err
	}
	if description == "" {
		return "", errors.New("no project description provided")
	}
	return description, nil
}

// writeSheet writes sheet to path, as YAML for .yaml/.yml and JSON otherwise.
func writeSheet(path string, sheet *factsheet.FactSheet) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return sheet.WriteYAML(f)
	default:
		return sheet.WriteJSON(f)
	}
}

// serveMetrics exposes reg on addr and returns a function that stops the server.
func serveMetrics(addr string, reg *prometheus.Registry, logger *logx.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("Metrics server shutdown: %v", err)
		}
	}
}
