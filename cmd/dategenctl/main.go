package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"dategen/internal/evo"
	"dategen/internal/logging"
	"dategen/internal/metrics"
	"dategen/internal/stats"
	"dategen/internal/storage"
	"dategen/pkg/dategen"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

type globalOptions struct {
	store        string
	dbPath       string
	artifactsDir string
	exportsDir   string
	logLevel     string
	logFormat    string
	metricsOut   string
	metricsAddr  string
	plots        bool
	spreadsheets bool

	stderr io.Writer
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{stderr: stderr}
	root := &cobra.Command{
		Use:           "dategenctl",
		Short:         "Evolve date-validation test suites with a genetic algorithm",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.store, "store", storage.DefaultStoreKind(), "store backend: memory|badger|sqlite")
	flags.StringVar(&opts.dbPath, "db-path", "", "badger directory or sqlite file")
	flags.StringVar(&opts.artifactsDir, "artifacts-dir", "artifacts", "run artifacts directory")
	flags.StringVar(&opts.exportsDir, "exports-dir", "exports", "export destination directory")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log format: text|json")
	flags.StringVar(&opts.metricsOut, "metrics-out", "", "write Prometheus metrics to this textfile when done")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /metrics on this address while the command runs")
	flags.BoolVar(&opts.plots, "plots", true, "render coverage charts into run artifacts")
	flags.BoolVar(&opts.spreadsheets, "xlsx", false, "write cases.xlsx into run artifacts")

	root.AddCommand(
		newRunCommand(opts),
		newSuiteCommand(opts),
		newRunsCommand(opts),
		newCasesCommand(opts),
		newExportCommand(opts),
		newCompareCommand(opts),
		newInstancesCommand(opts),
	)
	return root
}

// session is one command's client plus the metrics it reports.
type session struct {
	client    *dategen.Client
	collector *metrics.Collector
	logger    *slog.Logger
	server    *http.Server
	opts      *globalOptions
}

func (o *globalOptions) open(ctx context.Context) (*session, error) {
	level, err := logging.ParseLevel(o.logLevel)
	if err != nil {
		return nil, err
	}
	var jsonLogs bool
	switch strings.ToLower(o.logFormat) {
	case "", "text":
	case "json":
		jsonLogs = true
	default:
		return nil, fmt.Errorf("unsupported log format: %s", o.logFormat)
	}
	logger := logging.New(logging.Config{Level: level, JSON: jsonLogs, Output: o.stderr, Service: "dategenctl"})

	collector, err := metrics.NewCollector()
	if err != nil {
		return nil, err
	}
	client, err := dategen.New(dategen.Options{
		StoreKind:    o.store,
		DBPath:       o.dbPath,
		ArtifactsDir: o.artifactsDir,
		ExportsDir:   o.exportsDir,
		Plots:        o.plots,
		Spreadsheets: o.spreadsheets,
		Observer:     collector,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	if err := client.Init(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	s := &session{client: client, collector: collector, logger: logger, opts: o}
	if o.metricsAddr != "" {
		if err := s.serveMetrics(); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *session) serveMetrics() error {
	listener, err := net.Listen("tcp", s.opts.metricsAddr)
	if err != nil {
		return fmt.Errorf("listen metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.collector.Handler())
	s.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server stopped", "error", err)
		}
	}()
	s.logger.Info("serving metrics", "addr", listener.Addr().String())
	return nil
}

func (s *session) Close() error {
	var errs []error
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, s.server.Shutdown(ctx))
		cancel()
	}
	if s.opts.metricsOut != "" {
		if err := s.collector.WriteTextfile(s.opts.metricsOut); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	errs = append(errs, s.client.Close())
	return errors.Join(errs...)
}

func withSession(opts *globalOptions, fn func(cmd *cobra.Command, s *session) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) (err error) {
		s, err := opts.open(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, s.Close())
		}()
		return fn(cmd, s)
	}
}

func newRunCommand(opts *globalOptions) *cobra.Command {
	var (
		configPath   string
		cfg          RunConfig
		mutationRate float64
		forceFull    bool
		iterations   int
		seed         int64
		quota        QuotaConfig
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evolve and harvest test cases for one instance",
		Args:  cobra.NoArgs,
	}
	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML run config; flags override it")
	f.StringVar(&cfg.Instance, "instance", "original", "instance name")
	f.BoolVar(&cfg.LocalSearch, "local-search", false, "refine the final population with local search")
	f.IntVar(&iterations, "iterations", evo.DefaultRefineIterations, "local search trials per candidate")
	f.IntVar(&cfg.Population, "population", 0, "population size (0 uses the instance default)")
	f.IntVar(&cfg.Generations, "generations", 0, "generation budget (0 uses the instance default)")
	f.Float64Var(&mutationRate, "mutation-rate", 0.15, "per-gene mutation probability")
	f.BoolVar(&forceFull, "force-full", false, "run the whole generation budget")
	f.Float64Var(&cfg.ConvergenceThreshold, "threshold", 0, "convergence coverage percent (0 uses the default)")
	f.IntVar(&quota.Valid, "valid", 0, "valid cases to harvest")
	f.IntVar(&quota.Invalid, "invalid", 0, "invalid cases to harvest")
	f.IntVar(&quota.Boundary, "boundary", 0, "boundary cases to harvest")
	f.Int64Var(&seed, "seed", 0, "random seed (default: time based)")

	cmd.RunE = withSession(opts, func(cmd *cobra.Command, s *session) error {
		merged := cfg
		if configPath != "" {
			loaded, err := LoadRunConfig(configPath)
			if err != nil {
				return err
			}
			merged = overrideRunConfig(cmd, loaded, cfg)
		}
		if cmd.Flags().Changed("mutation-rate") {
			merged.MutationRate = &mutationRate
		}
		if cmd.Flags().Changed("force-full") {
			merged.ForceFullGenerations = &forceFull
		}
		if cmd.Flags().Changed("iterations") {
			merged.LocalSearchIterations = &iterations
		}
		if cmd.Flags().Changed("valid") || cmd.Flags().Changed("invalid") || cmd.Flags().Changed("boundary") {
			q := quota
			merged.Quota = &q
		}
		if cmd.Flags().Changed("seed") {
			merged.Seed = &seed
		}
		if err := merged.validate(); err != nil {
			return err
		}

		summary, err := s.client.Run(cmd.Context(), merged.Request(time.Now().UnixNano()))
		if err != nil {
			return err
		}
		printRunSummary(cmd.OutOrStdout(), summary)
		return nil
	})
	return cmd
}

// overrideRunConfig applies explicitly set flags on top of a loaded config.
func overrideRunConfig(cmd *cobra.Command, loaded, flags RunConfig) RunConfig {
	changed := cmd.Flags().Changed
	if changed("instance") || loaded.Instance == "" {
		loaded.Instance = flags.Instance
	}
	if changed("local-search") {
		loaded.LocalSearch = flags.LocalSearch
	}
	if changed("population") {
		loaded.Population = flags.Population
	}
	if changed("generations") {
		loaded.Generations = flags.Generations
	}
	if changed("threshold") {
		loaded.ConvergenceThreshold = flags.ConvergenceThreshold
	}
	return loaded
}

func newSuiteCommand(opts *globalOptions) *cobra.Command {
	var (
		configPath string
		seed       int64
		workers    int
		report     bool
	)
	cmd := &cobra.Command{
		Use:   "suite",
		Short: "Run every instance with and without local search and compare coverage",
		Args:  cobra.NoArgs,
	}
	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML suite config")
	f.Int64Var(&seed, "seed", 0, "base seed; job i uses seed+i (default: time based)")
	f.IntVar(&workers, "workers", 4, "concurrent runs")
	f.BoolVar(&report, "report", true, "write report.md into the artifacts directory")

	cmd.RunE = withSession(opts, func(cmd *cobra.Command, s *session) error {
		baseSeed := time.Now().UnixNano()
		req := dategen.SuiteRequest{Workers: workers, Report: report}
		if configPath != "" {
			cfg, err := LoadSuiteConfig(configPath)
			if err != nil {
				return err
			}
			if cfg.Seed != nil {
				baseSeed = *cfg.Seed
			}
			if cfg.Workers > 0 && !cmd.Flags().Changed("workers") {
				req.Workers = cfg.Workers
			}
			if cfg.Report != nil && !cmd.Flags().Changed("report") {
				req.Report = *cfg.Report
			}
			for i, run := range cfg.Runs {
				req.Jobs = append(req.Jobs, run.Request(baseSeed+int64(i)))
			}
		}
		if cmd.Flags().Changed("seed") {
			baseSeed = seed
			for i := range req.Jobs {
				req.Jobs[i].Seed = seed + int64(i)
			}
		}
		req.Seed = baseSeed

		summary, err := s.client.Suite(cmd.Context(), req)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, run := range summary.Runs {
			fmt.Fprintf(out, "Instance: %s | Local Search: %t | Coverage: %.2f%% | run_id=%s\n",
				run.Label, run.LocalSearch, run.FinalCoverage, run.RunID)
		}
		fmt.Fprintln(out, summary.Table)
		if summary.ReportPath != "" {
			fmt.Fprintf(out, "report: %s\n", summary.ReportPath)
		}
		return nil
	})
	return cmd
}

func newRunsCommand(opts *globalOptions) *cobra.Command {
	var req dategen.RunsRequest
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().IntVar(&req.Limit, "limit", 20, "maximum runs to list")
	cmd.Flags().StringVar(&req.Instance, "instance", "", "only list runs of this instance")

	cmd.RunE = withSession(opts, func(cmd *cobra.Command, s *session) error {
		runs, err := s.client.Runs(cmd.Context(), req)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RUN ID\tCREATED\tINSTANCE\tLOCAL SEARCH\tSTATE\tGENERATIONS\tCOVERAGE")
		for _, run := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t%d/%d\t%.2f%%\n",
				run.RunID, run.CreatedAtUTC, run.Instance, run.LocalSearch, run.State, run.Executed, run.Generations, run.FinalCoverage)
		}
		return tw.Flush()
	})
	return cmd
}

func newCasesCommand(opts *globalOptions) *cobra.Command {
	var (
		req    dategen.CasesRequest
		format string
	)
	cmd := &cobra.Command{
		Use:   "cases",
		Short: "Print the harvested cases of a run",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&req.RunID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&req.Latest, "latest", false, "use the newest run")
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv|json")

	cmd.RunE = withSession(opts, func(cmd *cobra.Command, s *session) error {
		cases, err := s.client.Cases(cmd.Context(), req)
		if err != nil {
			return err
		}
		switch strings.ToLower(format) {
		case "csv":
			return stats.WriteCasesCSV(cmd.OutOrStdout(), cases)
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cases)
		default:
			return fmt.Errorf("unsupported cases format: %s", format)
		}
	})
	return cmd
}

func newExportCommand(opts *globalOptions) *cobra.Command {
	var req dategen.ExportRequest
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy a run's artifacts and optionally its cases as CSV or XLSX",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&req.RunID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&req.Latest, "latest", false, "export the newest run")
	cmd.Flags().StringVar(&req.OutDir, "out", "", "destination directory (default: --exports-dir)")
	cmd.Flags().StringVar(&req.CSVPath, "csv", "", "also write the cases to this CSV file")
	cmd.Flags().StringVar(&req.XLSXPath, "xlsx-out", "", "also write the cases to this XLSX file")

	cmd.RunE = withSession(opts, func(cmd *cobra.Command, s *session) error {
		summary, err := s.client.Export(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported run_id=%s dir=%s\n", summary.RunID, summary.Directory)
		return nil
	})
	return cmd
}

func newCompareCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare baseline and local search coverage of recorded runs",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withSession(opts, func(cmd *cobra.Command, s *session) error {
		rows, table, err := s.client.Compare(cmd.Context())
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), table)
		return nil
	})
	return cmd
}

func newInstancesCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instances",
		Short: "List the registered problem instances",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withSession(opts, func(cmd *cobra.Command, s *session) error {
		items, err := s.client.Instances()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, item := range items {
			d := item.Defaults
			fmt.Fprintf(out, "%s (%s): %s\n", item.Name, item.Label, item.Description)
			fmt.Fprintf(out, "  population=%d generations=%d valid=%d invalid=%d boundary=%d force_full=%t formatted=%t\n",
				d.PopulationSize, d.Generations, d.ValidMin, d.InvalidMin, d.BoundaryMin, d.ForceFullGenerations, item.Formatted)
			fmt.Fprintf(out, "  categories: %s\n", strings.Join(item.Categories, ", "))
		}
		return nil
	})
	return cmd
}

func printRunSummary(out io.Writer, summary dategen.RunSummary) {
	fmt.Fprintf(out, "run_id=%s instance=%s local_search=%t state=%s generations=%d coverage=%.2f%%\n",
		summary.RunID, summary.Instance, summary.LocalSearch, summary.State, summary.Generations, summary.FinalCoverage)
	if summary.Shortfall > 0 {
		fmt.Fprintf(out, "harvest shortfall=%d\n", summary.Shortfall)
	}
	if summary.ArtifactsDir != "" {
		fmt.Fprintf(out, "artifacts=%s\n", summary.ArtifactsDir)
	}
	for _, c := range summary.Cases {
		fmt.Fprintf(out, "  %-12s %-10s %-7s %s\n", c.Date, c.Format, c.Validity(), strings.Join(c.Categories, "; "))
	}
}
