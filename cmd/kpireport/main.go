// Command kpireport exports KPI reports computed over the current snapshot
// to CSV or XLSX files in the reports directory.
//
//	kpireport -report companies,monthly -format xlsx -year 2025
//	kpireport -report all -format csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"flightstats/internal/analytics"
	"flightstats/internal/config"
	"flightstats/internal/dataprocessing"
	"flightstats/internal/exporter"
	"flightstats/internal/infrastructure"
	"flightstats/internal/services"
	"flightstats/internal/storage"
	"flightstats/pkg/contracts/domain"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	reports    string
	format     string
	db         string
	out        string
	configFile string
	filter     domain.Filter
	side       string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("kpireport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.reports, "report", "all", "comma separated reports, or all: "+strings.Join(exporter.Reports(), ", "))
	fs.StringVar(&opts.format, "format", "csv", "output format: csv or xlsx")
	fs.StringVar(&opts.db, "db", "", "SQLite database file (defaults to storage.database_path)")
	fs.StringVar(&opts.out, "out", "", "output directory (defaults to paths.reports_dir)")
	fs.StringVar(&opts.configFile, "config", "", "optional YAML config file")
	fs.StringVar(&opts.filter.Company, "company", "", "company code or name")
	fs.StringVar(&opts.filter.Country, "country", "", "country on the filtered side")
	fs.StringVar(&opts.filter.Continent, "continent", "", "continent on the filtered side")
	fs.StringVar(&opts.filter.Airport, "airport", "", "airport code on the filtered side")
	fs.StringVar(&opts.filter.Nature, "nature", "", "flight nature")
	fs.IntVar(&opts.filter.Year, "year", 0, "year")
	fs.IntVar(&opts.filter.Month, "month", 0, "month 1-12")
	fs.BoolVar(&opts.filter.Exclude, "exclude", false, "exclude the geographic selection instead of keeping it")
	fs.StringVar(&opts.side, "side", "", "either, origin or destination")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.filter.Side = domain.Side(opts.side)
	return opts, nil
}

// selectReports expands the -report flag. "all" skips reports the format
// cannot hold.
func selectReports(flagValue string, format exporter.Format) ([]string, error) {
	if flagValue == "all" {
		var names []string
		for _, name := range exporter.Reports() {
			if exporter.Check(name, format) == nil {
				names = append(names, name)
			}
		}
		return names, nil
	}

	var names []string
	for _, name := range strings.Split(flagValue, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if err := exporter.Check(name, format); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, errors.New("no report selected")
	}
	return names, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}
	format, err := exporter.ParseFormat(opts.format)
	if err != nil {
		fmt.Fprintf(stderr, "kpireport: %v\n", err)
		return 2
	}
	reports, err := selectReports(opts.reports, format)
	if err != nil {
		fmt.Fprintf(stderr, "kpireport: %v\n", err)
		return 2
	}

	cfg, err := config.LoadFrom(opts.configFile)
	if err != nil {
		fmt.Fprintf(stderr, "kpireport: %v\n", err)
		return 2
	}
	if opts.db != "" {
		cfg.Storage.DatabasePath = opts.db
	}
	if opts.out != "" {
		cfg.Paths.ReportsDir = opts.out
	}

	logger := infrastructure.NewLogger(stderr, cfg.Logging.Level)

	store, err := storage.Open(ctx, storage.Options{
		Path:         cfg.Storage.DatabasePath,
		BusyTimeout:  cfg.Storage.BusyTimeout,
		MaxOpenConns: cfg.Storage.MaxOpenConns,
	}, logger)
	if err != nil {
		fmt.Fprintf(stderr, "kpireport: %v\n", err)
		return 1
	}
	defer store.Close()

	engine := analytics.NewEngine(store.SQL(), logger, cfg.Query.Diagnostics)
	queries := services.NewQueryService(engine, services.QueryOptions{
		DefaultLimit: cfg.Query.DefaultLimit,
		MaxLimit:     cfg.Query.MaxLimit,
	}, nil, logger)
	exp := exporter.New(queries, store, exporter.NewCSVWriter(cfg.ResolvedPaths(), logger), logger).
		WithDecimal(dataprocessing.DecimalPolicy(cfg.Ingestion.Decimal))

	failed := 0
	for _, report := range reports {
		path, err := exp.ExportFile(ctx, report, format, opts.filter)
		if err != nil {
			logger.ErrorContext(ctx, "Report export failed",
				slog.String("report", report),
				slog.String("error", err.Error()))
			fmt.Fprintf(stderr, "kpireport: %s: %v\n", report, err)
			failed++
			continue
		}
		fmt.Fprintln(stdout, path)
	}

	if failed > 0 {
		return 1
	}
	return 0
}
