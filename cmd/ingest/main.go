// Command ingest loads a raw flight statistics extract into the canonical
// relation and prints the ingestion report.
//
//	ingest -in resumo_anual_2025.csv [-db data/flights.db]
//
// It exits 1 when the extract header does not match the canonical schema or
// the run fails for any other reason, and 2 on usage errors. A failed run
// leaves the previous relation untouched.
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
	"sort"
	"strings"
	"syscall"

	"flightstats/internal/config"
	"flightstats/internal/dataprocessing"
	"flightstats/internal/infrastructure"
	"flightstats/internal/services"
	"flightstats/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "raw extract, or a directory whose newest extract is loaded (defaults to ingestion.source_path)")
	db := fs.String("db", "", "SQLite database file (defaults to storage.database_path)")
	configFile := fs.String("config", "", "optional YAML config file")
	verbose := fs.Bool("v", false, "print every sampled row rejection")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.LoadFrom(*configFile)
	if err != nil {
		fmt.Fprintf(stderr, "ingest: %v\n", err)
		return 2
	}
	if *db != "" {
		cfg.Storage.DatabasePath = *db
	}
	if *in == "" && cfg.Ingestion.SourcePath == "" {
		fmt.Fprintln(stderr, "ingest: -in is required when ingestion.source_path is not configured")
		fs.Usage()
		return 2
	}

	logger := infrastructure.NewLogger(stderr, cfg.Logging.Level)

	store, err := storage.Open(ctx, storage.Options{
		Path:         cfg.Storage.DatabasePath,
		BusyTimeout:  cfg.Storage.BusyTimeout,
		MaxOpenConns: cfg.Storage.MaxOpenConns,
	}, logger)
	if err != nil {
		fmt.Fprintf(stderr, "ingest: %v\n", err)
		return 1
	}
	defer store.Close()

	svc, err := services.NewIngestionService(store, services.NewIngestionOptions(cfg), nil, nil, logger)
	if err != nil {
		fmt.Fprintf(stderr, "ingest: %v\n", err)
		return 2
	}

	result, err := svc.Ingest(ctx, *in)
	if err != nil {
		var mismatch *dataprocessing.SchemaMismatchError
		if errors.As(err, &mismatch) {
			fmt.Fprintf(stderr, "ingest: schema mismatch: %s\n", mismatch.Error())
			return 1
		}
		logger.ErrorContext(ctx, "Ingestion failed", slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "ingest: %v\n", err)
		return 1
	}

	printReport(stdout, result, *verbose)
	return 0
}

func printReport(w io.Writer, result *services.IngestionResult, verbose bool) {
	fmt.Fprintln(w, result.String())

	report := result.Report
	if report == nil {
		return
	}
	if len(report.Unmapped) > 0 {
		fmt.Fprintf(w, "unmapped columns: %v\n", report.Unmapped)
	}
	if len(report.MissingOptional) > 0 {
		fmt.Fprintf(w, "missing optional fields: %v\n", report.MissingOptional)
	}
	columns := make([]string, 0, len(report.DropsByColumn))
	for column := range report.DropsByColumn {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	for _, column := range columns {
		fmt.Fprintf(w, "dropped on %s: %d\n", column, report.DropsByColumn[column])
	}
	if !verbose {
		return
	}
	for _, rej := range report.Rejections {
		fmt.Fprintf(w, "line %d: %s (%s)\n", rej.Line, rej.Reason, strings.Join(rej.Columns, ", "))
	}
	if report.RejectionsTrimmed {
		fmt.Fprintln(w, "(further rejections omitted)")
	}
}
