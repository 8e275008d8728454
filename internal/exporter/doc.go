// Package exporter writes KPI reports and the canonical relation to CSV and
// XLSX files.
//
// KPI results are laid out as Tables by KPITable: scalars as one row, tables
// one row per key followed by their metric columns, series one row per month.
// CSV output carries a UTF-8 BOM so spreadsheet tools pick the right
// encoding. Workbooks are written with excelize, one sheet per table.
//
// The flights report dumps the canonical relation in the layout of the raw
// extract (semicolon separated, source headers), so it can be ingested again
// and yields the same checksum.
//
// Example usage:
//
//	exp := exporter.New(queryService, db, exporter.NewCSVWriter(paths, logger), logger)
//	path, err := exp.ExportFile(ctx, exporter.ReportCompanies, exporter.FormatXLSX, domain.Filter{})
package exporter
