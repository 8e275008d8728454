// Package dataprocessing turns a raw flight statistics extract into
// canonical flight records.
//
// # Stages
//
//  1. Source: DelimitedSource reads delimited text in latin-1 or UTF-8;
//     WorkbookSource reads the first .xlsx sheet whose header resolves.
//  2. Mapper: resolves the extract header against CanonicalSchema once per
//     file. Header matching ignores case, accents and punctuation. A missing
//     required field is a SchemaMismatchError and no row is read.
//  3. Sanitizer: converts each row under the configured DecimalPolicy. A row
//     with any empty or unparseable required field is dropped whole and
//     recorded as a RowRejection.
//
// Pipeline runs the three stages and returns the retained records together
// with a Report (total, retained and dropped counts, drops by column and a
// bounded sample of rejections).
//
// # Usage
//
//	src, err := dataprocessing.OpenSource("resumo_anual_2025.csv", dataprocessing.ReaderOptions{
//	    Delimiter: ";",
//	    Encoding:  "latin1",
//	})
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
//	p, err := dataprocessing.NewPipeline(dataprocessing.PipelineOptions{}, logger)
//	records, report, err := p.Run(ctx, "resumo_anual_2025.csv", src)
//
// ExtractHeader and ExtractCells write records back in the extract layout,
// so an exported relation can be ingested again.
package dataprocessing
