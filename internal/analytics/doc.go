// Package analytics is the aggregation engine. Every operation is a read-only
// SQL aggregation over the canonical relation followed by ratio and ranking
// steps in Go. Results are domain.KPIResult values; an empty or missing
// relation yields a NoData result instead of an error.
package analytics
