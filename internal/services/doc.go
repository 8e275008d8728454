// Package services is the application layer between the HTTP transport and
// the domain packages.
//
// # Services
//
//	QueryService      validated read access to the aggregation engine; the
//	                  only read path used by handlers, exporters and CLIs
//	IngestionService  single-flight re-ingestion: extract -> pipeline ->
//	                  atomic replace -> snapshot info -> websocket event
//	HealthService     liveness, readiness and version reporting
//
// # Error policy
//
// QueryService never returns engine or driver errors to callers. Invalid
// requests come back as validation errors; everything else is a KPIResult,
// with NoData and a Reason when the relation is missing, empty, or the
// driver failed. IngestionService returns AppError values from
// internal/errors so the transport maps them to problem details: a schema
// mismatch is ErrTypeSchema (422), a concurrent trigger ErrTypeConflict
// (409).
//
// Services receive their logger, storage handle and metrics through
// constructors and tag their logs with a component attribute.
package services
