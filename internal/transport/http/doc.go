// Package http implements the HTTP handlers of the flightstats API. Handlers
// stay thin: they parse query strings and bodies, call the query façade, the
// ingestion service or the exporter, and render the result.
//
// # Routes
//
// Mounted under /api/v1 by the application router:
//
//	GET  /kpi/{measure}                   scalar KPI
//	GET  /rankings/companies/{measure}    airline ranking (limit, order)
//	GET  /rankings/regions/{dimension}    passenger demand by region
//	GET  /series/{measure}                monthly series
//	GET  /counts/{entity}                 distinct counts
//	GET  /efficiency/companies            efficiency table (sort, order, limit)
//	GET  /efficiency/companies/stats      monthly fuel per km statistics
//	GET  /airports?country=               airports of a country
//	GET  /airports/countries              countries on either side of a route
//	GET  /airports/{code}/flights         records touching an airport
//	POST /query                           generic façade request
//	GET  /dashboard                       headline KPIs
//	POST /ingestion                       re-ingestion trigger
//	GET  /ingestion/status                snapshot and last run
//	GET  /export/{report}.{csv|xlsx}      report download
//
// Every KPI route accepts the filter parameters company, country, continent,
// airport, side, nature, year, month and exclude.
//
// # Responses
//
// Successful responses use the api.DataResponse envelope:
//
//	{"status": "success", "data": {...}}
//
// Errors follow RFC 7807 and are produced by errors.ErrorHandler. Empty or
// missing data is not an error: KPI results carry no_data and a reason.
//
// # WebSocket
//
// GET /ws upgrades the connection with gorilla/websocket and subscribes it
// to snapshot events. A new client receives a connect message followed by
// the latest snapshot:replaced event, if any.
package http
