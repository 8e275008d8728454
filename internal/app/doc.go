// Package app wires the flight statistics service together and owns its
// lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, the YAML file and FLIGHTSTATS_* variables
//	2. Initialize logging and OpenTelemetry
//	3. Open the SQLite store holding the canonical relation
//	4. Build the ingestion, query, health and export services
//	5. Mount the HTTP routes and the websocket endpoint
//
// Start restores the snapshot left by an earlier process, optionally
// re-ingests the configured extract in the background, and begins serving.
//
// # Usage
//
//	a, err := app.NewApplication(ctx, nil)
//	if err != nil {
//	    return err
//	}
//	return a.Run()
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests, closes
// websocket clients, closes the store and flushes telemetry.
//
// Initialization errors are returned to the caller; the package never calls
// os.Exit.
package app
