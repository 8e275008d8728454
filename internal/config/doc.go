// Package config loads the service configuration.
//
// Values come from three layers, later layers winning:
//
//	1. Default()
//	2. a YAML file (FLIGHTSTATS_CONFIG, or config.yaml / configs/config.yaml)
//	3. environment variables prefixed FLIGHTSTATS_
//
// Examples:
//
//	FLIGHTSTATS_SERVER_PORT=8080
//	FLIGHTSTATS_INGESTION_SOURCE_PATH=data/resumo_anual_2025.csv
//	FLIGHTSTATS_INGESTION_ENCODING=latin1
//	FLIGHTSTATS_INGESTION_HEADER_ALIASES="MES:mes,PAIS ORIGEM:origem_pais"
//	FLIGHTSTATS_STORAGE_DATABASE_PATH=/var/lib/flightstats/flights.db
//	FLIGHTSTATS_QUERY_DIAGNOSTICS=true
//
// Relative paths are resolved against Paths.BaseDir, which defaults to the
// directory of the running executable. The database path is resolved
// against the data directory.
package config
