package services

import "errors"

var (
	// ErrIngestionRunning is returned when a re-ingestion is triggered while
	// another one is still in progress.
	ErrIngestionRunning = errors.New("ingestion already running")

	// ErrNoSource is returned when neither the request nor the configuration
	// names an extract.
	ErrNoSource = errors.New("no extract source configured")
)
