package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"flightstats/internal/files"
)

// Paths contains the resolved application paths.
type Paths struct {
	BaseDir      string
	DataDir      string
	LogsDir      string
	ReportsDir   string
	DatabaseFile string
	SourceFile   string
}

// ExecutableDir returns the directory holding the running binary, with
// symlinks resolved. Relative configuration paths are anchored here so the
// binaries behave the same whatever the working directory.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return filepath.Dir(exe), nil
}

// ResolvedPaths returns the resolved paths of a loaded configuration.
func (c *Config) ResolvedPaths() *Paths {
	return &Paths{
		BaseDir:      c.Paths.BaseDir,
		DataDir:      c.Paths.DataDir,
		LogsDir:      c.Paths.LogsDir,
		ReportsDir:   c.Paths.ReportsDir,
		DatabaseFile: c.Storage.DatabasePath,
		SourceFile:   c.Ingestion.SourcePath,
	}
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.LogsDir,
		p.ReportsDir,
		filepath.Dir(p.DatabaseFile),
	}

	logger := slog.Default()
	for _, dir := range directories {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetReportPath returns the path for an exported report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("database", p.DatabaseFile),
			slog.String("source", p.SourceFile),
			slog.Bool("source_exists", p.SourceFile != "" && FileExists(p.SourceFile)),
		))
}

// ValidateSource checks that the configured extract can be read. A
// directory source must hold at least one extract.
func (p *Paths) ValidateSource() error {
	if p.SourceFile == "" {
		return fmt.Errorf("no source extract configured")
	}
	info, err := os.Stat(p.SourceFile)
	if err != nil {
		return fmt.Errorf("source extract %s: %w", p.SourceFile, err)
	}
	if info.IsDir() {
		_, err := files.NewDiscovery("").Latest(p.SourceFile)
		return err
	}
	if !files.IsExtract(p.SourceFile) {
		return fmt.Errorf("unsupported source extract type: %s", filepath.Ext(p.SourceFile))
	}
	return nil
}
