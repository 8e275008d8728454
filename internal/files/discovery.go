package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// extractExtensions are the file types the ingestion readers accept.
var extractExtensions = map[string]bool{
	".csv":  true,
	".txt":  true,
	".tsv":  true,
	".xlsx": true,
}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Discovery finds raw extracts under a base directory.
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// IsExtract reports whether name has an extension the readers accept.
func IsExtract(name string) bool {
	return extractExtensions[strings.ToLower(filepath.Ext(name))]
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindExtracts lists the extracts in dir, newest first. Hidden files and
// subdirectories are skipped.
func (d *Discovery) FindExtracts(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !IsExtract(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name > files[j].Name
		}
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

// Latest returns the newest extract in dir.
func (d *Discovery) Latest(dir string) (FileInfo, error) {
	files, err := d.FindExtracts(dir)
	if err != nil {
		return FileInfo{}, err
	}
	if len(files) == 0 {
		return FileInfo{}, fmt.Errorf("no extract found in %s", d.resolve(dir))
	}
	return files[0], nil
}

// ResolveExtract returns path itself when it names a file, or the newest
// extract inside it when it names a directory.
func (d *Discovery) ResolveExtract(path string) (string, error) {
	full := d.resolve(path)
	info, err := os.Stat(full)
	if err != nil {
		return "", fmt.Errorf("source extract %s: %w", full, err)
	}
	if !info.IsDir() {
		return full, nil
	}
	latest, err := d.Latest(full)
	if err != nil {
		return "", err
	}
	return latest.Path, nil
}
