package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Manager writes files below a base directory
type Manager struct {
	baseDir string
}

// NewManager creates a new file manager instance
func NewManager(baseDir string) *Manager {
	return &Manager{baseDir: baseDir}
}

// FileExists checks if a file exists at the given path
func (m *Manager) FileExists(path string) bool {
	fullPath := m.resolvePath(path)
	_, err := os.Stat(fullPath)
	exists := err == nil

	slog.Debug("FileExists check",
		slog.String("path", path),
		slog.String("full_path", fullPath),
		slog.Bool("exists", exists))

	return exists
}

// ReadFile reads the entire content of a file
func (m *Manager) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(m.resolvePath(path))
}

// WriteFile writes data to path through a temporary file in the same
// directory and renames it into place
func (m *Manager) WriteFile(path string, data []byte) error {
	fullPath := m.resolvePath(path)

	slog.Debug("Writing file",
		slog.String("path", path),
		slog.String("full_path", fullPath),
		slog.Int("size_bytes", len(data)))

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", fullPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", fullPath, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", fullPath, err)
	}
	return nil
}

// resolvePath resolves a path relative to the base directory
func (m *Manager) resolvePath(path string) string {
	if filepath.IsAbs(path) || m.baseDir == "" {
		return path
	}
	return filepath.Join(m.baseDir, path)
}
