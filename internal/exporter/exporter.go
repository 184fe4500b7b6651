package exporter

import (
	"log/slog"
	"strings"
	"time"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/config"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/files"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/infrastructure"
)

// Exporter writes pipeline outputs below the configured directories
type Exporter struct {
	paths  *config.Paths
	files  *files.Manager
	csv    *CSVWriter
	logger *slog.Logger
	now    func() time.Time
}

// New creates an exporter for paths. Every file is written atomically.
func New(paths *config.Paths, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	manager := files.NewManager("")
	return &Exporter{
		paths:  paths,
		files:  manager,
		csv:    NewCSVWriter(manager),
		logger: infrastructure.WithComponent(logger, "exporter"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SafeFolderName replaces characters outside [A-Za-z0-9._- ] with an
// underscore and trims the result. An empty name becomes "Sheet".
func SafeFolderName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-' || r == ' ':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	safe := strings.ReplaceAll(strings.TrimSpace(b.String()), "  ", " ")
	if safe == "" {
		return "Sheet"
	}
	return safe
}
