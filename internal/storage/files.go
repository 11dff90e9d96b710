package storage

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/quantbrief/oracle/internal/models"
)

// WriteMarkdown archives a rendered report under
// <reportsDir>/<type>/<date>.md, creating directories as needed.
func WriteMarkdown(reportsDir string, reportType models.ReportType, date, content string) (string, error) {
	dir := filepath.Join(reportsDir, string(reportType))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, date+".md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}

	log.Info().Str("path", path).Msg("Report archived")
	return path, nil
}
