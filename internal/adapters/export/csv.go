// Package export writes accumulated results to disk.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/0xcro3dile/tableqa-go/internal/domain/entities"
)

// DefaultPath is the export file used when none is configured.
const DefaultPath = "ai_results.csv"

// CSVExporter implements ports.ResultExporter. Each export overwrites the file.
type CSVExporter struct {
	path string
}

// NewCSVExporter creates an exporter writing to path.
func NewCSVExporter(path string) *CSVExporter {
	if path == "" {
		path = DefaultPath
	}
	return &CSVExporter{path: path}
}

// Path returns the export destination.
func (e *CSVExporter) Path() string {
	return e.path
}

// Export writes the table with a header row. The file is written to a
// temporary sibling first and renamed, so readers never see a partial export.
func (e *CSVExporter) Export(ctx context.Context, table entities.ResultTable) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(e.path), ".export-*.csv")
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(table.Columns); err != nil {
		tmp.Close()
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range table.Rows {
		if err := w.Write([]string{row.Question, row.Answer}); err != nil {
			tmp.Close()
			return fmt.Errorf("writing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing export: %w", err)
	}
	// CreateTemp files are 0600; match what os.Create would give.
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting export permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), e.path)
}
