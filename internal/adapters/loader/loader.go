// Package loader provides table loading adapters.
package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/0xcro3dile/tableqa-go/internal/domain/entities"
	"github.com/0xcro3dile/tableqa-go/internal/domain/ports"
)

// ErrUnsupportedFormat is returned for files no loader handles.
var ErrUnsupportedFormat = errors.New("unsupported table format")

// DelimitedLoader loads CSV-style files: a header row, then one row per record.
type DelimitedLoader struct {
	comma      rune
	extensions []string
}

// NewCSVLoader creates a comma-separated loader.
func NewCSVLoader() *DelimitedLoader {
	return &DelimitedLoader{comma: ',', extensions: []string{".csv"}}
}

// NewTSVLoader creates a tab-separated loader.
func NewTSVLoader() *DelimitedLoader {
	return &DelimitedLoader{comma: '\t', extensions: []string{".tsv", ".tab"}}
}

// Load reads a delimited table from the given path.
func (l *DelimitedLoader) Load(ctx context.Context, path string) (entities.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return entities.Table{}, err
	}
	defer file.Close()

	return l.Parse(file)
}

// Parse reads a delimited table from r.
func (l *DelimitedLoader) Parse(r io.Reader) (entities.Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = l.comma
	reader.FieldsPerRecord = -1 // ragged rows; Table.Cell pads short ones

	headers, err := reader.Read()
	if err == io.EOF {
		return entities.Table{}, nil
	}
	if err != nil {
		return entities.Table{}, fmt.Errorf("reading header: %w", err)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	table := entities.Table{Columns: headers}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return entities.Table{}, fmt.Errorf("reading row %d: %w", len(table.Rows)+1, err)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// SupportedExtensions returns file extensions this loader handles.
func (l *DelimitedLoader) SupportedExtensions() []string {
	return l.extensions
}

// JSONLoader loads tables from JSON. Two shapes are accepted:
//
//	[{"col": value, ...}, ...]                    records; columns sorted by name
//	{"columns": [...], "data": [[...], ...]}      split; column order kept
type JSONLoader struct{}

// NewJSONLoader creates a JSON table loader.
func NewJSONLoader() *JSONLoader {
	return &JSONLoader{}
}

type splitTable struct {
	Columns []string        `json:"columns"`
	Data    [][]interface{} `json:"data"`
}

// Load reads a JSON table from the given path.
func (l *JSONLoader) Load(ctx context.Context, path string) (entities.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entities.Table{}, err
	}
	return l.Parse(data)
}

// Parse decodes a JSON table.
func (l *JSONLoader) Parse(data []byte) (entities.Table, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return entities.Table{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	switch trimmed[0] {
	case '{':
		var split splitTable
		if err := dec.Decode(&split); err != nil {
			return entities.Table{}, fmt.Errorf("decoding split table: %w", err)
		}
		table := entities.Table{Columns: split.Columns}
		for _, raw := range split.Data {
			row := make([]string, len(raw))
			for j, v := range raw {
				row[j] = formatValue(v)
			}
			table.Rows = append(table.Rows, row)
		}
		return table, nil

	case '[':
		var records []map[string]interface{}
		if err := dec.Decode(&records); err != nil {
			return entities.Table{}, fmt.Errorf("decoding records: %w", err)
		}
		return recordsTable(records), nil

	default:
		return entities.Table{}, fmt.Errorf("%w: JSON must be an array or object", ErrUnsupportedFormat)
	}
}

// recordsTable takes the union of keys as columns.
func recordsTable(records []map[string]interface{}) entities.Table {
	seen := make(map[string]bool)
	var columns []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)

	table := entities.Table{Columns: columns}
	for _, rec := range records {
		row := make([]string, len(columns))
		for j, col := range columns {
			row[j] = formatValue(rec[col])
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// formatValue renders a decoded JSON value as a table cell.
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

// SupportedExtensions returns file extensions.
func (l *JSONLoader) SupportedExtensions() []string {
	return []string{".json"}
}

// MultiLoader dispatches to a loader by file extension.
type MultiLoader struct {
	loaders map[string]ports.TableLoader
}

// NewMultiLoader creates a loader for CSV, TSV and JSON tables.
func NewMultiLoader() *MultiLoader {
	m := &MultiLoader{loaders: make(map[string]ports.TableLoader)}
	for _, l := range []ports.TableLoader{NewCSVLoader(), NewTSVLoader(), NewJSONLoader()} {
		for _, ext := range l.SupportedExtensions() {
			m.loaders[ext] = l
		}
	}
	return m
}

// Load dispatches to the appropriate loader based on extension.
func (m *MultiLoader) Load(ctx context.Context, path string) (entities.Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := m.loaders[ext]
	if !ok {
		return entities.Table{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return loader.Load(ctx, path)
}

// SupportedExtensions returns all supported extensions, sorted.
func (m *MultiLoader) SupportedExtensions() []string {
	exts := make([]string, 0, len(m.loaders))
	for ext := range m.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
