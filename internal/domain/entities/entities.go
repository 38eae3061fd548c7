// Package entities contains core business entities.
// These are pure domain objects with no external dependencies.
package entities

import "time"

// Result table column names, in export order.
const (
	ColumnQuestion = "question"
	ColumnAnswer   = "answer"
)

// Table is a tabular dataset: a header and rows of text cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Empty reports whether the table has nothing to analyze.
func (t Table) Empty() bool {
	return len(t.Columns) == 0 || len(t.Rows) == 0
}

// Cell returns the value at row i for column j, or "" when the row is short.
func (t Table) Cell(i, j int) string {
	row := t.Rows[i]
	if j >= len(row) {
		return ""
	}
	return row[j]
}

// Chunk is one table row rendered as a retrieval document.
type Chunk struct {
	ID        string
	RowIndex  int       // Position in the source table
	Content   string    // "col: value | col: value"
	Embedding []float32 // Vector representation (populated by adapter)
}

// QueryResult represents a search result with relevance.
type QueryResult struct {
	Chunk Chunk
	Score float64 // Similarity score
}

// Record is one completed analysis.
// Immutable once appended to a session.
type Record struct {
	ID          string // Correlation ID, also returned on the submission handle
	Question    string // Caller-supplied label, may be empty
	Query       string
	Answer      string
	Model       string
	CompletedAt time.Time
}

// ResultRow is one row of the accumulated results table.
type ResultRow struct {
	Question string
	Answer   string
}

// ResultTable accumulates question/answer pairs for a session.
type ResultTable struct {
	Columns []string
	Rows    []ResultRow
}

// NewResultTable returns an empty table with the question and answer columns.
func NewResultTable() ResultTable {
	return ResultTable{Columns: []string{ColumnQuestion, ColumnAnswer}}
}

// Append adds a record's question and answer as a new row.
func (t *ResultTable) Append(r Record) {
	t.Rows = append(t.Rows, ResultRow{Question: r.Question, Answer: r.Answer})
}

// Len returns the number of rows.
func (t ResultTable) Len() int {
	return len(t.Rows)
}

// Clone returns a copy that shares no slices with t.
func (t ResultTable) Clone() ResultTable {
	out := ResultTable{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]ResultRow, len(t.Rows)),
	}
	copy(out.Rows, t.Rows)
	return out
}
