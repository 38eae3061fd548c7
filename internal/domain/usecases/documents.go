// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only.
package usecases

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/0xcro3dile/tableqa-go/internal/domain/entities"
)

// FieldSeparator joins the "column: value" pairs of a row document.
const FieldSeparator = " | "

// RowDocuments renders every row of the table as a retrieval document.
// Each document is "col: value" for every column, in column order.
func RowDocuments(table entities.Table) []entities.Chunk {
	if table.Empty() {
		return nil
	}

	chunks := make([]entities.Chunk, len(table.Rows))
	for i := range table.Rows {
		content := RowText(table, i)
		chunks[i] = entities.Chunk{
			ID:       generateChunkID(i, content),
			RowIndex: i,
			Content:  content,
		}
	}
	return chunks
}

// RowText renders row i of the table.
func RowText(table entities.Table, i int) string {
	fields := make([]string, len(table.Columns))
	for j, col := range table.Columns {
		fields[j] = col + ": " + table.Cell(i, j)
	}
	return strings.Join(fields, FieldSeparator)
}

// generateChunkID creates a deterministic ID for a row document.
func generateChunkID(row int, content string) string {
	hash := sha256.Sum256([]byte(strconv.Itoa(row) + "\x00" + content))
	return hex.EncodeToString(hash[:8])
}
