package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// batchInsert splits rows into groups of at most s.batchSize and issues one
// multi-row INSERT per group, staying under the driver's bound-variable
// limit. columns is the column list; rows is a slice of per-row argument
// slices, each len(columns) long.
func (s *Store) batchInsert(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	for start := 0; start < len(rows); start += s.batchSize {
		end := start + s.batchSize
		if end > len(rows) {
			end = len(rows)
		}

		chunk := rows[start:end]

		var sb strings.Builder
		sb.WriteString("INSERT INTO ")
		sb.WriteString(table)
		sb.WriteString(" (")
		sb.WriteString(strings.Join(columns, ", "))
		sb.WriteString(") VALUES ")

		args := make([]any, 0, len(chunk)*len(columns))
		for i, row := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(")
			for j := range row {
				if j > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(s.placeholder(len(args) + 1))
			}
			sb.WriteString(")")
			args = append(args, row...)
		}

		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("batch insert into %s failed: %w", table, err)
		}
	}

	return nil
}

// placeholder returns the bound-variable placeholder for position n (1-based)
// in the dialect this store was opened against.
func (s *Store) placeholder(n int) string {
	if s.engine == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
