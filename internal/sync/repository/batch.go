package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertRows writes a slice of models with ON CONFLICT on the given
// column, falling back to row-by-row writes when the batch insert
// fails so one bad record does not sink its page. rows must be a
// non-empty []*T; key extracts the provider-native ID used in error
// messages.
func upsertRows[T any](db *gorm.DB, conflictColumn string, rows []*T, key func(*T) string) (int, []string) {
	if len(rows) == 0 {
		return 0, nil
	}

	conflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: conflictColumn}},
		UpdateAll: true,
	}

	if err := db.Clauses(conflict).Create(&rows).Error; err == nil {
		return len(rows), nil
	}

	// Batch failed, isolate the poison record(s).
	written := 0
	var errs []string
	for _, row := range rows {
		if err := db.Clauses(conflict).Create(row).Error; err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key(row), err))
			continue
		}
		written++
	}
	return written, errs
}

// dedupeByKey keeps the last occurrence of each key, preserving order
// of first appearance. Provider pages occasionally repeat a record and
// ON CONFLICT cannot touch the same row twice in one statement.
func dedupeByKey[T any](rows []*T, key func(*T) string) []*T {
	index := make(map[string]int, len(rows))
	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		k := key(row)
		if pos, ok := index[k]; ok {
			out[pos] = row
			continue
		}
		index[k] = len(out)
		out = append(out, row)
	}
	return out
}
