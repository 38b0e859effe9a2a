// Package preprocess implements the cleaning transforms applied to a
// metabolomics feature table and its sample metadata before statistics.
//
// Ownership: every function treats its *table.Table arguments as read-only
// and returns new tables. Reconcile is the single exception; it edits both of
// its arguments in place.
package preprocess

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/metaclean/internal/table"
)

var (
	// ErrEmptyTable is returned when a transform needs at least one row and column.
	ErrEmptyTable = errors.New("table is empty")
	// ErrColumnMismatch is returned when two tables must share feature columns but do not.
	ErrColumnMismatch = errors.New("feature columns differ")
)

func requireNumeric(t *table.Table, what string) error {
	if t == nil {
		return fmt.Errorf("%s: %w", what, ErrEmptyTable)
	}
	if !t.IsNumeric() {
		return fmt.Errorf("%s: %w", what, table.ErrNotNumeric)
	}
	return nil
}
