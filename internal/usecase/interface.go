package usecase

import "context"

// LedgerStore is the abstract row/column datastore the pipeline reads from
// and writes back to. The usecase layer depends on this interface, not on a
// concrete implementation.
//
// ReadRows returns every row of a table including the header row; rows are
// ordered lists of cell values. WriteRows replaces rows starting at the
// given 1-based row index and is batched: from the pipeline's perspective a
// write either lands completely or not at all.
//
//go:generate mockgen -destination=mocks/mock_store.go -source=interface.go LedgerStore
type LedgerStore interface {
	ReadRows(ctx context.Context, table string) ([][]string, error)
	WriteRows(ctx context.Context, table string, startRow int, rows [][]string) error
}
