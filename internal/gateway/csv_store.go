package gateway

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// CSVStore implements the LedgerStore interface over a directory holding
// one CSV file per logical table.
type CSVStore struct {
	dir string
}

// NewCSVStore creates a store rooted at the given directory.
func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{dir: dir}
}

func (s *CSVStore) tablePath(table string) string {
	return filepath.Join(s.dir, table+".csv")
}

// ReadRows reads and parses one table file, header included. Rows may have
// varying widths; cell-level validation is the caller's concern.
func (s *CSVStore) ReadRows(ctx context.Context, table string) ([][]string, error) {
	path := s.tablePath(table)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading records from %s: %w", path, err)
	}
	return rows, nil
}

// WriteRows replaces rows starting at the 1-based startRow. The whole file
// is rewritten through a temp file and an atomic rename, so a failed write
// leaves the previous content untouched.
func (s *CSVStore) WriteRows(ctx context.Context, table string, startRow int, rows [][]string) error {
	existing, err := s.ReadRows(ctx, table)
	if err != nil {
		return err
	}

	merged := make([][]string, 0, len(existing))
	merged = append(merged, existing...)
	for i, row := range rows {
		idx := startRow - 1 + i
		for len(merged) <= idx {
			merged = append(merged, nil)
		}
		merged[idx] = row
	}

	path := s.tablePath(table)
	tmp, err := os.CreateTemp(s.dir, table+"_*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	for _, row := range merged {
		if row == nil {
			row = []string{}
		}
		if err := writer.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write row to %s: %w", tmp.Name(), err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
