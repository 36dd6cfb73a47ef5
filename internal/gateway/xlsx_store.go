package gateway

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXStore implements the LedgerStore interface over an .xlsx workbook,
// one sheet per logical table.
type XLSXStore struct {
	path string
	file *excelize.File
}

// OpenXLSX opens an existing workbook.
func OpenXLSX(path string) (*XLSXStore, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return &XLSXStore{path: path, file: f}, nil
}

// ReadRows returns all rows of one sheet, header included.
func (s *XLSXStore) ReadRows(ctx context.Context, table string) ([][]string, error) {
	idx, err := s.file.GetSheetIndex(table)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found in %s", table, s.path)
	}
	rows, err := s.file.GetRows(table)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", table, err)
	}
	return rows, nil
}

// WriteRows replaces rows starting at the 1-based startRow. All cells are
// staged in memory and the workbook is saved once, so a failed write never
// leaves a half-updated file behind.
func (s *XLSXStore) WriteRows(ctx context.Context, table string, startRow int, rows [][]string) error {
	idx, err := s.file.GetSheetIndex(table)
	if err != nil || idx < 0 {
		return fmt.Errorf("sheet %q not found in %s", table, s.path)
	}
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, startRow+r)
			if err != nil {
				return fmt.Errorf("invalid cell position row %d col %d: %w", startRow+r, c+1, err)
			}
			if err := s.file.SetCellValue(table, cell, value); err != nil {
				return fmt.Errorf("failed to stage cell %s on %q: %w", cell, table, err)
			}
		}
	}
	if err := s.file.Save(); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", s.path, err)
	}
	return nil
}

// Close releases the underlying workbook.
func (s *XLSXStore) Close() error {
	return s.file.Close()
}
