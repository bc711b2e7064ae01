package catalog

import (
	"fmt"

	"github.com/qubesight-bit/gosafe.lat-sub000/names"
	"github.com/qubesight-bit/gosafe.lat-sub000/pairs"
	"github.com/qubesight-bit/gosafe.lat-sub000/severity"
)

// CellState separates the diagonal, missing data and documented pairs.
// NoData must never be rendered like a low-risk cell.
type CellState string

const (
	CellNotApplicable CellState = "not_applicable"
	CellNoData        CellState = "no_data"
	CellDocumented    CellState = "documented"
)

// MatrixCell is one cell of the combination grid.
type MatrixCell struct {
	A              string                   `json:"a"`
	B              string                   `json:"b"`
	State          CellState                `json:"state"`
	Status         string                   `json:"status,omitempty"`
	Classification *severity.Classification `json:"classification,omitempty"`
	Note           string                   `json:"note,omitempty"`
}

type matrixEntry struct {
	status         string
	note           string
	classification severity.Classification
}

// Matrix is the N×N combination grid over a fixed substance set.
type Matrix struct {
	substances []string
	index      map[string]string // canonical -> display name
	cells      pairs.Table[matrixEntry]
}

func newMatrix(substances []string, cells []fileCell) (*Matrix, error) {
	m := &Matrix{
		substances: substances,
		index:      make(map[string]string, len(substances)),
		cells:      pairs.New[matrixEntry](),
	}

	for _, s := range substances {
		key := names.Canonical(s)
		if key == "" {
			return nil, fmt.Errorf("matrix substance with empty name")
		}
		if _, dup := m.index[key]; dup {
			return nil, fmt.Errorf("matrix substance %q listed twice", s)
		}
		m.index[key] = s
	}

	for _, fc := range cells {
		a, b := names.Canonical(fc.A), names.Canonical(fc.B)
		if _, ok := m.index[a]; !ok {
			return nil, fmt.Errorf("matrix cell %s/%s: %w: %q", fc.A, fc.B, ErrUnknownSubstance, fc.A)
		}
		if _, ok := m.index[b]; !ok {
			return nil, fmt.Errorf("matrix cell %s/%s: %w: %q", fc.A, fc.B, ErrUnknownSubstance, fc.B)
		}
		entry := matrixEntry{
			status:         fc.Status,
			note:           fc.Note,
			classification: severity.Normalize(fc.Status),
		}
		if err := m.cells.Set(a, b, entry); err != nil {
			return nil, fmt.Errorf("matrix cell %s/%s: %w", fc.A, fc.B, err)
		}
	}

	return m, nil
}

// Substances returns the grid axis in display order.
func (m *Matrix) Substances() []string {
	return m.substances
}

// Size returns the number of documented cells.
func (m *Matrix) Size() int {
	return m.cells.Len()
}

// Cell returns the cell for an unordered pair of grid substances.
func (m *Matrix) Cell(a, b string) (MatrixCell, error) {
	ka, kb := names.Canonical(a), names.Canonical(b)
	da, ok := m.index[ka]
	if !ok {
		return MatrixCell{}, fmt.Errorf("%w: %q", ErrUnknownSubstance, a)
	}
	db, ok := m.index[kb]
	if !ok {
		return MatrixCell{}, fmt.Errorf("%w: %q", ErrUnknownSubstance, b)
	}

	cell := MatrixCell{A: da, B: db}
	if ka == kb {
		cell.State = CellNotApplicable
		return cell, nil
	}

	entry, found := m.cells.Lookup(ka, kb)
	if !found {
		cell.State = CellNoData
		return cell, nil
	}

	classification := entry.classification
	cell.State = CellDocumented
	cell.Status = entry.status
	cell.Classification = &classification
	cell.Note = entry.note
	return cell, nil
}

// Grid returns every row of the matrix, diagonal included.
func (m *Matrix) Grid() [][]MatrixCell {
	grid := make([][]MatrixCell, len(m.substances))
	for i, a := range m.substances {
		row := make([]MatrixCell, len(m.substances))
		for j, b := range m.substances {
			// Both names come from the axis, so Cell cannot fail.
			row[j], _ = m.Cell(a, b)
		}
		grid[i] = row
	}
	return grid
}
