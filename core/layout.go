// core/layout.go
package core

import (
	"errors"
	"fmt"

	"github.com/navan260/dsa-el/model"
)

// ErrConfiguration is returned for malformed or empty facility layouts.
var ErrConfiguration = errors.New("invalid facility configuration")

// Layout symbols.
const (
	SymbolRoadway     = 'R'
	SymbolEntrance    = 'E'
	SymbolFourWheeler = 'S'
	SymbolTwoWheeler  = 'B'
	SymbolEmpty       = '.'
)

// CellType is the resolved meaning of a layout symbol.
type CellType int

const (
	CellEmpty CellType = iota
	CellRoadway
	CellEntrance
	CellSlot
)

func (t CellType) String() string {
	switch t {
	case CellRoadway:
		return "roadway"
	case CellEntrance:
		return "entrance"
	case CellSlot:
		return "slot"
	default:
		return "empty"
	}
}

// Cell is one non-empty grid position.
type Cell struct {
	Row   int
	Col   int
	Type  CellType
	Class model.VehicleClass // slots only
}

// Layout is a parsed facility grid. Cells holds only materialised
// (non-empty) positions in row-major order.
type Layout struct {
	Rows  int
	Cols  int
	Cells []Cell
}

// ParseLayout resolves rows of layout symbols into typed cells.
func ParseLayout(rows []string) (*Layout, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: layout has no rows", ErrConfiguration)
	}

	width := len([]rune(rows[0]))
	if width == 0 {
		return nil, fmt.Errorf("%w: layout has no columns", ErrConfiguration)
	}

	l := &Layout{Rows: len(rows), Cols: width}
	for r, row := range rows {
		symbols := []rune(row)
		if len(symbols) != width {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrConfiguration, r, len(symbols), width)
		}
		for c, sym := range symbols {
			cell := Cell{Row: r, Col: c}
			switch sym {
			case SymbolEmpty:
				continue
			case SymbolRoadway:
				cell.Type = CellRoadway
			case SymbolEntrance:
				cell.Type = CellEntrance
			case SymbolFourWheeler:
				cell.Type = CellSlot
				cell.Class = model.FourWheeler
			case SymbolTwoWheeler:
				cell.Type = CellSlot
				cell.Class = model.TwoWheeler
			default:
				return nil, fmt.Errorf("%w: unknown symbol %q at row %d, column %d", ErrConfiguration, sym, r, c)
			}
			l.Cells = append(l.Cells, cell)
		}
	}
	return l, nil
}

// DefaultLayoutRows returns the built-in facility: an outer ring of slots
// around two service lanes with a slot island in the middle. It carries no
// entrance marker, so the builder falls back to the default position.
func DefaultLayoutRows() []string {
	return []string{
		"SSSSSSSSSSSSSSSSSSS",
		"RRRRRRRRRRRRRRRRRRR",
		"SS.R.SSSSSSSSS.R.SS",
		"SS.R.S.......S.R.SS",
		"SS.R.S.RRRRR.S.R.SS",
		"SS.R.S.R...R.S.R.SS",
		"SS.R.S.R...R.S.R.SS",
		"SS.R.S.RRRRR.S.R.SS",
		"SS.R.S.......S.R.SS",
		"SS.R.SSSSSSSSS.R.SS",
		"RR.RRRRRRRRRRRRR.RR",
		"SSSSSSSSSSSSSSSSSSS",
	}
}
