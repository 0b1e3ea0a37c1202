package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/navan260/dsa-el/internal/nbi/types"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim      = lipgloss.NewStyle().Foreground(colorDim)
	styleSuccess  = lipgloss.NewStyle().Foreground(colorGreen)
	styleError    = lipgloss.NewStyle().Foreground(colorRed)
	styleWarn     = lipgloss.NewStyle().Foreground(colorYellow)
	styleEntrance = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleRoad     = lipgloss.NewStyle().Foreground(colorGray)
	styleFree     = lipgloss.NewStyle().Foreground(colorGreen)
	styleTaken    = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	styleOnPath   = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
)

// Grid glyphs. Free slots keep their layout symbol.
const (
	glyphEmpty    = "."
	glyphRoad     = "R"
	glyphEntrance = "E"
	glyphTaken    = "X"
	glyphPath     = "*"
)

// renderGrid draws the facility one character per cell. Nodes listed in
// path are highlighted, except the target slot which keeps its state glyph.
func renderGrid(s types.Status, path []int64) string {
	if !s.Configured || s.Rows == 0 || s.Cols == 0 {
		return styleDim.Render("facility not configured")
	}

	cells := make([][]string, s.Rows)
	for r := range cells {
		cells[r] = make([]string, s.Cols)
		for c := range cells[r] {
			cells[r][c] = styleDim.Render(glyphEmpty)
		}
	}

	onPath := make(map[int64]bool, len(path))
	for i, id := range path {
		if i < len(path)-1 {
			onPath[id] = true
		}
	}

	for _, n := range s.Nodes {
		if n.Y < 0 || n.Y >= s.Rows || n.X < 0 || n.X >= s.Cols {
			continue
		}
		cells[n.Y][n.X] = nodeGlyph(n, onPath[n.ID])
	}

	var b strings.Builder
	for _, row := range cells {
		b.WriteString(strings.Join(row, ""))
		b.WriteByte('\n')
	}
	return b.String()
}

func nodeGlyph(n types.Node, highlighted bool) string {
	switch {
	case n.IsEntry:
		return styleEntrance.Render(glyphEntrance)
	case highlighted && n.Type != "slot":
		return styleOnPath.Render(glyphPath)
	case n.Type != "slot":
		return styleRoad.Render(glyphRoad)
	case n.Filled:
		return styleTaken.Render(glyphTaken)
	case n.Class == "two-wheeler":
		return styleFree.Render("B")
	default:
		return styleFree.Render("S")
	}
}

// renderAvailability prints one line per class.
func renderAvailability(s types.Status) string {
	var b strings.Builder
	for _, class := range s.ClassNames() {
		c := s.Availability[class]
		fmt.Fprintf(&b, "%-13s %s free of %d\n", class, styleSuccess.Render(fmt.Sprint(c.Available)), c.Total)
	}
	fmt.Fprintf(&b, "%-13s %d\n", "parked", s.ActiveVehicles)
	return b.String()
}
