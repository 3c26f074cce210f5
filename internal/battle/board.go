// Package battle implements the Battleship rule oracle: ship placement,
// attack resolution and end-of-game detection over caller-provided board
// and registry values. It performs no I/O and keeps no state of its own.
package battle

import (
	"math/rand/v2"
	"strings"
)

// BoardSize is the side length of the square grid.
const BoardSize = 10

// Cell values use the on-the-wire single-character encoding directly.
// Any other byte on a board is a ship marker (the first byte of the
// occupying ship's name). Markers need not be unique across ships; the
// registry is the authoritative record of which cells a ship occupies.
const (
	CellEmpty byte = '.'
	CellMiss  byte = 'O'
	CellHit   byte = 'X'
)

// Board is a 10x10 grid of cell bytes.
type Board [BoardSize][BoardSize]byte

// NewBoard returns a board with every cell empty.
func NewBoard() *Board {
	var b Board
	for r := range b {
		for c := range b[r] {
			b[r][c] = CellEmpty
		}
	}
	return &b
}

// Coord is a 0-based (row, col) grid position.
type Coord struct {
	Row int
	Col int
}

// Ship records the cells a placed ship occupies and the hits taken so far.
type Ship struct {
	Positions []Coord
	Hits      map[Coord]bool
}

// Sunk reports whether every cell of the ship has been hit.
func (s *Ship) Sunk() bool {
	return len(s.Hits) == len(s.Positions)
}

// Registry maps ship name to its placement record for one player's board.
type Registry map[string]*Ship

// Orientation of a placed ship.
type Orientation byte

const (
	Horizontal Orientation = 'H'
	Vertical   Orientation = 'V'
)

// ParseOrientation accepts the wire encodings "H" and "V".
func ParseOrientation(s string) (Orientation, bool) {
	switch s {
	case "H":
		return Horizontal, true
	case "V":
		return Vertical, true
	}
	return 0, false
}

// Place puts a ship of the given length onto the board starting at
// (row, col), extending right for Horizontal or down for Vertical.
// It fails without modifying anything if any target cell is out of
// bounds or non-empty, or if the orientation is unknown.
func Place(b *Board, reg Registry, name string, length, row, col int, orient Orientation) bool {
	if name == "" || length <= 0 {
		return false
	}

	var cells []Coord
	switch orient {
	case Horizontal:
		if row < 0 || row >= BoardSize || col < 0 || col+length > BoardSize {
			return false
		}
		for c := col; c < col+length; c++ {
			cells = append(cells, Coord{Row: row, Col: c})
		}
	case Vertical:
		if col < 0 || col >= BoardSize || row < 0 || row+length > BoardSize {
			return false
		}
		for r := row; r < row+length; r++ {
			cells = append(cells, Coord{Row: r, Col: col})
		}
	default:
		return false
	}

	for _, p := range cells {
		if b[p.Row][p.Col] != CellEmpty {
			return false
		}
	}
	for _, p := range cells {
		b[p.Row][p.Col] = name[0]
	}
	reg[name] = &Ship{
		Positions: cells,
		Hits:      make(map[Coord]bool, length),
	}
	return true
}

// OutcomeKind classifies the result of an attack.
type OutcomeKind int

const (
	OutcomeInvalid OutcomeKind = iota
	OutcomeAlready
	OutcomeMiss
	OutcomeHit
	OutcomeSunk
)

// Outcome is the first-class result of an attack. Invalid and Already are
// outcomes, not errors.
type Outcome struct {
	Kind OutcomeKind
	Ship string // set only for OutcomeSunk
}

// Resolved reports whether the attack actually landed on the board
// (miss, hit or sunk) as opposed to being rejected (invalid, already).
func (o Outcome) Resolved() bool {
	switch o.Kind {
	case OutcomeMiss, OutcomeHit, OutcomeSunk:
		return true
	}
	return false
}

// String returns the wire-format result message.
func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeInvalid:
		return "Invalid coordinates"
	case OutcomeAlready:
		return "Already attacked"
	case OutcomeMiss:
		return "Miss"
	case OutcomeHit:
		return "Hit"
	case OutcomeSunk:
		return "Hit and sunk " + o.Ship + "!"
	}
	return "Unknown"
}

// Attack resolves a shot at (row, col) against the given board and
// registry. Rules are evaluated in order: out of bounds, already
// attacked, miss, hit/sunk.
func Attack(b *Board, reg Registry, row, col int) Outcome {
	if row < 0 || row >= BoardSize || col < 0 || col >= BoardSize {
		return Outcome{Kind: OutcomeInvalid}
	}

	switch b[row][col] {
	case CellHit, CellMiss:
		return Outcome{Kind: OutcomeAlready}
	case CellEmpty:
		b[row][col] = CellMiss
		return Outcome{Kind: OutcomeMiss}
	}

	marker := b[row][col]
	pos := Coord{Row: row, Col: col}
	b[row][col] = CellHit

	for name, ship := range reg {
		if name[0] != marker {
			continue
		}
		for _, p := range ship.Positions {
			if p == pos {
				ship.Hits[pos] = true
				if ship.Sunk() {
					return Outcome{Kind: OutcomeSunk, Ship: name}
				}
				return Outcome{Kind: OutcomeHit}
			}
		}
	}
	// Marker without a registry entry: still a hit, nothing to sink.
	return Outcome{Kind: OutcomeHit}
}

// IsOver reports whether every ship in the registry has been sunk.
// An empty registry is not over: a player who never placed is not defeated.
func IsOver(reg Registry) bool {
	if len(reg) == 0 {
		return false
	}
	for _, ship := range reg {
		if !ship.Sunk() {
			return false
		}
	}
	return true
}

// AutoPlace places the full standard fleet at random positions.
// Used by tests and tooling; the server never places on a player's behalf.
func AutoPlace(b *Board, reg Registry, rng *rand.Rand) {
	for _, class := range Fleet {
		for {
			orient := Horizontal
			if rng.IntN(2) == 1 {
				orient = Vertical
			}
			var row, col int
			if orient == Horizontal {
				row = rng.IntN(BoardSize)
				col = rng.IntN(BoardSize - class.Length + 1)
			} else {
				row = rng.IntN(BoardSize - class.Length + 1)
				col = rng.IntN(BoardSize)
			}
			if Place(b, reg, class.Name, class.Length, row, col, orient) {
				break
			}
		}
	}
}

// Render returns a human-readable grid, one row per line. Debug helper.
func Render(b *Board) string {
	var sb strings.Builder
	for r := range b {
		for c := range b[r] {
			if c > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteByte(b[r][c])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
