// internal/board/board.go
//
// Hidden board model for a MysticGrid round.
// Defines:
//   - Shape: the small fixed shape enum (circle/square/star/heart).
//   - Cell: one (shape, number) pair.
//   - Board: a size×size grid of unique cells, immutable after construction.
//
// Numbers run 1..MaxNumber, so the product space holds exactly
// len(Shapes)×MaxNumber = 16 distinct cells. Construction fails when a
// requested size would need more cells than that.

package board

import (
	"fmt"
	"math/rand"
)

// Shape is one of the four cell shapes.
type Shape string

const (
	Circle Shape = "circle"
	Square Shape = "square"
	Star   Shape = "star"
	Heart  Shape = "heart"
)

// Shapes lists every shape in a fixed order.
var Shapes = []Shape{Circle, Square, Star, Heart}

// MaxNumber is the top of the cell number range (numbers are 1..MaxNumber).
const MaxNumber = 4

// ValidShape reports whether s is a member of the shape enum.
func ValidShape(s Shape) bool {
	for _, known := range Shapes {
		if s == known {
			return true
		}
	}
	return false
}

// ValidNumber reports whether n is inside the cell number range.
func ValidNumber(n int) bool { return n >= 1 && n <= MaxNumber }

// Cell is one hidden board cell.
type Cell struct {
	Shape  Shape `json:"shape"`
	Number int   `json:"number"`
}

// Position addresses a cell as (row, col), 0-indexed.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Board is the hidden size×size grid. Immutable once built.
type Board struct {
	Size int
	grid [][]Cell
}

// ValidateSize checks that a size×size board fits inside the product space.
func ValidateSize(size int) error {
	if size < 1 {
		return fmt.Errorf("board size must be at least 1, got %d", size)
	}
	if pool := len(Shapes) * MaxNumber; size*size > pool {
		return fmt.Errorf("board size %d needs %d cells but only %d unique (shape, number) pairs exist", size, size*size, pool)
	}
	return nil
}

// New builds a random board by drawing size² distinct (shape, number)
// pairs from the product space. The caller supplies the rng so boards
// are reproducible under a fixed seed.
func New(size int, rng *rand.Rand) (*Board, error) {
	if err := ValidateSize(size); err != nil {
		return nil, err
	}
	pool := len(Shapes) * MaxNumber

	perms := make([]Cell, 0, pool)
	for num := 1; num <= MaxNumber; num++ {
		for _, shape := range Shapes {
			perms = append(perms, Cell{Shape: shape, Number: num})
		}
	}
	rng.Shuffle(len(perms), func(i, j int) { perms[i], perms[j] = perms[j], perms[i] })

	grid := make([][]Cell, size)
	for r := 0; r < size; r++ {
		grid[r] = make([]Cell, size)
		copy(grid[r], perms[r*size:(r+1)*size])
	}
	return &Board{Size: size, grid: grid}, nil
}

// At returns the cell at pos. Panics on out-of-range positions; callers
// validate positions before reaching the board.
func (b *Board) At(pos Position) Cell { return b.grid[pos.Row][pos.Col] }

// InBounds reports whether pos addresses a real cell.
func (b *Board) InBounds(pos Position) bool {
	return pos.Row >= 0 && pos.Row < b.Size && pos.Col >= 0 && pos.Col < b.Size
}

// Row returns a copy of row r.
func (b *Board) Row(r int) []Cell {
	out := make([]Cell, b.Size)
	copy(out, b.grid[r])
	return out
}

// Col returns a copy of column c.
func (b *Board) Col(c int) []Cell {
	out := make([]Cell, b.Size)
	for r := 0; r < b.Size; r++ {
		out[r] = b.grid[r][c]
	}
	return out
}

// Positions enumerates every position in row-major order.
func (b *Board) Positions() []Position {
	out := make([]Position, 0, b.Size*b.Size)
	for r := 0; r < b.Size; r++ {
		for c := 0; c < b.Size; c++ {
			out = append(out, Position{Row: r, Col: c})
		}
	}
	return out
}

// String renders a position as "r,c", the key format used in state payloads.
func (p Position) String() string { return fmt.Sprintf("%d,%d", p.Row, p.Col) }
