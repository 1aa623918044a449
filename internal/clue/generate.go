// internal/clue/generate.go
//
// Clue generation engine.
// Given a hidden board, produces an ordered clue collection that covers
// every cell: each position appears as an Explicit subject or on one side
// of a Conditional. A designated set of root cells is covered by Explicit
// clues with no prerequisite; the rest of the board hangs off the roots
// through a bounded level-by-level dependency tree, then cross-constraint
// General clues and a final closure pass guarantee coverage outright.
//
// The process is randomized but fully driven by the injected *rand.Rand,
// so a fixed seed reproduces the same clue set for the same board.

package clue

import (
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/mysticgrid/go-server/internal/board"
)

// Config holds the generation tunables.
type Config struct {
	NumRoots        int     // explicit root clues seeding the tree
	VacuousRatio    float64 // share of conditionals built with a false premise
	ConditionalBias float64 // probability of trying a conditional before a general
	MaxLevels       int     // tree growth bound; guarantees termination
}

// DefaultConfig mirrors the shipped game tuning.
func DefaultConfig() Config {
	return Config{
		NumRoots:        2,
		VacuousRatio:    0.15,
		ConditionalBias: 0.7,
		MaxLevels:       10,
	}
}

// Edge records one dependency: deducing To requires knowing From first.
type Edge struct {
	From board.Position
	To   board.Position
}

// Graph is the dependency structure recorded during generation. It is
// diagnostic output; the session never consults it at runtime.
type Graph struct {
	Roots []board.Position
	Edges []Edge
}

// Generator produces clue collections for boards.
type Generator struct {
	cfg Config
	rng *rand.Rand
	log zerolog.Logger
}

// NewGenerator wires a generator with its tunables, rng, and logger.
func NewGenerator(cfg Config, rng *rand.Rand, log zerolog.Logger) *Generator {
	if cfg.NumRoots < 1 {
		cfg.NumRoots = 1
	}
	if cfg.MaxLevels < 1 {
		cfg.MaxLevels = 1
	}
	return &Generator{cfg: cfg, rng: rng, log: log}
}

// Generate builds the full clue collection for b plus its dependency graph.
// Every branch terminates in an Explicit fallback, so generation always
// succeeds for any board size >= 1.
func (g *Generator) Generate(b *board.Board) ([]Clue, Graph) {
	total := b.Size * b.Size
	clues := make([]Clue, 0, 4*total)
	covered := make(map[board.Position]bool, total)

	// 1) Root explicit clues.
	numRoots := g.cfg.NumRoots
	if numRoots > total {
		numRoots = total
	}
	positions := b.Positions()
	g.rng.Shuffle(len(positions), func(i, j int) { positions[i], positions[j] = positions[j], positions[i] })
	roots := make([]board.Position, numRoots)
	copy(roots, positions[:numRoots])
	for _, pos := range roots {
		clues = append(clues, g.explicitClue(b, pos))
		covered[pos] = true
	}
	g.log.Debug().Int("roots", numRoots).Msg("root explicit clues created")

	graph := Graph{Roots: roots}

	// 2) Tree growth: each frontier cell tries to cover one new target per
	// level, preferring conditionals, falling back to generals, then to an
	// unconditional conditional, then to a bare explicit.
	frontier := append([]board.Position(nil), roots...)
	for level := 1; len(covered) < total && level <= g.cfg.MaxLevels; level++ {
		var next []board.Position
		for _, known := range frontier {
			uncovered := g.uncoveredPositions(b, covered)
			if len(uncovered) == 0 {
				break
			}

			var c Clue
			var target board.Position
			if g.rng.Float64() < g.cfg.ConditionalBias {
				target = uncovered[g.rng.Intn(len(uncovered))]
				c = g.conditionalClue(b, known, target, g.rng.Float64() < g.cfg.VacuousRatio)
			} else if gc, pos, ok := g.generalClueToward(b, known, uncovered); ok {
				c, target = gc, pos
			} else {
				// No shared row/column: fall back to a conditional.
				target = uncovered[g.rng.Intn(len(uncovered))]
				c = g.conditionalClue(b, known, target, g.rng.Float64() < g.cfg.VacuousRatio)
			}

			clues = append(clues, c)
			covered[target] = true
			next = append(next, target)
			if c.Kind == Conditional {
				graph.Edges = append(graph.Edges, Edge{From: c.Condition.Pos, To: c.Consequence.Pos})
			}
		}
		g.log.Debug().Int("level", level).Int("covered", len(covered)).Int("total", total).Msg("tree growth level complete")
		if len(next) == 0 {
			break
		}
		frontier = next
	}

	// 3) Cross-constraint general clues. Shape repeats only for lines with
	// at least two covered cells; number repeats for every line.
	for i := 0; i < b.Size; i++ {
		if countCovered(rowPositions(b, i), covered) >= 2 {
			if c, ok := lineRepeatClue(ScopeRow, i, b.Row(i), AttrShape); ok {
				clues = append(clues, c)
			}
		}
		if countCovered(colPositions(b, i), covered) >= 2 {
			if c, ok := lineRepeatClue(ScopeCol, i, b.Col(i), AttrShape); ok {
				clues = append(clues, c)
			}
		}
	}
	for i := 0; i < b.Size; i++ {
		if c, ok := lineRepeatClue(ScopeRow, i, b.Row(i), AttrNumber); ok {
			clues = append(clues, c)
		}
		if c, ok := lineRepeatClue(ScopeCol, i, b.Col(i), AttrNumber); ok {
			clues = append(clues, c)
		}
	}

	// 4) Closure: any still-uncovered cell gets a direct explicit clue.
	// This is what makes the coverage contract unconditional.
	for _, pos := range b.Positions() {
		if !covered[pos] {
			clues = append(clues, g.explicitClue(b, pos))
			covered[pos] = true
			g.log.Debug().Str("pos", pos.String()).Msg("closure explicit clue added")
		}
	}

	g.log.Debug().Int("clues", len(clues)).Msg("clue generation complete")
	return clues, graph
}

// explicitClue asserts a random attribute of the cell at pos.
func (g *Generator) explicitClue(b *board.Board, pos board.Position) Clue {
	return NewExplicit(Fact{Pos: pos, Value: g.trueValue(b.At(pos))})
}

// conditionalClue links a known cell to an uncovered target. A non-vacuous
// clue states a true fact on both sides; a vacuous one states a false fact
// on both, so the implication holds vacuously and reveals nothing.
func (g *Generator) conditionalClue(b *board.Board, known, target board.Position, vacuous bool) Clue {
	if vacuous {
		return NewConditional(
			Fact{Pos: known, Value: g.falseValue(b.At(known))},
			Fact{Pos: target, Value: g.falseValue(b.At(target))},
		)
	}
	return NewConditional(
		Fact{Pos: known, Value: g.trueValue(b.At(known))},
		Fact{Pos: target, Value: g.trueValue(b.At(target))},
	)
}

// generalClueToward covers an uncovered cell sharing a row or column with
// known, by reporting how often that cell's shape repeats in the shared
// line. ok is false when no uncovered cell shares a line with known.
func (g *Generator) generalClueToward(b *board.Board, known board.Position, uncovered []board.Position) (Clue, board.Position, bool) {
	var candidates []board.Position
	for _, pos := range uncovered {
		if pos.Row == known.Row || pos.Col == known.Col {
			candidates = append(candidates, pos)
		}
	}
	if len(candidates) == 0 {
		return Clue{}, board.Position{}, false
	}
	target := candidates[g.rng.Intn(len(candidates))]

	scope, line := ScopeRow, known.Row
	cells := b.Row(known.Row)
	if target.Row != known.Row {
		scope, line = ScopeCol, known.Col
		cells = b.Col(known.Col)
	}
	shape := b.At(target).Shape
	count := 0
	for _, cell := range cells {
		if cell.Shape == shape {
			count++
		}
	}
	return NewGeneral(scope, line, count, ShapeValue(shape)), target, true
}

// trueValue picks a random attribute of cell and states it truthfully.
func (g *Generator) trueValue(cell board.Cell) Value {
	if g.rng.Intn(2) == 0 {
		return ShapeValue(cell.Shape)
	}
	return NumberValue(cell.Number)
}

// falseValue picks a random attribute and a value the cell does not have.
func (g *Generator) falseValue(cell board.Cell) Value {
	if g.rng.Intn(2) == 0 {
		others := make([]board.Shape, 0, len(board.Shapes)-1)
		for _, s := range board.Shapes {
			if s != cell.Shape {
				others = append(others, s)
			}
		}
		return ShapeValue(others[g.rng.Intn(len(others))])
	}
	n := 1 + g.rng.Intn(board.MaxNumber-1)
	if n >= cell.Number {
		n++
	}
	return NumberValue(n)
}

// lineRepeatClue reports the first attribute value (in line order) that
// repeats within cells, as a General clue. ok is false when nothing repeats.
func lineRepeatClue(scope Scope, line int, cells []board.Cell, attr Attribute) (Clue, bool) {
	counts := make(map[Value]int, len(cells))
	order := make([]Value, 0, len(cells))
	for _, cell := range cells {
		v := ShapeValue(cell.Shape)
		if attr == AttrNumber {
			v = NumberValue(cell.Number)
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	for _, v := range order {
		if counts[v] > 1 {
			return NewGeneral(scope, line, counts[v], v), true
		}
	}
	return Clue{}, false
}

// uncoveredPositions lists uncovered cells in row-major order.
func (g *Generator) uncoveredPositions(b *board.Board, covered map[board.Position]bool) []board.Position {
	var out []board.Position
	for _, pos := range b.Positions() {
		if !covered[pos] {
			out = append(out, pos)
		}
	}
	return out
}

func rowPositions(b *board.Board, r int) []board.Position {
	out := make([]board.Position, b.Size)
	for c := 0; c < b.Size; c++ {
		out[c] = board.Position{Row: r, Col: c}
	}
	return out
}

func colPositions(b *board.Board, c int) []board.Position {
	out := make([]board.Position, b.Size)
	for r := 0; r < b.Size; r++ {
		out[r] = board.Position{Row: r, Col: c}
	}
	return out
}

func countCovered(line []board.Position, covered map[board.Position]bool) int {
	n := 0
	for _, pos := range line {
		if covered[pos] {
			n++
		}
	}
	return n
}
