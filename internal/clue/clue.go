// internal/clue/clue.go
//
// Clue model for MysticGrid.
// A Clue is a tagged union of three kinds:
//   - Explicit:    "cell (1,2) has shape=star"
//   - General:     "row 0 contains 2 circles"
//   - Conditional: "if cell (0,0) has number=3, then cell (2,1) has shape=heart"
//
// Conditional clues own two Explicit facts directly (no pointers), so the
// structure cannot form cycles. A conditional may be vacuous: its condition
// is false of the referenced cell, which makes the implication trivially
// true and useless as a deduction aid.

package clue

import (
	"fmt"

	"github.com/mysticgrid/go-server/internal/board"
)

// Kind discriminates the clue union. Wire values are stable.
type Kind int

const (
	Explicit    Kind = 1
	General     Kind = 2
	Conditional Kind = 3
)

// Attribute names which half of a cell a value talks about.
type Attribute string

const (
	AttrShape  Attribute = "shape"
	AttrNumber Attribute = "number"
)

// Scope names the line a General clue quantifies over.
type Scope string

const (
	ScopeRow Scope = "row"
	ScopeCol Scope = "col"
)

// Value is one attribute assertion: either a shape or a number,
// discriminated by Attribute.
type Value struct {
	Attribute Attribute
	Shape     board.Shape
	Number    int
}

// ShapeValue and NumberValue are the two Value constructors.
func ShapeValue(s board.Shape) Value { return Value{Attribute: AttrShape, Shape: s} }
func NumberValue(n int) Value        { return Value{Attribute: AttrNumber, Number: n} }

// TrueOf reports whether the value holds for cell.
func (v Value) TrueOf(cell board.Cell) bool {
	if v.Attribute == AttrShape {
		return cell.Shape == v.Shape
	}
	return cell.Number == v.Number
}

// raw returns the JSON-facing payload: a string for shapes, an int for numbers.
func (v Value) raw() any {
	if v.Attribute == AttrShape {
		return string(v.Shape)
	}
	return v.Number
}

func (v Value) String() string {
	if v.Attribute == AttrShape {
		return string(v.Shape)
	}
	return fmt.Sprintf("%d", v.Number)
}

// Fact is one attribute assertion about one position: the payload of an
// Explicit clue and of each side of a Conditional.
type Fact struct {
	Pos   board.Position
	Value Value
}

// TrueOf reports whether the fact holds on board b.
func (f Fact) TrueOf(b *board.Board) bool { return f.Value.TrueOf(b.At(f.Pos)) }

func (f Fact) String() string {
	return fmt.Sprintf("cell (%d,%d) has %s=%s", f.Pos.Row, f.Pos.Col, f.Value.Attribute, f.Value)
}

// Clue is the tagged union. Only the fields of the active kind are
// meaningful; the rest stay zero.
type Clue struct {
	Kind Kind

	// Explicit
	Subject Fact

	// General
	Scope Scope
	Line  int
	Count int
	Value Value

	// Conditional
	Condition   Fact
	Consequence Fact
}

// NewExplicit builds an Explicit clue asserting one fact.
func NewExplicit(f Fact) Clue { return Clue{Kind: Explicit, Subject: f} }

// NewGeneral builds a General clue: count cells of the given line share value.
func NewGeneral(scope Scope, line, count int, v Value) Clue {
	return Clue{Kind: General, Scope: scope, Line: line, Count: count, Value: v}
}

// NewConditional builds a Conditional clue from two facts.
func NewConditional(condition, consequence Fact) Clue {
	return Clue{Kind: Conditional, Condition: condition, Consequence: consequence}
}

// References reports whether the clue talks about pos directly: as the
// Explicit subject or as either side of a Conditional. General clues
// reference lines, not positions.
func (c Clue) References(pos board.Position) bool {
	switch c.Kind {
	case Explicit:
		return c.Subject.Pos == pos
	case Conditional:
		return c.Condition.Pos == pos || c.Consequence.Pos == pos
	}
	return false
}

// Asserts reports whether the clue states exactly the fact f, either as an
// Explicit subject or as the condition or consequence of a Conditional.
// Used by redundancy pruning once f becomes revealed.
func (c Clue) Asserts(f Fact) bool {
	switch c.Kind {
	case Explicit:
		return c.Subject == f
	case Conditional:
		return c.Condition == f || c.Consequence == f
	}
	return false
}

// String renders the clue the way players read it.
func (c Clue) String() string {
	switch c.Kind {
	case Explicit:
		return c.Subject.String()
	case General:
		return fmt.Sprintf("%s %d has %d %ss", c.Scope, c.Line, c.Count, c.Value)
	case Conditional:
		return fmt.Sprintf("if %s, then %s", c.Condition, c.Consequence)
	}
	return "unknown clue"
}

// View is the JSON projection of a clue. Every field is present on every
// kind, null where inapplicable, so clients decode one shape.
type View struct {
	ClueType    int   `json:"clueType"`
	Position    []int `json:"position"`
	Attribute   any   `json:"attribute"`
	Value       any   `json:"value"`
	Scope       any   `json:"scope"`
	ScopeIndex  any   `json:"scopeIndex"`
	Count       any   `json:"count"`
	Condition   *View `json:"condition"`
	Consequence *View `json:"consequence"`
}

func factView(f Fact) *View {
	return &View{
		ClueType:  int(Explicit),
		Position:  []int{f.Pos.Row, f.Pos.Col},
		Attribute: string(f.Value.Attribute),
		Value:     f.Value.raw(),
	}
}

// View converts the clue into its JSON projection.
func (c Clue) View() View {
	switch c.Kind {
	case Explicit:
		return *factView(c.Subject)
	case General:
		return View{
			ClueType:   int(General),
			Attribute:  string(c.Value.Attribute),
			Value:      c.Value.raw(),
			Scope:      string(c.Scope),
			ScopeIndex: c.Line,
			Count:      c.Count,
		}
	case Conditional:
		return View{
			ClueType:    int(Conditional),
			Condition:   factView(c.Condition),
			Consequence: factView(c.Consequence),
		}
	}
	return View{}
}
