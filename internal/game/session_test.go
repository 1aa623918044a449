package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mysticgrid/go-server/internal/board"
	"github.com/mysticgrid/go-server/internal/clue"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

// twoPlayerSession builds a deterministic session with alice and bob on
// the roster, not yet started.
func twoPlayerSession(t *testing.T, opts Options) (*Session, *Player, *Player) {
	t.Helper()
	if opts.Seed == 0 {
		opts.Seed = 42
	}
	s, err := NewSession("game_test", opts)
	require.NoError(t, err)
	a := NewPlayer("alice")
	b := NewPlayer("bob")
	require.True(t, s.AddPlayer(a))
	require.True(t, s.AddPlayer(b))
	return s, a, b
}

func TestNewSessionRejectsBadBoardSize(t *testing.T) {
	_, err := NewSession("x", Options{BoardSize: 9})
	assert.Error(t, err)
}

func TestAddPlayerRules(t *testing.T) {
	s, a, _ := twoPlayerSession(t, Options{})
	assert.False(t, s.AddPlayer(a), "duplicate join must fail")

	require.True(t, s.Start())
	c := NewPlayer("carol")
	assert.True(t, s.AddPlayer(c), "joining a playing session is allowed")

	s.mu.Lock()
	s.finishLocked(CauseAbandoned)
	s.mu.Unlock()
	assert.False(t, s.AddPlayer(NewPlayer("dave")), "joining a finished session must fail")
}

func TestStartDealsDisjointHands(t *testing.T) {
	s, a, b := twoPlayerSession(t, Options{BoardSize: 3})
	require.True(t, s.Start())
	assert.False(t, s.Start(), "second start is a no-op")

	total := len(s.clues)
	require.NotZero(t, total)

	seen := map[int]string{}
	for _, id := range []string{a.ID, b.ID} {
		for _, idx := range s.revealed[id] {
			require.GreaterOrEqual(t, idx, 0)
			require.Less(t, idx, total)
			owner, dup := seen[idx]
			require.False(t, dup, "index %d dealt to both %s and %s", idx, owner, id)
			seen[idx] = id
		}
	}
	assert.Len(t, seen, total, "every clue index must be dealt to exactly one hand")
	assert.NotEmpty(t, s.revealed[a.ID])
	assert.NotEmpty(t, s.revealed[b.ID])
}

func TestDistributionHappensOnce(t *testing.T) {
	s, a, _ := twoPlayerSession(t, Options{BoardSize: 3})

	// A state query before Start materializes and deals.
	st := s.GetStateFor(a.ID)
	assert.Equal(t, StateWaiting, st.GameState)
	require.NotEmpty(t, st.Clues)

	hand := append([]int{}, s.revealed[a.ID]...)
	require.True(t, s.Start())
	assert.Equal(t, hand, s.revealed[a.ID], "start must not re-deal")
}

func TestStateQueryOnEmptyRosterDoesNotConsumeTheDeal(t *testing.T) {
	s, err := NewSession("empty", Options{BoardSize: 3, Seed: 42})
	require.NoError(t, err)

	// A state poll can land before anyone joins.
	st := s.GetStateFor("ghost")
	assert.Equal(t, StateWaiting, st.GameState)
	assert.Empty(t, st.Clues)

	a := NewPlayer("alice")
	require.True(t, s.AddPlayer(a))
	require.True(t, s.Start())
	assert.NotEmpty(t, s.revealed[a.ID], "the deal must still reach the first real roster")

	total := len(s.clues)
	dealt := len(s.revealed[a.ID])
	assert.Equal(t, total, dealt, "a lone player receives every clue")
}

func TestSubmitBeforeStart(t *testing.T) {
	s, a, _ := twoPlayerSession(t, Options{})
	res := s.SubmitSolution(a.ID, board.Position{}, Guess{Shape: strPtr("circle")})
	assert.False(t, res.Success)
	assert.Equal(t, ReasonNotPlaying, res.Reason)
}

func TestSubmitTurnEnforcement(t *testing.T) {
	s, a, b := twoPlayerSession(t, Options{BoardSize: 2})
	require.True(t, s.Start())

	res := s.SubmitSolution(b.ID, board.Position{}, Guess{Shape: strPtr("circle")})
	assert.Equal(t, ReasonNotYourTurn, res.Reason)

	res = s.SubmitSolution("nobody", board.Position{}, Guess{Shape: strPtr("circle")})
	assert.Equal(t, ReasonUnknownPlayer, res.Reason)

	// Rejections must not burn the turn.
	assert.Equal(t, a.ID, s.currentTurn)
	assert.Equal(t, 0, s.turnCount)
}

func TestSubmitOutOfBoundsIsAWrongGuess(t *testing.T) {
	s, a, b := twoPlayerSession(t, Options{BoardSize: 2})
	require.True(t, s.Start())

	res := s.SubmitSolution(a.ID, board.Position{Row: 5, Col: 0}, Guess{Number: intPtr(1)})
	assert.False(t, res.Success)
	assert.Equal(t, ReasonIncorrectGuess, res.Reason)
	assert.False(t, res.ShapeCorrect)
	assert.False(t, res.NumberCorrect)
	assert.Empty(t, s.solved)

	// An impossible position spends the turn like any other miss.
	assert.Equal(t, b.ID, s.currentTurn)
	assert.Equal(t, 1, s.turnCount)
}

func TestSubmitWrongGuessLeavesLedgerUntouched(t *testing.T) {
	s, a, b := twoPlayerSession(t, Options{BoardSize: 2})
	require.True(t, s.Start())

	pos := board.Position{Row: 0, Col: 0}
	cell := s.board.At(pos)
	wrongShape := "circle"
	if cell.Shape == board.Circle {
		wrongShape = "star"
	}

	res := s.SubmitSolution(a.ID, pos, Guess{Shape: strPtr(wrongShape)})
	assert.False(t, res.Success)
	assert.Equal(t, ReasonIncorrectGuess, res.Reason)
	assert.False(t, res.ShapeCorrect)
	assert.Empty(t, s.solved)

	// A wrong guess still consumes the turn.
	assert.Equal(t, b.ID, s.currentTurn)
	assert.Equal(t, 1, s.turnCount)
}

func TestPartialRevealAcrossTurns(t *testing.T) {
	s, a, b := twoPlayerSession(t, Options{BoardSize: 2})
	require.True(t, s.Start())

	pos := board.Position{Row: 1, Col: 1}
	cell := s.board.At(pos)

	res := s.SubmitSolution(a.ID, pos, Guess{Shape: strPtr(string(cell.Shape))})
	require.True(t, res.Success)
	assert.True(t, res.ShapeCorrect)
	assert.True(t, res.NumberCorrect, "an omitted attribute counts as correct")
	entry := s.solved[pos]
	require.NotNil(t, entry)
	assert.True(t, entry.Revealed.Shape)
	assert.False(t, entry.Revealed.Number)
	assert.Equal(t, a.ID, entry.SolvedBy)
	assert.Equal(t, 4, res.CellsRemaining, "partially revealed cells are not solved")

	res = s.SubmitSolution(b.ID, pos, Guess{Number: intPtr(cell.Number)})
	require.True(t, res.Success)
	assert.True(t, entry.Revealed.Number)
	assert.Equal(t, 3, res.CellsRemaining)
	assert.Equal(t, a.ID, entry.SolvedBy, "first toucher keeps credit")

	// The cell is now closed to further submissions.
	res = s.SubmitSolution(a.ID, pos, Guess{Shape: strPtr(string(cell.Shape))})
	assert.Equal(t, ReasonCellFullySolved, res.Reason)
}

func TestEmptyGuessSucceedsWithoutRevealing(t *testing.T) {
	s, a, b := twoPlayerSession(t, Options{BoardSize: 2})
	require.True(t, s.Start())

	res := s.SubmitSolution(a.ID, board.Position{}, Guess{})
	assert.True(t, res.Success)
	assert.Empty(t, s.solved)
	assert.Equal(t, b.ID, s.currentTurn)
}

func TestSolveCompletion(t *testing.T) {
	s, err := NewSession("solo", Options{BoardSize: 1, Seed: 42})
	require.NoError(t, err)
	a := NewPlayer("alice")
	require.True(t, s.AddPlayer(a))
	require.True(t, s.Start())

	pos := board.Position{}
	cell := s.board.At(pos)
	res := s.SubmitSolution(a.ID, pos, Guess{
		Shape:  strPtr(string(cell.Shape)),
		Number: intPtr(cell.Number),
	})
	require.True(t, res.Success)
	assert.True(t, res.GameComplete)
	assert.Equal(t, 0, res.CellsRemaining)
	assert.Equal(t, StateFinished, s.State())
	assert.Equal(t, CauseSolved, s.finishCause)
}

func TestTurnExhaustion(t *testing.T) {
	s, a, _ := twoPlayerSession(t, Options{BoardSize: 2, MaxTurns: 1})
	require.True(t, s.Start())

	res := s.SubmitSolution(a.ID, board.Position{}, Guess{})
	assert.True(t, res.GameComplete)
	assert.Equal(t, 0, res.TurnsRemaining)
	assert.Equal(t, CauseTurnsExhausted, s.finishCause)

	// Finished sessions reject further play.
	res = s.SubmitSolution(a.ID, board.Position{}, Guess{})
	assert.Equal(t, ReasonNotPlaying, res.Reason)
}

func TestTimeExhaustionDetectedOnStateQuery(t *testing.T) {
	s, a, _ := twoPlayerSession(t, Options{BoardSize: 2, Duration: time.Minute})
	require.True(t, s.Start())

	base := s.startedAt
	s.now = func() time.Time { return base.Add(2 * time.Minute) }

	st := s.GetStateFor(a.ID)
	assert.Equal(t, StateFinished, st.GameState)
	assert.Equal(t, 0, st.TimeRemaining)
	assert.Equal(t, CauseTimeExhausted, s.finishCause)

	// The frozen clock does not keep counting after the finish.
	s.now = func() time.Time { return base.Add(time.Hour) }
	assert.Equal(t, 0, s.GetStateFor(a.ID).TimeRemaining)
}

func TestShareMovesClueExclusively(t *testing.T) {
	s, a, b := twoPlayerSession(t, Options{BoardSize: 3})
	require.True(t, s.Start())

	idx := s.revealed[a.ID][0]
	res := s.ShareClue(a.ID, b.ID, idx)
	require.True(t, res.Success)
	require.NotNil(t, res.Clue)
	assert.Equal(t, "alice", res.FromPlayer)
	assert.Equal(t, "bob", res.ToPlayer)

	assert.False(t, contains(s.revealed[a.ID], idx), "index must leave the sender's hand")
	assert.True(t, contains(s.shared[b.ID], idx))
	assert.Equal(t, b.ID, s.currentTurn, "sharing consumes the turn")

	// The receiver can pass it along on their own turn.
	res = s.ShareClue(b.ID, a.ID, idx)
	require.True(t, res.Success)
	assert.False(t, contains(s.shared[b.ID], idx))
	assert.True(t, contains(s.shared[a.ID], idx))
}

func TestShareRejections(t *testing.T) {
	s, a, b := twoPlayerSession(t, Options{BoardSize: 3})
	require.True(t, s.Start())
	idx := s.revealed[a.ID][0]

	assert.Equal(t, ReasonInvalidPlayer, s.ShareClue("nobody", b.ID, idx).Reason)
	assert.Equal(t, ReasonInvalidPlayer, s.ShareClue(a.ID, "nobody", idx).Reason)
	assert.Equal(t, ReasonSelfShare, s.ShareClue(a.ID, a.ID, idx).Reason)
	assert.Equal(t, ReasonNotYourTurn, s.ShareClue(b.ID, a.ID, s.revealed[b.ID][0]).Reason)
	assert.Equal(t, ReasonInvalidClueIndex, s.ShareClue(a.ID, b.ID, -1).Reason)
	assert.Equal(t, ReasonInvalidClueIndex, s.ShareClue(a.ID, b.ID, len(s.clues)).Reason)
	assert.Equal(t, ReasonClueNotOwned, s.ShareClue(a.ID, b.ID, s.revealed[b.ID][0]).Reason)

	// Rejections never advance the turn.
	assert.Equal(t, a.ID, s.currentTurn)
	assert.Equal(t, 0, s.turnCount)

	// A duplicate delivery is refused even if the sender somehow holds a copy.
	require.True(t, s.ShareClue(a.ID, b.ID, idx).Success)
	s.mu.Lock()
	s.revealed[a.ID] = append(s.revealed[a.ID], idx)
	s.currentTurn = a.ID
	s.mu.Unlock()
	assert.Equal(t, ReasonClueShared, s.ShareClue(a.ID, b.ID, idx).Reason)
}

func TestPruningRemovesAssertingClues(t *testing.T) {
	s, a, b := twoPlayerSession(t, Options{BoardSize: 3})
	require.True(t, s.Start())

	// Find an explicit clue and reveal exactly the fact it states.
	var target clue.Fact
	found := false
	for _, c := range s.clues {
		if c.Kind == clue.Explicit {
			target, found = c.Subject, true
			break
		}
	}
	require.True(t, found)

	guess := Guess{}
	if target.Value.Attribute == clue.AttrShape {
		guess.Shape = strPtr(string(target.Value.Shape))
	} else {
		guess.Number = intPtr(target.Value.Number)
	}
	res := s.SubmitSolution(a.ID, target.Pos, guess)
	require.True(t, res.Success)

	for _, id := range []string{a.ID, b.ID} {
		for _, idx := range append(s.revealed[id], s.shared[id]...) {
			assert.False(t, s.clues[idx].Asserts(target),
				"clue %d still visible to %s after its fact was revealed", idx, id)
		}
	}
}

func TestPruningSparesGeneralClues(t *testing.T) {
	s, a, b := twoPlayerSession(t, Options{BoardSize: 3})
	require.True(t, s.Start())

	generals := map[int]bool{}
	for _, id := range []string{a.ID, b.ID} {
		for _, idx := range s.revealed[id] {
			if s.clues[idx].Kind == clue.General {
				generals[idx] = true
			}
		}
	}
	if len(generals) == 0 {
		t.Skip("no general clues dealt under this seed")
	}

	s.mu.Lock()
	for _, pos := range s.board.Positions() {
		cell := s.board.At(pos)
		s.pruneRevealedFact(clue.Fact{Pos: pos, Value: clue.ShapeValue(cell.Shape)})
		s.pruneRevealedFact(clue.Fact{Pos: pos, Value: clue.NumberValue(cell.Number)})
	}
	s.mu.Unlock()

	remaining := map[int]bool{}
	for _, id := range []string{a.ID, b.ID} {
		for _, idx := range append(s.revealed[id], s.shared[id]...) {
			remaining[idx] = true
		}
	}
	for idx := range generals {
		assert.True(t, remaining[idx], "general clue %d must survive full pruning", idx)
	}
}

func TestSkipTurn(t *testing.T) {
	s, a, b := twoPlayerSession(t, Options{BoardSize: 2})
	require.True(t, s.Start())

	assert.False(t, s.SkipTurn(b.ID), "only the turn holder can be skipped")
	assert.True(t, s.SkipTurn(a.ID))
	assert.Equal(t, b.ID, s.currentTurn)
	assert.Equal(t, 1, s.turnCount)
}

func TestRemovePlayer(t *testing.T) {
	s, a, b := twoPlayerSession(t, Options{BoardSize: 2})
	require.True(t, s.Start())

	assert.False(t, s.RemovePlayer("nobody"))
	require.True(t, s.RemovePlayer(a.ID))
	assert.Equal(t, "", a.GameID())
	assert.Equal(t, b.ID, s.currentTurn, "turn passes on without being counted")
	assert.Equal(t, 0, s.turnCount)

	require.True(t, s.RemovePlayer(b.ID))
	assert.Equal(t, StateFinished, s.State())
	assert.Equal(t, CauseAbandoned, s.finishCause)
}

func TestStateProjectionDoesNotLeakHands(t *testing.T) {
	s, a, b := twoPlayerSession(t, Options{BoardSize: 3})
	require.True(t, s.Start())

	stA := s.GetStateFor(a.ID)
	assert.Len(t, stA.Clues, len(s.revealed[a.ID])+len(s.shared[a.ID]))
	assert.True(t, stA.IsMyTurn)

	stB := s.GetStateFor(b.ID)
	assert.Len(t, stB.Clues, len(s.revealed[b.ID])+len(s.shared[b.ID]))
	assert.False(t, stB.IsMyTurn)

	assert.Equal(t, 9, stA.TotalCells)
	assert.Equal(t, 9, stA.CellsRemaining)
	assert.Equal(t, s.maxTurns, stA.TurnsRemaining)
	assert.Len(t, stA.Players, 2)
}

func TestSummarize(t *testing.T) {
	s, a, _ := twoPlayerSession(t, Options{BoardSize: 2, MaxTurns: 1})
	require.True(t, s.Start())
	_ = s.SubmitSolution(a.ID, board.Position{}, Guess{})

	sum := s.Summarize()
	assert.Equal(t, "game_test", sum.ID)
	assert.Equal(t, StateFinished, sum.State)
	assert.Equal(t, CauseTurnsExhausted, sum.FinishCause)
	assert.Equal(t, []string{"alice", "bob"}, sum.Players)
	assert.Equal(t, 1, sum.TurnCount)
	assert.Equal(t, 4, sum.TotalCells)
	assert.False(t, sum.FinishedAt.IsZero())
}
