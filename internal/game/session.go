// internal/game/session.go
//
// Turn-based collaborative session state machine.
// Lifecycle: waiting → playing → finished (terminal).
// Responsibilities:
//   - Lazy, exactly-once board/clue materialization on first need.
//   - One-time distribution of clue ownership across the roster.
//   - Round-robin turn order over roster insertion order.
//   - Solved-cell ledger with partial (per-attribute) reveals.
//   - Redundancy pruning of per-player clue visibility as facts come out.
//   - Exclusive clue-ownership transfer between players.
//   - Completion under full solve, turn exhaustion, or time exhaustion,
//     detected lazily whenever the session is next touched.
//
// All state is funneled through one mutex per session; no operation blocks
// on I/O and nothing suspends mid-mutation.

package game

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mysticgrid/go-server/internal/board"
	"github.com/mysticgrid/go-server/internal/clue"
)

// Lifecycle states.
const (
	StateWaiting  = "waiting"
	StatePlaying  = "playing"
	StateFinished = "finished"
)

// Completion causes recorded when a session finishes.
const (
	CauseSolved         = "solved"
	CauseTurnsExhausted = "turns_exhausted"
	CauseTimeExhausted  = "time_exhausted"
	CauseAbandoned      = "abandoned"
)

// Defaults shared across the game.
const (
	DefaultBoardSize = 3
	DefaultMaxTurns  = 50
	DefaultDuration  = 15 * time.Minute
	minCluesPerHand  = 6
)

// Options configures a session at creation time.
type Options struct {
	BoardSize int
	MaxTurns  int
	Duration  time.Duration
	Seed      int64       // drives board layout, clue generation, distribution
	Gen       clue.Config // clue engine tunables
	Logger    zerolog.Logger
}

// Session owns all mutable state of one running game.
type Session struct {
	ID string

	mu  sync.Mutex
	log zerolog.Logger

	boardSize int
	maxTurns  int
	duration  time.Duration
	rng       *rand.Rand
	genCfg    clue.Config

	// Materialized lazily, exactly once.
	materializeOnce sync.Once
	board           *board.Board
	clues           []clue.Clue
	graph           clue.Graph

	// Distributed exactly once, at start (or first state query).
	distributeOnce sync.Once

	order   []string // roster insertion order; turn order derives from it
	players map[string]*Player

	state       string
	currentTurn string
	turnCount   int
	finishCause string

	solved   map[board.Position]*SolvedCell
	revealed map[string][]int // playerID -> owned clue indices from distribution
	shared   map[string][]int // playerID -> indices received from other players

	createdAt  time.Time
	startedAt  time.Time
	finishedAt time.Time
	lastTouch  time.Time
	timeLeft   int // frozen remaining seconds once finished

	now func() time.Time
}

// NewSession validates options and builds a waiting session. The board and
// clues are not generated here; they materialize on first need.
func NewSession(id string, opts Options) (*Session, error) {
	if opts.BoardSize == 0 {
		opts.BoardSize = DefaultBoardSize
	}
	if err := board.ValidateSize(opts.BoardSize); err != nil {
		return nil, err
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxTurns
	}
	if opts.Duration <= 0 {
		opts.Duration = DefaultDuration
	}
	if opts.Gen == (clue.Config{}) {
		opts.Gen = clue.DefaultConfig()
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	now := time.Now()
	return &Session{
		ID:        id,
		log:       opts.Logger.With().Str("session", id).Logger(),
		boardSize: opts.BoardSize,
		maxTurns:  opts.MaxTurns,
		duration:  opts.Duration,
		rng:       rand.New(rand.NewSource(opts.Seed)),
		genCfg:    opts.Gen,
		players:   make(map[string]*Player),
		state:     StateWaiting,
		solved:    make(map[board.Position]*SolvedCell),
		revealed:  make(map[string][]int),
		shared:    make(map[string][]int),
		createdAt: now,
		lastTouch: now,
		now:       time.Now,
	}, nil
}

// AddPlayer joins a player to the roster. Fails on duplicates and once the
// session is finished. The first player becomes the initial turn holder.
func (s *Session) AddPlayer(p *Player) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateFinished {
		return false
	}
	if _, ok := s.players[p.ID]; ok {
		return false
	}
	s.players[p.ID] = p
	s.order = append(s.order, p.ID)
	s.revealed[p.ID] = []int{}
	s.shared[p.ID] = []int{}
	p.SetGameID(s.ID)
	if s.currentTurn == "" {
		s.currentTurn = p.ID
	}
	s.touchLocked()
	return true
}

// Start moves the session from waiting to playing: materializes board and
// clues, distributes ownership, and opens the turn cycle at the first
// player in insertion order. Safe to call concurrently; the side effects
// run at most once.
func (s *Session) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateWaiting || len(s.order) == 0 {
		return false
	}
	s.ensureMaterialized()
	s.distributeClues()
	s.state = StatePlaying
	s.startedAt = s.now()
	s.currentTurn = s.order[0]
	s.touchLocked()
	s.log.Info().Int("players", len(s.order)).Int("clues", len(s.clues)).Msg("session started")
	return true
}

// ensureMaterialized builds the board and clue collection exactly once.
// Callers hold s.mu; the Once keeps the guarantee explicit and testable.
func (s *Session) ensureMaterialized() {
	s.materializeOnce.Do(func() {
		b, err := board.New(s.boardSize, s.rng)
		if err != nil {
			// Size was validated at construction; reaching here is a bug.
			s.log.Panic().Err(err).Msg("board materialization failed")
		}
		s.board = b
		gen := clue.NewGenerator(s.genCfg, s.rng, s.log)
		s.clues, s.graph = gen.Generate(b)
	})
}

// distributeClues hands out clue ownership exactly once for the life of
// the session: shuffle all indices, split into max(6, total/players)-sized
// chunks in roster order, any remainder appended to the last player.
// With an empty roster the Once stays unconsumed, so a state query before
// anyone joins cannot swallow the deal.
func (s *Session) distributeClues() {
	if len(s.order) == 0 {
		return
	}
	s.distributeOnce.Do(func() {
		s.ensureMaterialized()
		total := len(s.clues)
		indices := make([]int, total)
		for i := range indices {
			indices[i] = i
		}
		s.rng.Shuffle(total, func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })

		perPlayer := total / len(s.order)
		if perPlayer < minCluesPerHand {
			perPlayer = minCluesPerHand
		}
		for i, id := range s.order {
			start := i * perPlayer
			if start > total {
				start = total
			}
			end := start + perPlayer
			if end > total {
				end = total
			}
			hand := append([]int{}, indices[start:end]...)
			if i == len(s.order)-1 {
				hand = append(hand, indices[end:]...)
			}
			s.revealed[id] = hand
			s.log.Debug().Str("player", id).Int("clues", len(hand)).Msg("clues dealt")
		}
	})
}

// SubmitSolution checks a guess for one cell on behalf of the turn holder.
// Correct supplied fields turn on the matching revealed flags and trigger
// pruning; wrong guesses, including positions off the board, leave the
// ledger untouched. The turn advances either way, and completion is
// re-evaluated before returning.
func (s *Session) SubmitSolution(playerID string, pos board.Position, guess Guess) SubmitResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if s.state != StatePlaying {
		return SubmitResult{Reason: ReasonNotPlaying}
	}
	if _, ok := s.players[playerID]; !ok {
		return SubmitResult{Reason: ReasonUnknownPlayer}
	}
	if playerID != s.currentTurn {
		return SubmitResult{Reason: ReasonNotYourTurn}
	}
	s.ensureMaterialized()
	inBounds := s.board.InBounds(pos)
	if inBounds {
		if entry, ok := s.solved[pos]; ok && entry.Revealed.Shape && entry.Revealed.Number {
			return SubmitResult{Reason: ReasonCellFullySolved}
		}
	}

	var actual board.Cell
	shapeCorrect, numberCorrect := false, false
	if inBounds {
		actual = s.board.At(pos)
		shapeCorrect = guess.Shape == nil || *guess.Shape == string(actual.Shape)
		numberCorrect = guess.Number == nil || *guess.Number == actual.Number
	}
	success := shapeCorrect && numberCorrect

	if success && (guess.Shape != nil || guess.Number != nil) {
		entry, ok := s.solved[pos]
		if !ok {
			entry = &SolvedCell{
				Solution: CellValue{Shape: string(actual.Shape), Number: actual.Number},
				SolvedBy: playerID,
			}
			s.solved[pos] = entry
		}
		if guess.Shape != nil && !entry.Revealed.Shape {
			entry.Revealed.Shape = true
			s.pruneRevealedFact(clue.Fact{Pos: pos, Value: clue.ShapeValue(actual.Shape)})
		}
		if guess.Number != nil && !entry.Revealed.Number {
			entry.Revealed.Number = true
			s.pruneRevealedFact(clue.Fact{Pos: pos, Value: clue.NumberValue(actual.Number)})
		}
		entry.SolvedAt = s.now().UTC().Format(time.RFC3339)
	}

	s.nextTurnLocked()
	s.checkCompletionLocked()

	res := SubmitResult{
		Success:        success,
		ShapeCorrect:   shapeCorrect,
		NumberCorrect:  numberCorrect,
		CellsRemaining: s.totalCellsLocked() - s.cellsSolvedLocked(),
		TurnsRemaining: s.maxTurns - s.turnCount,
		TimeRemaining:  s.timeRemainingLocked(),
		GameComplete:   s.state == StateFinished,
	}
	if !success {
		res.Reason = ReasonIncorrectGuess
	}
	return res
}

// ShareClue transfers ownership of one clue index from the turn holder to
// another player. The transfer is exclusive: the index leaves the sender's
// hand entirely and lands in the receiver's shared list. Consumes a turn.
func (s *Session) ShareClue(fromID, toID string, clueIndex int) ShareResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if s.state != StatePlaying {
		return ShareResult{Reason: ReasonNotPlaying}
	}
	if _, ok := s.players[fromID]; !ok {
		return ShareResult{Reason: ReasonInvalidPlayer}
	}
	if _, ok := s.players[toID]; !ok {
		return ShareResult{Reason: ReasonInvalidPlayer}
	}
	if fromID == toID {
		return ShareResult{Reason: ReasonSelfShare}
	}
	if fromID != s.currentTurn {
		return ShareResult{Reason: ReasonNotYourTurn}
	}
	s.ensureMaterialized()
	if clueIndex < 0 || clueIndex >= len(s.clues) {
		return ShareResult{Reason: ReasonInvalidClueIndex}
	}
	if !contains(s.revealed[fromID], clueIndex) && !contains(s.shared[fromID], clueIndex) {
		return ShareResult{Reason: ReasonClueNotOwned}
	}
	if contains(s.shared[toID], clueIndex) {
		return ShareResult{Reason: ReasonClueShared}
	}

	s.shared[toID] = append(s.shared[toID], clueIndex)
	s.revealed[fromID] = remove(s.revealed[fromID], clueIndex)
	s.shared[fromID] = remove(s.shared[fromID], clueIndex)

	s.nextTurnLocked()
	s.checkCompletionLocked()

	view := s.clues[clueIndex].View()
	return ShareResult{
		Success:    true,
		Clue:       &view,
		FromPlayer: s.players[fromID].Name,
		ToPlayer:   s.players[toID].Name,
	}
}

// SkipTurn advances past playerID if they currently hold the turn. The
// connection layer calls this synchronously when the turn holder
// disconnects; there is no grace timeout.
func (s *Session) SkipTurn(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePlaying || s.currentTurn != playerID {
		return false
	}
	s.nextTurnLocked()
	s.checkCompletionLocked()
	s.touchLocked()
	return true
}

// RemovePlayer drops a player from the roster. Their unowned clue indices
// are retired (the master collection is untouched). A session whose last
// player leaves finishes as abandoned.
func (s *Session) RemovePlayer(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return false
	}
	wasTurn := s.currentTurn == playerID
	delete(s.players, playerID)
	delete(s.revealed, playerID)
	delete(s.shared, playerID)
	for i, id := range s.order {
		if id == playerID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	p.SetGameID("")

	if len(s.order) == 0 {
		s.currentTurn = ""
		if s.state != StateFinished {
			s.finishLocked(CauseAbandoned)
		}
		return true
	}
	if wasTurn {
		// Hand the turn to the next player in order without burning a turn.
		s.currentTurn = s.order[0]
	}
	s.touchLocked()
	return true
}

// GetStateFor computes the per-player projection. Touching state this way
// also materializes and distributes on first access, and lazily detects
// time expiry.
func (s *Session) GetStateFor(playerID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.ensureMaterialized()
	s.distributeClues()
	if s.currentTurn == "" && len(s.order) > 0 {
		s.currentTurn = s.order[0]
	}
	s.checkCompletionLocked()

	indices := map[int]bool{}
	for _, i := range s.revealed[playerID] {
		indices[i] = true
	}
	for _, i := range s.shared[playerID] {
		indices[i] = true
	}
	sorted := make([]int, 0, len(indices))
	for i := range indices {
		sorted = append(sorted, i)
	}
	sort.Ints(sorted)
	views := make([]clue.View, 0, len(sorted))
	for _, i := range sorted {
		views = append(views, s.clues[i].View())
	}

	solvedCells := make(map[string]SolvedCell, len(s.solved))
	for pos, entry := range s.solved {
		solvedCells[pos.String()] = *entry
	}
	players := make([]PlayerView, 0, len(s.order))
	for _, id := range s.order {
		players = append(players, s.players[id].View())
	}

	cellsSolved := s.cellsSolvedLocked()
	total := s.totalCellsLocked()
	return State{
		SessionID:      s.ID,
		GameState:      s.state,
		BoardSize:      s.boardSize,
		Players:        players,
		CurrentTurn:    s.currentTurn,
		TurnCount:      s.turnCount,
		MaxTurns:       s.maxTurns,
		TurnsRemaining: s.maxTurns - s.turnCount,
		TimeRemaining:  s.timeRemainingLocked(),
		CellsSolved:    cellsSolved,
		CellsRemaining: total - cellsSolved,
		TotalCells:     total,
		SolvedCells:    solvedCells,
		Clues:          views,
		IsMyTurn:       s.currentTurn == playerID && s.state == StatePlaying,
	}
}

// Graph exposes the clue dependency structure for diagnostics. Forces
// materialization on first call.
func (s *Session) Graph() clue.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureMaterialized()
	return s.graph
}

// State reports the lifecycle state.
func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PlayerCount reports the roster size.
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Summary is the immutable record of a session used for archiving and
// manager sweeps.
type Summary struct {
	ID          string
	BoardSize   int
	State       string
	FinishCause string
	Players     []string
	TurnCount   int
	CellsSolved int
	TotalCells  int
	CreatedAt   time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
	LastTouch   time.Time
}

// Summarize snapshots the session for the manager and the archive.
func (s *Session) Summarize() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.order))
	for _, id := range s.order {
		names = append(names, s.players[id].Name)
	}
	return Summary{
		ID:          s.ID,
		BoardSize:   s.boardSize,
		State:       s.state,
		FinishCause: s.finishCause,
		Players:     names,
		TurnCount:   s.turnCount,
		CellsSolved: s.cellsSolvedLocked(),
		TotalCells:  s.totalCellsLocked(),
		CreatedAt:   s.createdAt,
		StartedAt:   s.startedAt,
		FinishedAt:  s.finishedAt,
		LastTouch:   s.lastTouch,
	}
}

// ----------------------------- internals -----------------------------------

// nextTurnLocked advances the turn pointer one slot round-robin and counts
// the completed turn.
func (s *Session) nextTurnLocked() {
	if len(s.order) == 0 {
		return
	}
	idx := 0
	for i, id := range s.order {
		if id == s.currentTurn {
			idx = i
			break
		}
	}
	s.currentTurn = s.order[(idx+1)%len(s.order)]
	s.turnCount++
}

// checkCompletionLocked evaluates the three independent exit conditions.
// The finished transition happens at most once.
func (s *Session) checkCompletionLocked() {
	if s.state != StatePlaying {
		return
	}
	switch {
	case s.cellsSolvedLocked() >= s.totalCellsLocked():
		s.finishLocked(CauseSolved)
	case s.maxTurns-s.turnCount <= 0:
		s.finishLocked(CauseTurnsExhausted)
	case s.timeRemainingLocked() <= 0:
		s.finishLocked(CauseTimeExhausted)
	}
}

func (s *Session) finishLocked(cause string) {
	s.timeLeft = s.timeRemainingLocked()
	s.state = StateFinished
	s.finishCause = cause
	s.finishedAt = s.now()
	s.log.Info().Str("cause", cause).Int("turns", s.turnCount).Msg("session finished")
}

// pruneRevealedFact removes every Explicit clue stating exactly the
// revealed fact, and every Conditional touching it on either side, from
// every player's visible lists. General clues stay: they may still inform
// other cells in the same line.
func (s *Session) pruneRevealedFact(f clue.Fact) {
	redundant := map[int]bool{}
	for i, c := range s.clues {
		if c.Asserts(f) {
			redundant[i] = true
		}
	}
	if len(redundant) == 0 {
		return
	}
	for id := range s.players {
		s.revealed[id] = removeAll(s.revealed[id], redundant)
		s.shared[id] = removeAll(s.shared[id], redundant)
	}
	s.log.Debug().Str("fact", f.String()).Int("pruned", len(redundant)).Msg("redundant clues pruned")
}

// timeRemainingLocked reports whole seconds left on the game clock: the
// full duration before start, the live countdown while playing, and the
// frozen value after finishing.
func (s *Session) timeRemainingLocked() int {
	switch s.state {
	case StatePlaying:
		elapsed := s.now().Sub(s.startedAt)
		left := s.duration - elapsed
		if left < 0 {
			left = 0
		}
		return int(left.Seconds())
	case StateFinished:
		return s.timeLeft
	}
	return int(s.duration.Seconds())
}

func (s *Session) totalCellsLocked() int { return s.boardSize * s.boardSize }

// cellsSolvedLocked counts fully revealed cells only.
func (s *Session) cellsSolvedLocked() int {
	n := 0
	for _, entry := range s.solved {
		if entry.Revealed.Shape && entry.Revealed.Number {
			n++
		}
	}
	return n
}

func (s *Session) touchLocked() { s.lastTouch = s.now() }

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func remove(xs []int, x int) []int {
	out := xs[:0]
	for _, v := range xs {
		if v != x {
			out = append(out, v)
		}
	}
	return out
}

func removeAll(xs []int, drop map[int]bool) []int {
	out := xs[:0]
	for _, v := range xs {
		if !drop[v] {
			out = append(out, v)
		}
	}
	return out
}
