// internal/game/results.go
//
// Structured results for game operations. Game-logic failures are values
// carrying a discrete Reason, never errors: the transport layer surfaces
// them verbatim to the requesting client and nothing is retried.

package game

import "github.com/mysticgrid/go-server/internal/clue"

// Reason is the discrete failure code attached to rejected operations.
type Reason string

const (
	ReasonNotPlaying       Reason = "not_playing"
	ReasonUnknownPlayer    Reason = "unknown_player"
	ReasonNotYourTurn      Reason = "not_your_turn"
	ReasonCellFullySolved  Reason = "cell_fully_solved"
	ReasonIncorrectGuess   Reason = "incorrect_guess"
	ReasonInvalidPlayer    Reason = "invalid_player"
	ReasonSelfShare        Reason = "self_share"
	ReasonInvalidClueIndex Reason = "invalid_clue_index"
	ReasonClueNotOwned     Reason = "clue_not_owned"
	ReasonClueShared       Reason = "clue_already_shared"
)

// Guess carries the optional shape and number fields of a submission.
// A nil field means that attribute was not guessed.
type Guess struct {
	Shape  *string `json:"shape"`
	Number *int    `json:"number"`
}

// SubmitResult reports the outcome of a solution submission.
type SubmitResult struct {
	Success        bool   `json:"success"`
	Reason         Reason `json:"error,omitempty"`
	ShapeCorrect   bool   `json:"shapeCorrect"`
	NumberCorrect  bool   `json:"numberCorrect"`
	CellsRemaining int    `json:"cellsRemaining"`
	TurnsRemaining int    `json:"turnsRemaining"`
	TimeRemaining  int    `json:"timeRemaining"`
	GameComplete   bool   `json:"gameComplete"`
}

// ShareResult reports the outcome of a clue share.
type ShareResult struct {
	Success    bool       `json:"success"`
	Reason     Reason     `json:"error,omitempty"`
	Clue       *clue.View `json:"clue,omitempty"`
	FromPlayer string     `json:"fromPlayerName,omitempty"`
	ToPlayer   string     `json:"toPlayerName,omitempty"`
}

// SolvedCell is one ledger entry: which attributes of a cell are revealed,
// the full solution, who first touched it, and when it last changed.
// Revealed flags only ever turn on.
type SolvedCell struct {
	Revealed Revealed  `json:"revealed"`
	Solution CellValue `json:"solution"`
	SolvedBy string    `json:"playerId"`
	SolvedAt string    `json:"solvedAt"`
}

// Revealed tracks per-attribute visibility of a solved cell.
type Revealed struct {
	Shape  bool `json:"shape"`
	Number bool `json:"number"`
}

// CellValue is the true content of a cell, exposed once (partially) solved.
type CellValue struct {
	Shape  string `json:"shape"`
	Number int    `json:"number"`
}

// State is the per-player projection of a session, computed fresh on every
// query. Clues contain only the indices the player owns (revealed or
// shared), resolved to payloads; nothing of other players' hands leaks.
type State struct {
	SessionID      string                `json:"sessionId"`
	GameState      string                `json:"gameState"`
	BoardSize      int                   `json:"boardSize"`
	Players        []PlayerView          `json:"players"`
	CurrentTurn    string                `json:"currentTurn"`
	TurnCount      int                   `json:"turnCount"`
	MaxTurns       int                   `json:"maxTurns"`
	TurnsRemaining int                   `json:"turnsRemaining"`
	TimeRemaining  int                   `json:"timeRemaining"`
	CellsSolved    int                   `json:"cellsSolved"`
	CellsRemaining int                   `json:"cellsRemaining"`
	TotalCells     int                   `json:"totalCells"`
	SolvedCells    map[string]SolvedCell `json:"solvedCells"`
	Clues          []clue.View           `json:"clues"`
	IsMyTurn       bool                  `json:"isMyTurn"`
}
