// internal/history/store.go
//
// SQLite-backed archive of finished games. Live sessions are never
// persisted; only their final summaries land here when the manager's
// cleanup sweep retires them.

package history

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mysticgrid/go-server/internal/game"
)

// Store reads and writes archived game rows.
type Store struct{ db *sql.DB }

// NewStore wraps a migrated database handle.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Record inserts one finished-game summary. Re-recording the same session
// id is a no-op.
func (s *Store) Record(ctx context.Context, sum game.Summary) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO finished_games
		   (session_id, board_size, players, turn_count, cells_solved, total_cells, finish_cause, started_at, finished_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		sum.ID, sum.BoardSize, strings.Join(sum.Players, ","), sum.TurnCount,
		sum.CellsSolved, sum.TotalCells, sum.FinishCause,
		formatTime(sum.StartedAt), formatTime(sum.FinishedAt),
	)
	return err
}

// Row is one archived game as served to clients.
type Row struct {
	SessionID   string   `json:"sessionId"`
	BoardSize   int      `json:"boardSize"`
	Players     []string `json:"players"`
	TurnCount   int      `json:"turnCount"`
	CellsSolved int      `json:"cellsSolved"`
	TotalCells  int      `json:"totalCells"`
	FinishCause string   `json:"finishCause"`
	StartedAt   string   `json:"startedAt"`
	FinishedAt  string   `json:"finishedAt"`
}

// Recent lists the most recently finished games, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, board_size, players, turn_count, cells_solved, total_cells, finish_cause, started_at, finished_at
		   FROM finished_games
		  ORDER BY finished_at DESC
		  LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		var r Row
		var players string
		if err := rows.Scan(&r.SessionID, &r.BoardSize, &players, &r.TurnCount,
			&r.CellsSolved, &r.TotalCells, &r.FinishCause, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		if players != "" {
			r.Players = strings.Split(players, ",")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
