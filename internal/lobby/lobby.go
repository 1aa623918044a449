// internal/lobby/lobby.go
//
// Waiting room for players before a game starts. Lobbies carry the board
// size setting, cap membership at four, and reassign the host when the
// current host leaves. The manager converts a startable lobby into a
// playing session.

package lobby

import (
	"sync"
	"time"

	"github.com/mysticgrid/go-server/internal/game"
)

// Lobby statuses.
const (
	StatusWaiting = "waiting"
	StatusStarted = "started"
)

// MaxPlayers caps lobby membership.
const MaxPlayers = 4

// Settings are the game options the host controls from the lobby.
type Settings struct {
	BoardSize int `json:"boardSize"`
}

// Lobby is one waiting room.
type Lobby struct {
	ID string

	mu        sync.Mutex
	hostID    string
	order     []string
	players   map[string]*game.Player
	settings  Settings
	status    string
	createdAt time.Time
}

// New builds a lobby hosted by host, who joins immediately.
func New(id string, host *game.Player) *Lobby {
	l := &Lobby{
		ID:        id,
		hostID:    host.ID,
		players:   make(map[string]*game.Player),
		settings:  Settings{BoardSize: game.DefaultBoardSize},
		status:    StatusWaiting,
		createdAt: time.Now(),
	}
	l.players[host.ID] = host
	l.order = append(l.order, host.ID)
	host.SetLobbyID(id)
	return l
}

// AddPlayer joins a player. Fails when full or on duplicates.
func (l *Lobby) AddPlayer(p *game.Player) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.order) >= MaxPlayers {
		return false
	}
	if _, ok := l.players[p.ID]; ok {
		return false
	}
	l.players[p.ID] = p
	l.order = append(l.order, p.ID)
	p.SetLobbyID(l.ID)
	return true
}

// RemovePlayer drops a player. If the host leaves, the longest-waiting
// remaining player becomes host.
func (l *Lobby) RemovePlayer(playerID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.players[playerID]
	if !ok {
		return false
	}
	delete(l.players, playerID)
	for i, id := range l.order {
		if id == playerID {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	p.SetLobbyID("")
	if playerID == l.hostID && len(l.order) > 0 {
		l.hostID = l.order[0]
	}
	return true
}

// SetBoardSize updates the lobby's game settings; only the host may call.
func (l *Lobby) SetBoardSize(playerID string, size int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if playerID != l.hostID {
		return false
	}
	l.settings.BoardSize = size
	return true
}

// CanStart reports whether a game may begin: at least one player and the
// lobby still waiting.
func (l *Lobby) CanStart() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order) >= 1 && l.status == StatusWaiting
}

// MarkStarted flips the lobby into its terminal started status and hands
// back the roster, in join order, for the session. Returns nil if the
// lobby cannot start.
func (l *Lobby) MarkStarted() []*game.Player {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.order) < 1 || l.status != StatusWaiting {
		return nil
	}
	l.status = StatusStarted
	roster := make([]*game.Player, 0, len(l.order))
	for _, id := range l.order {
		roster = append(roster, l.players[id])
	}
	return roster
}

// Empty reports whether no players remain.
func (l *Lobby) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order) == 0
}

// CreatedAt reports when the lobby was opened.
func (l *Lobby) CreatedAt() time.Time { return l.createdAt }

// Snapshot is the lobby state as sent to clients.
type Snapshot struct {
	LobbyID    string            `json:"lobbyId"`
	HostID     string            `json:"hostPlayerId"`
	Players    []game.PlayerView `json:"players"`
	MaxPlayers int               `json:"maxPlayers"`
	Settings   Settings          `json:"gameSettings"`
	Status     string            `json:"status"`
	CanStart   bool              `json:"canStart"`
}

// State snapshots the lobby for clients.
func (l *Lobby) State() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	players := make([]game.PlayerView, 0, len(l.order))
	for _, id := range l.order {
		players = append(players, l.players[id].View())
	}
	return Snapshot{
		LobbyID:    l.ID,
		HostID:     l.hostID,
		Players:    players,
		MaxPlayers: MaxPlayers,
		Settings:   l.settings,
		Status:     l.status,
		CanStart:   len(l.order) >= 1 && l.status == StatusWaiting,
	}
}
