// internal/game/player.go
//
// Player identity as the game core sees it. Identity fields are immutable
// after creation; the presence fields (connected flag, lobby/game
// membership) are guarded by the player's own lock because the manager,
// lobbies, and sessions all touch them from different goroutines.

package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Player is one participant. Created by the manager, referenced by lobbies
// and sessions.
type Player struct {
	ID       string
	Name     string
	JoinedAt time.Time

	mu        sync.Mutex
	connected bool
	lobbyID   string
	gameID    string
}

// NewPlayer mints a player. An empty name defaults to a short handle
// derived from the id.
func NewPlayer(name string) *Player {
	id := uuid.NewString()
	if name == "" {
		name = "Player_" + id[:8]
	}
	return &Player{ID: id, Name: name, JoinedAt: time.Now()}
}

// SetConnected flips the connection flag.
func (p *Player) SetConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

// Connected reports whether the player is currently connected.
func (p *Player) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// SetLobbyID records lobby membership; empty means none.
func (p *Player) SetLobbyID(id string) {
	p.mu.Lock()
	p.lobbyID = id
	p.mu.Unlock()
}

// LobbyID reports the lobby the player is in, if any.
func (p *Player) LobbyID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lobbyID
}

// SetGameID records session membership; empty means none.
func (p *Player) SetGameID(id string) {
	p.mu.Lock()
	p.gameID = id
	p.mu.Unlock()
}

// GameID reports the session the player is in, if any.
func (p *Player) GameID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gameID
}

// PlayerView is the JSON projection of a player.
type PlayerView struct {
	ID        string `json:"playerId"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	LobbyID   string `json:"currentLobbyId,omitempty"`
	GameID    string `json:"currentGameId,omitempty"`
}

// View snapshots the player for client payloads.
func (p *Player) View() PlayerView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PlayerView{
		ID:        p.ID,
		Name:      p.Name,
		Connected: p.connected,
		LobbyID:   p.lobbyID,
		GameID:    p.gameID,
	}
}
