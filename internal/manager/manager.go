// internal/manager/manager.go
//
// Central coordinator for players, lobbies, and game sessions.
// Thin by design: sessions own their own state and locking; the manager
// only creates, looks up, routes lobby-to-session transitions, and runs
// periodic cleanup sweeps. Finished sessions get archived before removal.

package manager

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mysticgrid/go-server/internal/game"
	"github.com/mysticgrid/go-server/internal/lobby"
)

// Archive persists finished-game records. Implemented by the history
// package; nil disables archiving.
type Archive interface {
	Record(ctx context.Context, s game.Summary) error
}

// Config carries session defaults and sweep retention windows.
type Config struct {
	MaxTurns          int
	GameDuration      time.Duration
	FinishedRetention time.Duration // finished session kept this long before removal
	LobbyRetention    time.Duration // idle lobby lifetime
	PlayerRetention   time.Duration // disconnected player lifetime
}

// DefaultConfig mirrors the shipped server tuning.
func DefaultConfig() Config {
	return Config{
		MaxTurns:          game.DefaultMaxTurns,
		GameDuration:      game.DefaultDuration,
		FinishedRetention: 30 * time.Minute,
		LobbyRetention:    time.Hour,
		PlayerRetention:   2 * time.Hour,
	}
}

// Manager is the registry of everything live in the process.
type Manager struct {
	mu       sync.Mutex
	log      zerolog.Logger
	cfg      Config
	archive  Archive
	players  map[string]*game.Player
	lobbies  map[string]*lobby.Lobby
	sessions map[string]*game.Session
	now      func() time.Time
}

// New wires a manager.
func New(cfg Config, archive Archive, log zerolog.Logger) *Manager {
	return &Manager{
		log:      log,
		cfg:      cfg,
		archive:  archive,
		players:  make(map[string]*game.Player),
		lobbies:  make(map[string]*lobby.Lobby),
		sessions: make(map[string]*game.Session),
		now:      time.Now,
	}
}

// CreatePlayer registers a new player.
func (m *Manager) CreatePlayer(name string) *game.Player {
	p := game.NewPlayer(name)
	p.SetConnected(true)
	m.mu.Lock()
	m.players[p.ID] = p
	m.mu.Unlock()
	m.log.Info().Str("player", p.ID).Str("name", p.Name).Msg("player created")
	return p
}

// GetPlayer looks up a player by id.
func (m *Manager) GetPlayer(id string) (*game.Player, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	return p, ok
}

// CreateLobby opens a lobby hosted by hostID.
func (m *Manager) CreateLobby(hostID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	host, ok := m.players[hostID]
	if !ok {
		return "", false
	}
	id := "lobby_" + uuid.NewString()[:8]
	m.lobbies[id] = lobby.New(id, host)
	m.log.Info().Str("lobby", id).Str("host", hostID).Msg("lobby created")
	return id, true
}

// JoinLobby adds a player to a lobby.
func (m *Manager) JoinLobby(lobbyID, playerID string) bool {
	m.mu.Lock()
	l, okL := m.lobbies[lobbyID]
	p, okP := m.players[playerID]
	m.mu.Unlock()
	if !okL || !okP {
		return false
	}
	return l.AddPlayer(p)
}

// LeaveLobby removes a player; an emptied lobby is deleted.
func (m *Manager) LeaveLobby(lobbyID, playerID string) bool {
	m.mu.Lock()
	l, ok := m.lobbies[lobbyID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	removed := l.RemovePlayer(playerID)
	if l.Empty() {
		m.mu.Lock()
		delete(m.lobbies, lobbyID)
		m.mu.Unlock()
	}
	return removed
}

// GetLobby looks up a lobby by id.
func (m *Manager) GetLobby(id string) (*lobby.Lobby, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lobbies[id]
	return l, ok
}

// StartGameFromLobby converts a startable lobby into a playing session:
// the roster carries over in join order, the lobby is retired, and the
// session starts immediately (board and clues still materialize lazily on
// first access).
func (m *Manager) StartGameFromLobby(lobbyID string) (string, bool) {
	m.mu.Lock()
	l, ok := m.lobbies[lobbyID]
	m.mu.Unlock()
	if !ok {
		return "", false
	}
	roster := l.MarkStarted()
	if roster == nil {
		return "", false
	}
	size := l.State().Settings.BoardSize

	id, ok := m.createSession(size)
	if !ok {
		return "", false
	}
	m.mu.Lock()
	sess := m.sessions[id]
	delete(m.lobbies, lobbyID)
	m.mu.Unlock()

	for _, p := range roster {
		p.SetLobbyID("")
		sess.AddPlayer(p)
	}
	sess.Start()
	m.log.Info().Str("lobby", lobbyID).Str("session", id).Int("players", len(roster)).Msg("game started from lobby")
	return id, true
}

// CreateSession creates an empty waiting session directly.
func (m *Manager) CreateSession(boardSize int) (string, bool) {
	return m.createSession(boardSize)
}

func (m *Manager) createSession(boardSize int) (string, bool) {
	id := "game_" + uuid.NewString()[:8]
	sess, err := game.NewSession(id, game.Options{
		BoardSize: boardSize,
		MaxTurns:  m.cfg.MaxTurns,
		Duration:  m.cfg.GameDuration,
		Logger:    m.log,
	})
	if err != nil {
		m.log.Warn().Err(err).Int("boardSize", boardSize).Msg("session creation rejected")
		return "", false
	}
	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()
	return id, true
}

// AddPlayerToSession joins a registered player into a session.
func (m *Manager) AddPlayerToSession(sessionID, playerID string) bool {
	m.mu.Lock()
	sess, okS := m.sessions[sessionID]
	p, okP := m.players[playerID]
	m.mu.Unlock()
	if !okS || !okP {
		return false
	}
	return sess.AddPlayer(p)
}

// GetSession looks up a session by id.
func (m *Manager) GetSession(id string) (*game.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// HandleDisconnect marks a player disconnected and, if they hold the turn
// in their session, skips it synchronously. This is the one concurrency
// contract the session exposes to the connection layer.
func (m *Manager) HandleDisconnect(playerID string) {
	m.mu.Lock()
	p, ok := m.players[playerID]
	var sess *game.Session
	if ok {
		p.SetConnected(false)
		if gid := p.GameID(); gid != "" {
			sess = m.sessions[gid]
		}
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	if sess != nil && sess.SkipTurn(playerID) {
		m.log.Info().Str("player", playerID).Str("session", sess.ID).Msg("turn skipped after disconnect")
	}
}

// LeaveSession removes a player from their session; a session emptied of
// players finishes as abandoned.
func (m *Manager) LeaveSession(sessionID, playerID string) bool {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	return sess.RemovePlayer(playerID)
}

// CleanupFinished archives and removes sessions finished longer than the
// retention window ago. Called periodically by the outer layer.
func (m *Manager) CleanupFinished(ctx context.Context) int {
	m.mu.Lock()
	candidates := make([]*game.Session, 0)
	for _, s := range m.sessions {
		candidates = append(candidates, s)
	}
	m.mu.Unlock()

	removed := 0
	cutoff := m.now().Add(-m.cfg.FinishedRetention)
	for _, s := range candidates {
		sum := s.Summarize()
		if sum.State != game.StateFinished || sum.FinishedAt.After(cutoff) {
			continue
		}
		if m.archive != nil {
			if err := m.archive.Record(ctx, sum); err != nil {
				m.log.Warn().Err(err).Str("session", sum.ID).Msg("archive finished game")
			}
		}
		m.mu.Lock()
		delete(m.sessions, sum.ID)
		m.mu.Unlock()
		removed++
		m.log.Info().Str("session", sum.ID).Msg("finished session removed")
	}
	return removed
}

// CleanupIdle removes stale lobbies and long-disconnected players.
func (m *Manager) CleanupIdle() (lobbies, players int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nowT := m.now()
	for id, l := range m.lobbies {
		if l.Empty() || nowT.Sub(l.CreatedAt()) > m.cfg.LobbyRetention {
			delete(m.lobbies, id)
			lobbies++
		}
	}
	for id, p := range m.players {
		if !p.Connected() && nowT.Sub(p.JoinedAt) > m.cfg.PlayerRetention {
			delete(m.players, id)
			players++
		}
	}
	if lobbies > 0 || players > 0 {
		m.log.Info().Int("lobbies", lobbies).Int("players", players).Msg("idle cleanup")
	}
	return lobbies, players
}

// Stats reports a registry snapshot for the catalog.
func (m *Manager) Stats() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	connected := 0
	for _, p := range m.players {
		if p.Connected() {
			connected++
		}
	}
	return map[string]any{
		"active_lobbies":    len(m.lobbies),
		"active_games":      len(m.sessions),
		"total_players":     len(m.players),
		"connected_players": connected,
	}
}
