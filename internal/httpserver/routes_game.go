// internal/httpserver/routes_game.go
//
// Lobby and session handlers. These are thin adapters: they validate
// transport-level input (JSON shape, enum membership, bounds), resolve
// the authenticated player, and pass through to the manager/session.
// Game-logic rejections travel back as structured results, not HTTP
// errors.

package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mysticgrid/go-server/internal/board"
	"github.com/mysticgrid/go-server/internal/game"
)

// ------------------------------ lobbies ------------------------------------

// handleCreateLobby opens a lobby hosted by the requesting player.
func (s *Server) handleCreateLobby(w http.ResponseWriter, r *http.Request) {
	p := playerFrom(r)
	id, ok := s.mgr.CreateLobby(p.ID)
	if !ok {
		http.Error(w, `{"error":"create_failed"}`, http.StatusInternalServerError)
		return
	}
	l, _ := s.mgr.GetLobby(id)
	_ = json.NewEncoder(w).Encode(l.State())
}

func (s *Server) handleLobbyState(w http.ResponseWriter, r *http.Request) {
	l, ok := s.mgr.GetLobby(chi.URLParam(r, "lobbyID"))
	if !ok {
		http.Error(w, `{"error":"lobby_not_found"}`, http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(l.State())
}

func (s *Server) handleJoinLobby(w http.ResponseWriter, r *http.Request) {
	p := playerFrom(r)
	lobbyID := chi.URLParam(r, "lobbyID")
	if !s.mgr.JoinLobby(lobbyID, p.ID) {
		http.Error(w, `{"error":"join_failed"}`, http.StatusConflict)
		return
	}
	l, _ := s.mgr.GetLobby(lobbyID)
	_ = json.NewEncoder(w).Encode(l.State())
}

func (s *Server) handleLeaveLobby(w http.ResponseWriter, r *http.Request) {
	p := playerFrom(r)
	ok := s.mgr.LeaveLobby(chi.URLParam(r, "lobbyID"), p.ID)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": ok})
}

type lobbySettingsReq struct {
	BoardSize int `json:"boardSize"`
}

// handleLobbySettings updates the lobby's game settings. Host only; the
// board size itself is validated when the session is created.
func (s *Server) handleLobbySettings(w http.ResponseWriter, r *http.Request) {
	p := playerFrom(r)
	l, ok := s.mgr.GetLobby(chi.URLParam(r, "lobbyID"))
	if !ok {
		http.Error(w, `{"error":"lobby_not_found"}`, http.StatusNotFound)
		return
	}
	var req lobbySettingsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if board.ValidateSize(req.BoardSize) != nil {
		http.Error(w, `{"error":"invalid_board_size"}`, http.StatusBadRequest)
		return
	}
	if !l.SetBoardSize(p.ID, req.BoardSize) {
		http.Error(w, `{"error":"host_only"}`, http.StatusForbidden)
		return
	}
	_ = json.NewEncoder(w).Encode(l.State())
}

type startFromLobbyRes struct {
	GameID string `json:"gameId"`
}

// handleStartFromLobby converts the lobby into a playing session.
func (s *Server) handleStartFromLobby(w http.ResponseWriter, r *http.Request) {
	lobbyID := chi.URLParam(r, "lobbyID")
	if _, ok := s.mgr.GetLobby(lobbyID); !ok {
		http.Error(w, `{"error":"lobby_not_found"}`, http.StatusNotFound)
		return
	}
	gameID, ok := s.mgr.StartGameFromLobby(lobbyID)
	if !ok {
		http.Error(w, `{"error":"start_failed"}`, http.StatusConflict)
		return
	}
	_ = json.NewEncoder(w).Encode(startFromLobbyRes{GameID: gameID})
}

// ------------------------------ sessions -----------------------------------

type createSessionReq struct {
	BoardSize int `json:"boardSize"`
}
type createSessionRes struct {
	SessionID string `json:"sessionId"`
}

// handleCreateSession creates an empty waiting session directly, without
// going through a lobby.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionReq
	_ = json.NewDecoder(r.Body).Decode(&req)
	id, ok := s.mgr.CreateSession(req.BoardSize)
	if !ok {
		http.Error(w, `{"error":"invalid_board_size"}`, http.StatusBadRequest)
		return
	}
	_ = json.NewEncoder(w).Encode(createSessionRes{SessionID: id})
}

func (s *Server) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	p := playerFrom(r)
	sessionID := chi.URLParam(r, "sessionID")
	if _, ok := s.mgr.GetSession(sessionID); !ok {
		http.Error(w, `{"error":"session_not_found"}`, http.StatusNotFound)
		return
	}
	joined := s.mgr.AddPlayerToSession(sessionID, p.ID)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": joined})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.mgr.GetSession(chi.URLParam(r, "sessionID"))
	if !ok {
		http.Error(w, `{"error":"session_not_found"}`, http.StatusNotFound)
		return
	}
	started := sess.Start()
	_ = json.NewEncoder(w).Encode(map[string]bool{"started": started})
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	p := playerFrom(r)
	sess, ok := s.mgr.GetSession(chi.URLParam(r, "sessionID"))
	if !ok {
		http.Error(w, `{"error":"session_not_found"}`, http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(sess.GetStateFor(p.ID))
}

type submitReq struct {
	Position []int      `json:"position"` // [row, col]
	Guess    game.Guess `json:"guess"`
}

// handleSubmitSolution validates input shape and enum membership, then
// hands the guess to the session.
func (s *Server) handleSubmitSolution(w http.ResponseWriter, r *http.Request) {
	p := playerFrom(r)
	sess, ok := s.mgr.GetSession(chi.URLParam(r, "sessionID"))
	if !ok {
		http.Error(w, `{"error":"session_not_found"}`, http.StatusNotFound)
		return
	}
	var req submitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if len(req.Position) != 2 {
		http.Error(w, `{"error":"bad_position"}`, http.StatusBadRequest)
		return
	}
	if req.Guess.Shape != nil && !board.ValidShape(board.Shape(*req.Guess.Shape)) {
		http.Error(w, `{"error":"bad_shape"}`, http.StatusBadRequest)
		return
	}
	if req.Guess.Number != nil && !board.ValidNumber(*req.Guess.Number) {
		http.Error(w, `{"error":"bad_number"}`, http.StatusBadRequest)
		return
	}
	pos := board.Position{Row: req.Position[0], Col: req.Position[1]}
	res := sess.SubmitSolution(p.ID, pos, req.Guess)
	if !res.Success {
		log.Debug().Str("session", sess.ID).Str("player", p.ID).Str("reason", string(res.Reason)).Msg("submission rejected")
	}
	_ = json.NewEncoder(w).Encode(res)
}

type shareReq struct {
	ToPlayerID string `json:"toPlayerId"`
	ClueIndex  int    `json:"clueIndex"`
}

func (s *Server) handleShareClue(w http.ResponseWriter, r *http.Request) {
	p := playerFrom(r)
	sess, ok := s.mgr.GetSession(chi.URLParam(r, "sessionID"))
	if !ok {
		http.Error(w, `{"error":"session_not_found"}`, http.StatusNotFound)
		return
	}
	var req shareReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	res := sess.ShareClue(p.ID, req.ToPlayerID, req.ClueIndex)
	_ = json.NewEncoder(w).Encode(res)
}

func (s *Server) handleLeaveSession(w http.ResponseWriter, r *http.Request) {
	p := playerFrom(r)
	ok := s.mgr.LeaveSession(chi.URLParam(r, "sessionID"), p.ID)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": ok})
}
