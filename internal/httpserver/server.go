// internal/httpserver/server.go
//
// HTTP server wiring for the MysticGrid backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", catalog + stats.
//   - Player registration: mints an identity and a signed token.
//   - Game endpoints (require a player token): lobbies, sessions,
//     solution submission, clue sharing, state polling.
//   - Finished-game history.
//
// Notes:
//   - Players are ephemeral named identities, not accounts; the JWT only
//     binds requests to a player id.
//   - Game-logic rejections come back as 200s with success=false and a
//     discrete error reason; HTTP errors are reserved for transport-level
//     problems (bad JSON, unknown ids, missing auth).

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/mysticgrid/go-server/internal/catalog"
	"github.com/mysticgrid/go-server/internal/game"
	"github.com/mysticgrid/go-server/internal/history"
	"github.com/mysticgrid/go-server/internal/manager"
)

// Server bundles the router with its collaborators.
type Server struct {
	r        *chi.Mux
	mgr      *manager.Manager
	registry *catalog.Registry
	hist     *history.Store
}

// New constructs a Server, installs middleware, and registers routes.
// hist may be nil when archiving is disabled.
func New(mgr *manager.Manager, registry *catalog.Registry, hist *history.Store) *Server {
	s := &Server{r: chi.NewRouter(), mgr: mgr, registry: registry, hist: hist}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(corsFromEnv)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"mysticgrid-go","endpoints":["/health","/api/games","POST /api/players","/api/lobbies","/api/sessions"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Catalog + stats.
	s.r.Get("/api/games", s.handleCatalog)
	s.r.Get("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(s.mgr.Stats())
	})

	// Player registration is open; everything below requires a token.
	s.r.Post("/api/players", s.handleCreatePlayer)

	s.r.Group(func(r chi.Router) {
		r.Use(s.requirePlayer())

		r.Post("/api/players/me/disconnect", s.handleDisconnect)

		r.Post("/api/lobbies", s.handleCreateLobby)
		r.Get("/api/lobbies/{lobbyID}", s.handleLobbyState)
		r.Post("/api/lobbies/{lobbyID}/join", s.handleJoinLobby)
		r.Post("/api/lobbies/{lobbyID}/leave", s.handleLeaveLobby)
		r.Post("/api/lobbies/{lobbyID}/settings", s.handleLobbySettings)
		r.Post("/api/lobbies/{lobbyID}/start", s.handleStartFromLobby)

		r.Post("/api/sessions", s.handleCreateSession)
		r.Post("/api/sessions/{sessionID}/join", s.handleJoinSession)
		r.Post("/api/sessions/{sessionID}/start", s.handleStartSession)
		r.Get("/api/sessions/{sessionID}/state", s.handleSessionState)
		r.Post("/api/sessions/{sessionID}/solution", s.handleSubmitSolution)
		r.Post("/api/sessions/{sessionID}/share", s.handleShareClue)
		r.Post("/api/sessions/{sessionID}/leave", s.handleLeaveSession)
	})

	s.r.Get("/api/history/recent", s.handleRecentGames)

	// JSON 404 for easier debugging.
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ players ------------------------------------

type createPlayerReq struct {
	Name string `json:"name"`
}
type createPlayerRes struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Token    string `json:"token"`
}

// handleCreatePlayer registers an ephemeral player identity and returns a
// signed token binding requests to it.
func (s *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req createPlayerReq
	_ = json.NewDecoder(r.Body).Decode(&req)
	p := s.mgr.CreatePlayer(strings.TrimSpace(req.Name))
	tok, exp, err := signJWT(p.ID, p.Name)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	setAuthCookie(w, tok, exp)
	_ = json.NewEncoder(w).Encode(createPlayerRes{PlayerID: p.ID, Name: p.Name, Token: tok})
}

// handleDisconnect lets the connection layer report a dropped player; the
// manager skips their turn synchronously if they held it.
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	p := playerFrom(r)
	s.mgr.HandleDisconnect(p.ID)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// ------------------------------ catalog ------------------------------------

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	games := s.registry.List()
	out := make([]map[string]any, 0, len(games))
	for _, g := range games {
		out = append(out, g.Info())
	}
	_ = json.NewEncoder(w).Encode(out)
}

// ------------------------------ history ------------------------------------

func (s *Server) handleRecentGames(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		_ = json.NewEncoder(w).Encode([]history.Row{})
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	rows, err := s.hist.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(rows)
}

// ------------------------------ JWT & cookies ------------------------------

// ctxPlayerKey is the context key type for the authenticated player.
type ctxPlayerKey struct{}

// playerFrom pulls the authenticated player out of the request context.
// Only valid behind requirePlayer.
func playerFrom(r *http.Request) *game.Player {
	p, _ := r.Context().Value(ctxPlayerKey{}).(*game.Player)
	return p
}

// requirePlayer enforces a valid token and a still-registered player, and
// injects the player into the request context.
func (s *Server) requirePlayer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerOrCookie(r)
			if tokenStr == "" {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(getEnv("JWT_SECRET", "dev_secret_change_me")), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, `{"error":"invalid_token"}`, http.StatusUnauthorized)
				return
			}
			id, _ := claims["id"].(string)
			if id == "" {
				http.Error(w, `{"error":"invalid_token"}`, http.StatusUnauthorized)
				return
			}
			p, ok := s.mgr.GetPlayer(id)
			if !ok {
				http.Error(w, `{"error":"invalid_token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxPlayerKey{}, p)))
		})
	}
}

// signJWT creates an HS256 token with the player id/name and a
// configurable expiry (TOKEN_EXPIRES_HOURS; default 24).
func signJWT(id, name string) (string, time.Time, error) {
	secret := getEnv("JWT_SECRET", "dev_secret_change_me")
	hours := 24
	if v := os.Getenv("TOKEN_EXPIRES_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			hours = n
		}
	}
	exp := time.Now().Add(time.Duration(hours) * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   id,
		"name": name,
		"exp":  exp.Unix(),
		"iat":  time.Now().Unix(),
	})
	ss, err := t.SignedString([]byte(secret))
	return ss, exp, err
}

// setAuthCookie writes the player token cookie.
func setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	name := getEnv("COOKIE_NAME", "mysticgrid_token")
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// bearerOrCookie extracts a token from the Authorization header or cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(getEnv("COOKIE_NAME", "mysticgrid_token")); err == nil {
		return c.Value
	}
	return ""
}

// ------------------------------- small util --------------------------------

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
