// internal/catalog/catalog.go
//
// Registry of pluggable games. Each variant implements the Game
// capability interface; registration is an explicit table populated at
// startup, keyed by name. No dynamic discovery.

package catalog

import (
	"sort"
	"sync"
)

// Game is the capability surface a variant exposes to the catalog.
type Game interface {
	Name() string
	DisplayName() string
	Description() string
	URLPrefix() string
	Icon() string
	Info() map[string]any
	Stats() map[string]any
}

// Registry holds the registered games.
type Registry struct {
	mu    sync.RWMutex
	games map[string]Game
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{games: make(map[string]Game)}
}

// Register adds a game under its name. Later registrations with the same
// name replace earlier ones.
func (r *Registry) Register(g Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[g.Name()] = g
}

// Get looks up a game by name.
func (r *Registry) Get(name string) (Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[name]
	return g, ok
}

// List returns all registered games sorted by name.
func (r *Registry) List() []Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Game, 0, len(r.games))
	for _, g := range r.games {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
