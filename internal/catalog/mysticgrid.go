// internal/catalog/mysticgrid.go
//
// Catalog entry for the MysticGrid variant, backed by the live manager
// for stats.

package catalog

// StatsProvider supplies live registry counts; the manager implements it.
type StatsProvider interface {
	Stats() map[string]any
}

// MysticGrid is the catalog entry for the grid deduction game.
type MysticGrid struct {
	stats StatsProvider
}

// NewMysticGrid wires the entry to its stats source.
func NewMysticGrid(stats StatsProvider) *MysticGrid {
	return &MysticGrid{stats: stats}
}

func (g *MysticGrid) Name() string        { return "mysticgrid" }
func (g *MysticGrid) DisplayName() string { return "MysticGrid" }
func (g *MysticGrid) Description() string {
	return "A collaborative multiplayer puzzle game where players work together to solve a mystical grid using logical clues!"
}
func (g *MysticGrid) URLPrefix() string { return "/mysticgrid" }
func (g *MysticGrid) Icon() string      { return "🔮" }

func (g *MysticGrid) Info() map[string]any {
	return map[string]any{
		"name":         g.Name(),
		"display_name": g.DisplayName(),
		"description":  g.Description(),
		"url_prefix":   g.URLPrefix(),
		"icon":         g.Icon(),
		"features": []string{
			"Multiplayer Support",
			"Logic Puzzles",
			"No Login Required",
			"Collaborative Solving",
		},
		"rules": []string{
			"Each cell contains a shape (🟢🟦⭐❤️) and a number (1-4)",
			"You receive clues to help solve the puzzle",
			"Share clues or submit solutions on your turn",
			"Work together to solve all cells!",
		},
		"stats": g.Stats(),
	}
}

func (g *MysticGrid) Stats() map[string]any {
	if g.stats == nil {
		return map[string]any{}
	}
	return g.stats.Stats()
}
