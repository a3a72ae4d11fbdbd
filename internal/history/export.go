package history

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ExportedGame is the portable record of one archived game.
type ExportedGame struct {
	ID        string      `json:"id,omitempty" yaml:"id,omitempty"`
	Started   time.Time   `json:"started" yaml:"started"`
	Ended     *time.Time  `json:"ended,omitempty" yaml:"ended,omitempty"`
	Minutes   int         `json:"minutes" yaml:"minutes"`
	Rounds    int         `json:"rounds" yaml:"rounds"`
	Rules     []string    `json:"rules,omitempty" yaml:"rules,omitempty"`
	Standings []Standing  `json:"standings" yaml:"standings"`
	Tables    *GameTables `json:"tables,omitempty" yaml:"tables,omitempty"`
}

type Standing struct {
	Place int    `json:"place" yaml:"place"`
	Name  string `json:"name" yaml:"name"`
	Score int    `json:"score" yaml:"score"`
}

// GameTables holds the per-round rows, one column per player.
type GameTables struct {
	Players []string `json:"players" yaml:"players"`
	Bets    [][]int  `json:"bets" yaml:"bets,flow"`
	Tricks  [][]int  `json:"tricks" yaml:"tricks,flow"`
	Score   [][]int  `json:"score" yaml:"score,flow"`
}

// Exported converts the archive, newest first. With tables set every round
// is included.
func (a Archive) Exported(tables bool) []ExportedGame {
	out := make([]ExportedGame, 0, len(a.Entries))
	for _, e := range a.Entries {
		g := e.Game
		s := Summarize(g)
		rec := ExportedGame{
			Started: s.Started,
			Minutes: s.Minutes,
			Rounds:  s.Rounds,
			Rules:   g.Rules().Names(),
		}
		if g.HasID() {
			rec.ID = g.ID()
		}
		if !s.Ended.IsZero() {
			ended := s.Ended
			rec.Ended = &ended
		}
		for _, r := range s.Standings {
			rec.Standings = append(rec.Standings, Standing{Place: r.Place, Name: r.Name, Score: r.Score})
		}
		if tables {
			rec.Tables = &GameTables{
				Players: g.Players(),
				Bets:    g.Bets(),
				Tricks:  g.Tricks(),
				Score:   g.Score(),
			}
		}
		out = append(out, rec)
	}
	return out
}

// Export writes the archive to w as JSON or YAML.
func Export(w io.Writer, a Archive, format string, tables bool) error {
	games := a.Exported(tables)
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(games); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(games); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	return nil
}
