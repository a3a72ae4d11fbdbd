// Package history reads the archive of finished games and keeps it in sync
// with the share server.
package history

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/wizardscore/internal/game"
	"github.com/lox/wizardscore/internal/scoring"
)

// Source is the read side of the local archive.
type Source interface {
	ArchivedRaw() ([]json.RawMessage, error)
}

// Entry is one decoded archived game. Index is its position in the archive
// document, which is what ReplaceArchived and RemoveArchived expect.
type Entry struct {
	Index int
	Game  *game.Game
}

// Archive is the decoded archive, newest first.
type Archive struct {
	Entries []Entry
	// Skipped counts entries that no longer decode.
	Skipped int
}

// Load decodes every archived game. Corrupt entries are logged and counted,
// never fatal.
func Load(src Source, logger *log.Logger) (Archive, error) {
	raw, err := src.ArchivedRaw()
	if err != nil {
		return Archive{}, err
	}

	var a Archive
	for i, doc := range raw {
		g, err := game.Decode(doc)
		if err != nil {
			if logger != nil {
				logger.Warn("Skipping corrupt archived game", "index", i, "error", err)
			}
			a.Skipped++
			continue
		}
		a.Entries = append(a.Entries, Entry{Index: i, Game: g})
	}

	sort.SliceStable(a.Entries, func(i, j int) bool {
		return a.Entries[i].Game.StartedAt().After(a.Entries[j].Game.StartedAt())
	})
	return a, nil
}

// Find returns the entry whose share id is id.
func (a Archive) Find(id string) (Entry, bool) {
	for _, e := range a.Entries {
		if e.Game.HasID() && e.Game.ID() == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Summary is the card shown for an archived game.
type Summary struct {
	Started time.Time
	Ended   time.Time
	// Date is the start day, e.g. "2.Nov.2023".
	Date string
	// Minutes is the whole minutes between start and end.
	Minutes   int
	Rounds    int
	Standings []scoring.Ranking
}

// Summarize ranks the players by their final classic score.
func Summarize(g *game.Game) Summary {
	s := Summary{
		Started: g.StartedAt(),
		Date:    g.StartedAt().Format("2.Jan.2006"),
		Rounds:  g.CompletedRounds(),
	}
	if ended, ok := g.EndedAt(); ok {
		s.Ended = ended
		if d := ended.Sub(s.Started); d > 0 {
			s.Minutes = int(d / time.Minute)
		}
	}

	var final []int
	if score := g.Score(); len(score) > 0 {
		final = score[len(score)-1]
	}
	s.Standings = scoring.Rank(g.Players(), final)
	return s
}
