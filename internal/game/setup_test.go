package game

import (
	"testing"
	"time"

	"github.com/lox/wizardscore/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePlayerName(t *testing.T) {
	for _, name := range []string{"Al", "Mary-Jane", "Player 2", "abcdefghijklmno"} {
		assert.NoError(t, ValidatePlayerName(name), name)
	}
	for _, name := range []string{"", "A", "abcdefghijklmnop", "Zoë", "Bob!", "a_b"} {
		assert.ErrorIs(t, ValidatePlayerName(name), ErrInvalidName, name)
	}
}

func TestDefaultRounds(t *testing.T) {
	tests := map[int]int{2: 10, 3: 20, 4: 15, 5: 12, 6: 10, 9: 10}
	for players, want := range tests {
		assert.Equal(t, want, DefaultRounds(players), "%d players", players)
	}
}

func TestSetupValidate(t *testing.T) {
	tests := []struct {
		name  string
		setup Setup
		err   error
	}{
		{"two players", Setup{Players: []string{"Ann", "Bob"}}, ErrTooFewPlayers},
		{"two players with crowd chaos", Setup{Players: []string{"Ann", "Bob"}, Rules: Rules{CrowdChaos: true}}, nil},
		{"seven players", Setup{Players: []string{"Aa", "Bb", "Cc", "Dd", "Ee", "Ff", "Gg"}}, ErrTooManyPlayers},
		{"seven players with crowd chaos", Setup{Players: []string{"Aa", "Bb", "Cc", "Dd", "Ee", "Ff", "Gg"}, Rules: Rules{CrowdChaos: true}}, nil},
		{"duplicate ignoring case", Setup{Players: []string{"Ann", "ann", "Bob"}}, ErrDuplicateName},
		{"bad name", Setup{Players: []string{"Ann", "B", "Cid"}}, ErrInvalidName},
		{"dealer out of range", Setup{Players: []string{"Ann", "Bob", "Cid"}, Dealer: 3}, ErrPlayerOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.setup.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestNewGame(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	g, err := NewGame(Setup{
		Players: []string{"Ann", "Bob", "Cid", "Dee", "Eve"},
		Dealer:  4,
		Rules:   Rules{PlusMinusOne: true},
	}, now, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, g.Round())
	assert.Equal(t, 12, g.MaxRounds())
	assert.Equal(t, 4, g.Dealer())
	assert.Equal(t, StepPlaceBets, g.Step())
	assert.Equal(t, DisplayScoreOverview, g.Display())
	assert.Equal(t, ScoreViewTopPlayers, g.ScoreView())
	assert.Equal(t, now, g.StartedAt())
	assert.Empty(t, g.Bets())
}

func TestNewGameCustomRounds(t *testing.T) {
	g, err := NewGame(Setup{
		Players: []string{"Ann", "Bob", "Cid"},
		Rules:   Rules{CustomRounds: true},
		Rounds:  3,
	}, time.Now(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, g.MaxRounds())

	_, err = NewGame(Setup{Players: []string{"Ann", "Bob", "Cid"}, Rules: Rules{CustomRounds: true}}, time.Now(), nil)
	assert.Error(t, err)
}

func TestNewGameRandomDealerIsSeeded(t *testing.T) {
	setup := Setup{Players: []string{"Ann", "Bob", "Cid", "Dee"}, Rules: Rules{RandomDealer: true}}

	a, err := NewGame(setup, time.Now(), randutil.New(7))
	require.NoError(t, err)
	b, err := NewGame(setup, time.Now(), randutil.New(7))
	require.NoError(t, err)
	assert.Equal(t, a.Dealer(), b.Dealer())
	assert.GreaterOrEqual(t, a.Dealer(), 0)
	assert.Less(t, a.Dealer(), 4)

	_, err = NewGame(setup, time.Now(), nil)
	assert.Error(t, err, "random dealer needs a source")
}

func TestRulesNames(t *testing.T) {
	assert.Empty(t, Rules{}.Names())
	assert.Equal(t, []string{"plus_minus_one", "crowd_chaos", "alternate_scoring"},
		Rules{PlusMinusOne: true, CrowdChaos: true, AlternateScoring: true}.Names())
}
