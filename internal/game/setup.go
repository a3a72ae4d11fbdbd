package game

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
	"regexp"
	"slices"
	"strings"
	"time"
)

const (
	MinPlayers = 3
	MaxPlayers = 6
	// MinPlayersCrowdChaos is the lower bound once crowd chaos lifts the limits.
	MinPlayersCrowdChaos = 2
	// DealerRandom asks NewGame to draw the first dealer.
	DealerRandom = -1
)

var (
	ErrInvalidName    = errors.New("player names are 2-15 letters, digits, spaces or dashes")
	ErrDuplicateName  = errors.New("player names must be unique")
	ErrTooFewPlayers  = errors.New("not enough players")
	ErrTooManyPlayers = errors.New("too many players")
)

var playerName = regexp.MustCompile(`^[a-zA-Z0-9\- ]{2,15}$`)

// ValidatePlayerName checks a display name against the naming rule.
func ValidatePlayerName(name string) error {
	if !playerName.MatchString(name) {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}

// DefaultRounds is the number of rounds played when no custom count is set.
func DefaultRounds(players int) int {
	switch players {
	case 3:
		return 20
	case 4:
		return 15
	case 5:
		return 12
	case 6:
		return 10
	default:
		return 10
	}
}

// Setup describes a new game.
type Setup struct {
	Players []string
	// Dealer is a seat index or DealerRandom. Rules.RandomDealer forces a draw.
	Dealer int
	Rules  Rules
	// Rounds is only honoured with Rules.CustomRounds.
	Rounds int
}

// Validate checks the setup without creating a game.
func (s Setup) Validate() error {
	minPlayers := MinPlayers
	if s.Rules.CrowdChaos {
		minPlayers = MinPlayersCrowdChaos
	}
	switch n := len(s.Players); {
	case n < minPlayers:
		return fmt.Errorf("%w: need at least %d, have %d", ErrTooFewPlayers, minPlayers, n)
	case n > MaxPlayers && !s.Rules.CrowdChaos:
		return fmt.Errorf("%w: at most %d without crowd chaos, have %d", ErrTooManyPlayers, MaxPlayers, n)
	}

	seen := make(map[string]bool, len(s.Players))
	for _, name := range s.Players {
		if err := ValidatePlayerName(name); err != nil {
			return err
		}
		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Errorf("%q: %w", name, ErrDuplicateName)
		}
		seen[key] = true
	}

	if !s.Rules.RandomDealer && s.Dealer != DealerRandom && (s.Dealer < 0 || s.Dealer >= len(s.Players)) {
		return fmt.Errorf("dealer %d: %w", s.Dealer, ErrPlayerOutOfRange)
	}
	if s.Rules.CustomRounds && s.Rounds < 1 {
		return fmt.Errorf("custom rounds must be at least 1, got %d", s.Rounds)
	}
	return nil
}

// NewGame creates a game at round one waiting for bets. rng draws the dealer
// when asked to.
func NewGame(s Setup, now time.Time, rng *rand.Rand) (*Game, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	dealer := s.Dealer
	if s.Rules.RandomDealer || dealer == DealerRandom {
		if rng == nil {
			return nil, errors.New("random dealer requires a random source")
		}
		dealer = rng.IntN(len(s.Players))
	}

	rounds := DefaultRounds(len(s.Players))
	if s.Rules.CustomRounds {
		rounds = s.Rounds
	}

	return &Game{
		dealer:         dealer,
		rules:          s.Rules,
		round:          1,
		maxRounds:      rounds,
		players:        slices.Clone(s.Players),
		bets:           [][]int{},
		tricks:         [][]int{},
		score:          [][]int{},
		scoreChange:    [][]int{},
		altScore:       [][]int{},
		altScoreChange: [][]int{},
		colors:         map[int]RoundColor{},
		step:           StepPlaceBets,
		display:        DisplayScoreOverview,
		scoreView:      ScoreViewTopPlayers,
		startedAt:      now,
	}, nil
}
