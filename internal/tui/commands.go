package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/wizardscore/internal/game"
)

// ErrReadOnly is returned for changes to a game that is only being shown.
var ErrReadOnly = errors.New("this game is read-only")

// Outcome is what a command line did to the game.
type Outcome struct {
	Message string
	// Rejected is set when input was refused by the rules; Message says why.
	Rejected bool
	// Finished carries the archived copy after a finish.
	Finished *game.Game
	// Discarded is set when ending threw the game away.
	Discarded bool
	Quit      bool
}

// Help lists the commands understood by Execute.
const Help = `numbers           bets or tricks for every player, in seating order
continue          keep playing after the last round
end               end the game now
finish            archive the finished game
color <c>|none    tag this round blue, red, green or yellow
dealer <n>        make player n the dealer
rename <n> <name> rename player n
edit <r> <n> bet|tricks <v>  correct a past round
view chart|top|celebration|analytics
rule pm1|expansion|alt on|off
quit`

// Execute runs one line of input against ctrl. Player numbers are 1-based.
func Execute(ctrl *game.Controller, line string) (Outcome, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Outcome{}, nil
	}
	if _, err := strconv.Atoi(fields[0]); err == nil {
		return confirm(ctrl, fields)
	}

	cmd, args := strings.ToLower(strings.TrimPrefix(fields[0], ":")), fields[1:]
	if cmd == "quit" || cmd == "q" || cmd == "exit" {
		return Outcome{Quit: true}, nil
	}
	if cmd == "help" || cmd == "?" {
		return Outcome{Message: Help}, nil
	}
	if ctrl.ReadOnly() && cmd != "view" {
		return Outcome{}, ErrReadOnly
	}

	switch cmd {
	case "continue":
		if err := ctrl.ContinuePlaying(); err != nil {
			return Outcome{}, err
		}
		return Outcome{Message: "Playing on"}, nil

	case "end":
		out, err := ctrl.EndGame()
		if err != nil {
			return Outcome{}, err
		}
		if out == game.EndDiscarded {
			return Outcome{Message: "Game discarded", Discarded: true, Quit: true}, nil
		}
		return Outcome{Message: "Game ended"}, nil

	case "finish":
		archived, err := ctrl.Finish()
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Message: "Game archived", Finished: archived}, nil

	case "color", "colour":
		if len(args) != 1 {
			return Outcome{}, fmt.Errorf("usage: color blue|red|green|yellow|none")
		}
		round := ctrl.Game().Round()
		if strings.EqualFold(args[0], "none") {
			return Outcome{Message: "Colour removed"}, ctrl.RemoveRoundColor(round)
		}
		if err := ctrl.SetRoundColor(round, game.RoundColor(strings.ToLower(args[0]))); err != nil {
			return Outcome{}, err
		}
		return Outcome{Message: fmt.Sprintf("Round %d is %s", round, strings.ToLower(args[0]))}, nil

	case "dealer":
		player, err := playerArg(args, 0)
		if err != nil {
			return Outcome{}, err
		}
		if err := ctrl.SetDealer(player); err != nil {
			return Outcome{}, err
		}
		return Outcome{Message: "Dealer changed"}, nil

	case "rename":
		player, err := playerArg(args, 0)
		if err != nil {
			return Outcome{}, err
		}
		name := strings.Join(args[1:], " ")
		if err := ctrl.RenamePlayer(player, name); err != nil {
			return Outcome{}, err
		}
		return Outcome{Message: "Renamed to " + name}, nil

	case "edit":
		if len(args) != 4 {
			return Outcome{}, fmt.Errorf("usage: edit <round> <player> bet|tricks <value>")
		}
		round, err := strconv.Atoi(args[0])
		if err != nil {
			return Outcome{}, fmt.Errorf("round: %w", err)
		}
		player, err := playerArg(args, 1)
		if err != nil {
			return Outcome{}, err
		}
		field, err := game.ParseField(strings.ToLower(args[2]))
		if err != nil {
			return Outcome{}, err
		}
		value, err := strconv.Atoi(args[3])
		if err != nil {
			return Outcome{}, fmt.Errorf("value: %w", err)
		}
		if err := ctrl.EditHistoricalCell(round, player, field, value); err != nil {
			return Outcome{}, err
		}
		return Outcome{Message: fmt.Sprintf("Round %d updated", round)}, nil

	case "view":
		if len(args) != 1 {
			return Outcome{}, fmt.Errorf("usage: view chart|top|celebration|analytics")
		}
		v, err := ParseScoreView(args[0])
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{}, ctrl.SetScoreView(v)

	case "rule":
		if len(args) != 2 {
			return Outcome{}, fmt.Errorf("usage: rule pm1|expansion|alt on|off")
		}
		on, err := parseSwitch(args[1])
		if err != nil {
			return Outcome{}, err
		}
		switch strings.ToLower(args[0]) {
		case "pm1", "plusminusone":
			err = ctrl.SetPlusMinusOne(on)
		case "expansion":
			err = ctrl.SetExpansion(on)
		case "alt", "alternate":
			err = ctrl.SetAlternateScoring(on)
		default:
			return Outcome{}, fmt.Errorf("unknown rule %q", args[0])
		}
		return Outcome{Message: "Rules updated"}, err
	}
	return Outcome{}, fmt.Errorf("unknown command %q, try help", cmd)
}

func confirm(ctrl *game.Controller, fields []string) (Outcome, error) {
	if ctrl.ReadOnly() {
		return Outcome{}, ErrReadOnly
	}
	values, err := ParseValues(fields)
	if err != nil {
		return Outcome{}, err
	}

	var v game.Validation
	switch ctrl.Game().Step() {
	case game.StepPlaceBets:
		v, err = ctrl.ConfirmBets(values)
	case game.StepEnterTricks:
		v, err = ctrl.ConfirmTricks(values)
	default:
		return Outcome{}, fmt.Errorf("no input expected, try continue, end or finish")
	}
	if err != nil {
		return Outcome{}, err
	}
	if !v.Valid {
		return Outcome{Message: v.Message, Rejected: true}, nil
	}
	return Outcome{}, nil
}

// ParseValues reads whitespace separated integers.
func ParseValues(fields []string) ([]int, error) {
	values := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", f)
		}
		values[i] = v
	}
	return values, nil
}

// ParseScoreView maps a view name to a ScoreView.
func ParseScoreView(s string) (game.ScoreView, error) {
	switch strings.ToLower(s) {
	case "chart", "rounds":
		return game.ScoreViewChart, nil
	case "top", "players":
		return game.ScoreViewTopPlayers, nil
	case "celebration", "podium":
		return game.ScoreViewCelebration, nil
	case "analytics", "stats":
		return game.ScoreViewAnalytics, nil
	}
	return 0, fmt.Errorf("unknown view %q", s)
}

func playerArg(args []string, i int) (int, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("missing player number")
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("player %q is not a number", args[i])
	}
	return n - 1, nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}
