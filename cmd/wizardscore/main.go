package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lox/wizardscore/internal/config"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Globals

	Version kong.VersionFlag `short:"v" help:"Show version"`

	New      NewCmd      `cmd:"" help:"Start a new game"`
	Status   StatusCmd   `cmd:"" help:"Show the game in progress"`
	Players  PlayersCmd  `cmd:"" help:"List known player names"`
	Play     PlayCmd     `cmd:"" help:"Keep score interactively"`
	Bets     BetsCmd     `cmd:"" help:"Enter this round's bets"`
	Tricks   TricksCmd   `cmd:"" help:"Enter this round's tricks"`
	Continue ContinueCmd `cmd:"" help:"Keep playing after the last round"`
	End      EndCmd      `cmd:"" help:"End the game early"`
	Finish   FinishCmd   `cmd:"" help:"Archive the finished game and share it"`
	Edit     EditCmd     `cmd:"" help:"Correct a bet or trick of a past round"`
	Rename   RenameCmd   `cmd:"" help:"Rename a player"`
	Dealer   DealerCmd   `cmd:"" help:"Move the dealer"`
	Color    ColorCmd    `cmd:"" help:"Tag the current round with a trump colour"`
	Rule     RuleCmd     `cmd:"" help:"Toggle a house rule mid-game"`
	Demo     DemoCmd     `cmd:"" help:"Show a sample game"`
	History  HistoryCmd  `cmd:"" help:"List finished games"`
	Stats    StatsCmd    `cmd:"" help:"Player statistics across finished games"`
	Export   ExportCmd   `cmd:"" help:"Write finished games as JSON or YAML"`
	Sync     SyncCmd     `cmd:"" help:"Upload finished games that were never shared"`
	Bundle   BundleCmd   `cmd:"" help:"Share every shared game as one bundle id"`
	Import   ImportCmd   `cmd:"" help:"Import a shared game or bundle"`
	Delete   DeleteCmd   `cmd:"" help:"Delete a finished game locally and remotely"`
	Serve    ServeCmd    `cmd:"" help:"Run the share server"`
	Watch    WatchCmd    `cmd:"" help:"Follow a live shared game"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("wizardscore"),
		kong.Description("Scorekeeper for the card game Wizard"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version":     version,
			"config_file": config.DefaultFile,
		},
		kong.BindTo(os.Stdout, (*io.Writer)(nil)),
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
