// Package game implements the Wizard scorekeeping core.
//
// The main type is Game, the persisted state of one game: players, the
// bet/trick tables, both score systems, round colours and the UI step. A
// Controller drives it through its phases and persists after every change.
//
// # Basic Usage
//
// Start a game and play a round:
//
//	g, err := game.NewGame(game.Setup{Players: []string{"Ann", "Bob", "Cid"}}, time.Now(), rng)
//	c := game.NewController(g, store)
//	v, err := c.ConfirmBets([]int{1, 0, 0})
//	if !v.Valid {
//	    fmt.Println(v.Message)
//	}
//	v, err = c.ConfirmTricks([]int{0, 1, 0})
//
// Rejected input is reported through Validation, never as an error. Errors
// are reserved for persistence failures, after which the in-memory state is
// rolled back.
//
// # Deterministic Testing
//
// Random dealer draws take a *rand.Rand and timestamps come from a
// quartz.Clock:
//
//	c := game.NewController(g, store, game.WithClock(quartz.NewMock(t)))
//
// # Persistence
//
// Decode and Encode speak the stored JSON document. Decode checks every key
// and the cross-field structure and reports the first problem as a
// *ValidationError.
package game
