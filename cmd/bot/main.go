// Command bot connects to a game server over TCP and plays a seeded random
// strategy. It is handy for load testing a server and for filling the second
// slot of a pickup lobby during development.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"time"
)

func main() {
	addr := flag.String("addr", "localhost:6147", "Game server TCP address")
	name := flag.String("name", "bot", "Team name to log in with")
	key := flag.String("key", "", "Team key for reserved slots")
	game := flag.String("game", "", "Game ID to join (empty joins the pickup lobby)")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
	watch := flag.Bool("watch", false, "Spectate the game instead of playing (empty -game picks the newest)")
	flag.Parse()

	if err := run(*addr, *name, *key, *game, *seed, *watch); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(addr, name, key, game string, seed uint64, watch bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()

	bot := NewBot(name, seed)
	bot.Key = key
	bot.GameID = game
	play := bot.Play
	if watch {
		play = bot.Watch
	}
	result, err := play(conn)
	if err != nil {
		return err
	}
	if watch {
		fmt.Printf("Game %s %s after %d turns, %d entities on the board\n",
			result.GameID, result.Status, result.Turns, len(bot.state.Entities))
		if result.Winner != nil {
			fmt.Printf("Winner: team %d\n", *result.Winner)
		}
		return nil
	}

	fmt.Printf("Game %s %s after %d turns (team %d, missed %d)\n",
		result.GameID, result.Status, result.Turns, result.Team, result.Missed)
	switch {
	case result.Winner == nil:
		fmt.Println("No winner")
	case *result.Winner == result.Team:
		fmt.Println("🏆 Won")
	default:
		fmt.Printf("Lost to team %d\n", *result.Winner)
	}
	return nil
}
