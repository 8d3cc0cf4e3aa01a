// Command dicepool-cli rolls and scores dice pools at the terminal.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/use-agent/dicepool/dice"
)

var seed = flag.Uint64("seed", 0, "Seed for reproducible rolls (0 picks a random seed)")

func main() {
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	src := dice.NewSource()
	if *seed != 0 {
		src = dice.NewSeededSource(*seed)
	}

	if err := run(os.Stdin, os.Stdout, src); err != nil {
		slog.Error("console stopped", "error", err)
		os.Exit(1)
	}
}

// session drives one interactive conversation over in/out.
type session struct {
	in  *bufio.Scanner
	out io.Writer
	src dice.Source
}

// run loops over roll rounds until the user declines another roll or the
// input ends.
func run(in io.Reader, out io.Writer, src dice.Source) error {
	s := &session{in: bufio.NewScanner(in), out: out, src: src}
	for {
		n, ok := s.askCount()
		if !ok {
			return s.in.Err()
		}
		s.round(n)

		again, ok := s.ask("Roll again? (y/n): ")
		if !ok || !yes(again) {
			return s.in.Err()
		}
	}
}

// askCount prompts until a valid die count is entered.
func (s *session) askCount() (int, bool) {
	for {
		line, ok := s.ask("How many ten-sided dice do you want to roll? ")
		if !ok {
			return 0, false
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > dice.MaxDice {
			fmt.Fprintf(s.out, "Please enter a number between 1 and %d.\n", dice.MaxDice)
			continue
		}
		return n, true
	}
}

func (s *session) round(n int) {
	pool, err := dice.Roll(n, s.src)
	if err != nil {
		fmt.Fprintf(s.out, "Cannot roll: %v\n", err)
		return
	}
	dice.SortDescending(pool)
	fmt.Fprintf(s.out, "Results (sorted): %v\n", pool)

	if slices.Contains(pool, 1) {
		answer, ok := s.ask("Reroll a die showing 1? (y/n): ")
		if ok && yes(answer) {
			if updated, v, err := dice.Reroll(pool, s.src); err == nil {
				fmt.Fprintf(s.out, "You rerolled a 1 and got: %d\n", v)
				fmt.Fprintf(s.out, "New results (sorted): %v\n", updated)
				pool = updated
			}
		}
	}

	res := dice.Maximize(pool)
	fmt.Fprintf(s.out, "Raises: %d\n", res.Raises)
	fmt.Fprintf(s.out, "Combinations (10 or more): %v\n", res.Combinations)
}

// ask prints prompt and reads one trimmed line.
func (s *session) ask(prompt string) (string, bool) {
	fmt.Fprint(s.out, prompt)
	if !s.in.Scan() {
		fmt.Fprintln(s.out)
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func yes(answer string) bool {
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}
