package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Controller decides after every completed round whether the loop goes on.
type Controller interface {
	Continue(ctx context.Context, round int) (bool, error)
}

// FixedRounds stops after N rounds.
type FixedRounds struct {
	N int
}

func (f FixedRounds) Continue(_ context.Context, round int) (bool, error) {
	return round < f.N, nil
}

// Interactive reads one line per round from the operator. An empty line
// continues, "z" stops, EOF stops, anything else is rejected and re-prompted.
type Interactive struct {
	in      io.Reader
	out     io.Writer
	once    sync.Once
	lines   chan string
	readErr error
}

func NewInteractive(in io.Reader, out io.Writer) *Interactive {
	return &Interactive{in: in, out: out}
}

// start launches the single reader goroutine so a blocked read never keeps
// Continue from observing cancellation.
func (c *Interactive) start() {
	c.lines = make(chan string)
	go func() {
		defer close(c.lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			c.lines <- scanner.Text()
		}
		c.readErr = scanner.Err()
	}()
}

func (c *Interactive) Continue(ctx context.Context, _ int) (bool, error) {
	c.once.Do(c.start)

	for {
		fmt.Fprint(c.out, "Press Enter to continue or 'z' to stop: ")

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case line, ok := <-c.lines:
			if !ok {
				if c.readErr != nil {
					return false, fmt.Errorf("failed to read control input: %w", c.readErr)
				}
				return false, nil
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "":
				return true, nil
			case "z":
				return false, nil
			default:
				fmt.Fprintln(c.out, "Invalid input. Press Enter or 'z'")
			}
		}
	}
}
