// Package dialogue provides the I/O boundaries between the agent and the
// customer: terminal, scripted (for tests and Lambda), and spoken.
package dialogue

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Terminal is the interactive text boundary: lines out, lines in.
type Terminal struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewTerminal wraps a reader/writer pair, typically os.Stdin and os.Stdout.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

func (t *Terminal) Say(ctx context.Context, text string) error {
	_, err := fmt.Fprintln(t.out, text)
	return err
}

// Listen reads one line. EOF and blank lines both come back as an empty
// string with no error; the agent owns the no-input retry policy.
func (t *Terminal) Listen(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(t.scanner.Text()), nil
}
