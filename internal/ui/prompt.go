package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNotInteractive is returned when a prompt is attempted without a terminal.
var ErrNotInteractive = errors.New("input is not a terminal")

// PromptSecret asks for a secret on in without echoing it.
func PromptSecret(ctx context.Context, in *os.File, out io.Writer, prompt string) (string, error) {
	if !IsInteractive(in) {
		return "", ErrNotInteractive
	}
	fmt.Fprint(out, prompt)

	type result struct {
		secret string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		b, err := term.ReadPassword(int(in.Fd()))
		done <- result{secret: strings.TrimSpace(string(b)), err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(out)
		return "", ctx.Err()
	case res := <-done:
		fmt.Fprintln(out)
		if res.err != nil {
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return res.secret, nil
	}
}
