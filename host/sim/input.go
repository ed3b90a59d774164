package sim

import (
	"errors"
	"fmt"

	"github.com/google/shlex"

	"keylock/core"
)

var ErrNotDigit = errors.New("press batch may only contain digits 0-9")

// ParsePresses turns one input line into a batch of simultaneous presses.
// Digits may be separated by whitespace; '#' starts a comment.
// A blank line yields an empty batch.
func ParsePresses(line string) ([]core.Digit, error) {
	tokens, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("split %q: %w", line, err)
	}

	var batch []core.Digit
	for _, tok := range tokens {
		for i := 0; i < len(tok); i++ {
			d := core.Digit(tok[i])
			if !d.Valid() {
				return nil, fmt.Errorf("%w: %q", ErrNotDigit, tok)
			}
			batch = append(batch, d)
		}
	}
	return batch, nil
}
