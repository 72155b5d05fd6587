package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const (
	titlePlaceholder   = "{title}"
	messagePlaceholder = "{message}"
)

// ErrNoCommand is returned by a Command with an empty argv.
var ErrNoCommand = errors.New("no notification command available")

// Command runs a user-configured program to show a notification. Argv
// elements equal to "{title}" or "{message}", or containing them, have the
// values substituted.
type Command struct {
	Argv []string
}

func (c Command) Notify(ctx context.Context, title, message string) error {
	if len(c.Argv) == 0 {
		return ErrNoCommand
	}
	args := expandArgs(c.Argv[1:], title, message)
	cmd := exec.CommandContext(ctx, c.Argv[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", c.Argv[0], err, msg)
		}
		return fmt.Errorf("%s: %w", c.Argv[0], err)
	}
	return nil
}

func expandArgs(argv []string, title, message string) []string {
	r := strings.NewReplacer(titlePlaceholder, title, messagePlaceholder, message)
	out := make([]string, len(argv))
	for i, a := range argv {
		out[i] = r.Replace(a)
	}
	return out
}
