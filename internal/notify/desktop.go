package notify

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"
)

// desktopNotify is swapped out in tests.
var desktopNotify = func(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Desktop shows a native desktop notification: D-Bus on Linux and the BSDs,
// Notification Center on macOS, toast notifications on Windows.
type Desktop struct{}

func (Desktop) Notify(ctx context.Context, title, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := desktopNotify(title, message); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}
