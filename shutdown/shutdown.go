// Package shutdown turns termination signals into context cancellation.
package shutdown

import (
	"context"
	"os"
	"os/signal"
)

// Context is cancelled on the first termination signal. Call stop to
// release the signal handler.
func Context(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(parent, signals()...)
}

// Notify delivers termination signals to ch.
func Notify(ch chan os.Signal) {
	signal.Notify(ch, signals()...)
}
