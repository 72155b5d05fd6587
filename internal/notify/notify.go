// Package notify delivers reminder notifications.
//
// Delivery is best effort. Callers treat a reminder as sent whether or not
// the Notifier reports an error.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// Notifier shows a notification to the user.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, title, message string) error

func (f Func) Notify(ctx context.Context, title, message string) error {
	return f(ctx, title, message)
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(context.Context, string, string) error { return nil }

// Log writes notifications to a logger, or the standard logger when Logger is nil.
type Log struct {
	Logger *log.Logger
}

func (l Log) Notify(_ context.Context, title, message string) error {
	if l.Logger != nil {
		l.Logger.Printf("%s: %s", title, message)
		return nil
	}
	log.Printf("%s: %s", title, message)
	return nil
}

// Chain tries each notifier in order and stops at the first success.
type Chain []Notifier

func (c Chain) Notify(ctx context.Context, title, message string) error {
	if len(c) == 0 {
		return errors.New("no notifier configured")
	}
	var errs []error
	for _, n := range c {
		if n == nil {
			continue
		}
		err := n.Notify(ctx, title, message)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return fmt.Errorf("all notifiers failed: %w", errors.Join(errs...))
}

// Notification is one delivered notification.
type Notification struct {
	Title   string
	Message string
}

// Recorder keeps every notification it receives. Err, when set, is returned
// from Notify after recording.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
	Err  error
}

func (r *Recorder) Notify(_ context.Context, title, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Notification{Title: title, Message: message})
	return r.Err
}

// Sent returns a copy of the recorded notifications.
func (r *Recorder) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.sent))
	copy(out, r.sent)
	return out
}
