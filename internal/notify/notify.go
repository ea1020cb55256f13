// Package notify delivers user-facing notifications. Delivery is
// fire-and-forget: the tracker never fails an operation because a
// notification could not be sent.
package notify

import "context"

// Sink is the notification collaborator.
type Sink interface {
	Notify(ctx context.Context, title, body string) error
}

// Nop discards notifications. Used when no broker is configured and in
// tests.
type Nop struct{}

func (Nop) Notify(context.Context, string, string) error { return nil }
