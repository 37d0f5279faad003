// Package services defines interfaces for domain service contracts.
package services

import (
	"context"
	"io"
	"time"

	"github.com/ochairo/slime/internal/domain/entities"
)

// Notifier receives operation outcomes for transient display
type Notifier interface {
	// Notify queues a message with the given severity and duration. A zero
	// duration selects the notifier's default.
	Notify(message string, severity entities.Severity, duration time.Duration) entities.Notification
}

// Confirmer approves destructive operations before they reach the backend
type Confirmer interface {
	// Confirm returns true when the user approves the prompt
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Validator checks submissions before any remote call
type Validator interface {
	// Validate returns a validation error describing the first failing rule
	Validate(v any) error
}

// Signer produces detached signatures over exported documents
type Signer interface {
	// SignDetached writes a detached signature of message to w
	SignDetached(w io.Writer, message io.Reader) error

	// Fingerprint identifies the signing key
	Fingerprint() string
}

// ConfirmerFunc adapts a function to Confirmer
type ConfirmerFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f
func (f ConfirmerFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm approves every prompt
var AlwaysConfirm Confirmer = ConfirmerFunc(func(context.Context, string) (bool, error) { return true, nil })
