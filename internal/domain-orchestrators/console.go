// Package orchestrators coordinates the console use cases across the remote
// gateway, the local stores and the editing sessions.
package orchestrators

import (
	"context"
	"time"

	"github.com/ochairo/slime/internal/domain/entities"
	"github.com/ochairo/slime/internal/domain/errs"
	"github.com/ochairo/slime/internal/domain/interfaces"
	"github.com/ochairo/slime/internal/domain/interfaces/gateways"
	"github.com/ochairo/slime/internal/domain/interfaces/repositories"
	"github.com/ochairo/slime/internal/domain/interfaces/services"
)

// Deps holds the collaborators shared by the orchestrators
type Deps struct {
	Gateway   gateways.RemoteGateway
	Notifier  services.Notifier
	Confirmer services.Confirmer
	Validator services.Validator
	Logger    interfaces.Logger

	// Snapshots is optional. When set, list fetches are cached for offline reads.
	Snapshots repositories.SnapshotRepository

	// Signer is optional. When set, exports carry a detached signature.
	Signer services.Signer

	SuccessDuration     time.Duration
	AssociationPageSize int
}

type base struct {
	Deps
}

func newBase(deps Deps) base {
	if deps.Logger == nil {
		deps.Logger = &interfaces.NoOpLogger{}
	}
	if deps.Confirmer == nil {
		deps.Confirmer = services.AlwaysConfirm
	}
	if deps.SuccessDuration <= 0 {
		deps.SuccessDuration = 3 * time.Second
	}
	if deps.AssociationPageSize <= 0 {
		deps.AssociationPageSize = 12
	}
	return base{Deps: deps}
}

// remoteFailure reports a failed remote operation and returns err unchanged.
// The notification is what the user sees; the log line is for debugging.
func (b *base) remoteFailure(op string, err error, fields ...interfaces.Field) error {
	fields = append(fields, interfaces.F("op", op), interfaces.F("kind", errs.KindOf(err)), interfaces.F("error", err))
	b.Logger.Debug("remote operation failed", fields...)
	b.notify(errs.Message(err), entities.SeverityError, 0)
	return err
}

func (b *base) succeeded(op, message string, fields ...interfaces.Field) {
	fields = append(fields, interfaces.F("op", op))
	b.Logger.Debug(message, fields...)
	b.notify(message, entities.SeveritySuccess, b.SuccessDuration)
}

func (b *base) notify(message string, severity entities.Severity, d time.Duration) {
	if b.Notifier != nil {
		b.Notifier.Notify(message, severity, d)
	}
}

// validate runs local validation. Failures are returned inline and never
// reach the notifier.
func (b *base) validate(op string, v any) error {
	if b.Validator == nil {
		return nil
	}
	if err := b.Validator.Validate(v); err != nil {
		b.Logger.Debug("validation failed", interfaces.F("op", op), interfaces.F("error", err))
		return err
	}
	return nil
}

// confirm asks before a destructive operation. Declining is not an error.
func (b *base) confirm(ctx context.Context, prompt string) (bool, error) {
	ok, err := b.Confirmer.Confirm(ctx, prompt)
	if err != nil {
		return false, err
	}
	if !ok {
		b.Logger.Debug("operation declined", interfaces.F("prompt", prompt))
	}
	return ok, nil
}
