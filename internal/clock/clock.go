// Package clock resolves update targets inside a Ravello application
// and applies an RTC setting to them through the remote API.
package clock

import (
	"context"
	"fmt"

	"github.com/ravello-tools/ravello-rtc/internal/ravello"
)

// API is the slice of the Ravello client this package consumes.
type API interface {
	GetApplication(ctx context.Context, nameOrID string) (*ravello.Application, error)
	UpdateApplication(ctx context.Context, app *ravello.Application) (*ravello.Application, error)
	PublishUpdates(ctx context.Context, appID int64) error
}

// NotFoundError reports an identifier that matched no remote object.
type NotFoundError struct {
	Kind       string // "application" or "VM"
	Identifier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Identifier)
}
