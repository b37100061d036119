package producer

import (
	"context"
	"errors"

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
)

// ErrNoLocation is returned by a locator that has no position to offer.
var ErrNoLocation = errors.New("location unavailable")

// Locator reads the reporter position.
type Locator interface {
	Locate(ctx context.Context) (*alert.Location, error)
}

// StaticLocator reports a fixed, configured position.
type StaticLocator struct {
	// Location is the configured position, nil when unknown.
	Location *alert.Location
}

// Locate returns a copy of the configured position.
func (l StaticLocator) Locate(context.Context) (*alert.Location, error) {
	if l.Location == nil {
		return nil, ErrNoLocation
	}

	return l.Location.Clone(), nil
}
