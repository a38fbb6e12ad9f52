// Package credential persists the single bearer token an installation holds.
package credential

import (
	"context"
	"errors"
	"fmt"
)

const (
	// DefaultService and DefaultAccount key the slot when nothing else is configured.
	DefaultService = "com.heartbridge.app"
	DefaultAccount = "authToken"
)

// ErrPersistence wraps every failure of the underlying secure store.
var ErrPersistence = errors.New("credential store failure")

var errEmptyToken = fmt.Errorf("%w: empty token", ErrPersistence)

// Store holds zero or one bearer token.
//
// Save replaces any existing token so that exactly one exists afterwards.
// An empty token is refused with ErrPersistence.
// Get never fails: absence (including an unreadable slot) reports false.
// Clear succeeds when nothing is stored.
type Store interface {
	Save(ctx context.Context, token string) error
	Get(ctx context.Context) (string, bool)
	Clear(ctx context.Context) error
}
