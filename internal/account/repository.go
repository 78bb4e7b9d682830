package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrAccountNotFound = errors.New("account not found")

// Directory resolves account identities for the booking core. Registration and
// credential handling live elsewhere; the core only reads.
type Directory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
}
