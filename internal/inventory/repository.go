package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

var (
	ErrNoSuchInventoryType = errors.New("no inventory entry for blood type")
	ErrInsufficientStock   = errors.New("insufficient stock")
)

// Repository is the row-level persistence of the ledger. Every method runs on
// the handle it is given so callers control the transaction.
type Repository interface {
	// EnsureEntry creates an empty row for the pair if none exists.
	EnsureEntry(ctx context.Context, q db.DBTX, hospitalID uuid.UUID, bloodType domain.BloodType) error
	// LockEntry takes the row lock, returning ErrNoSuchInventoryType when absent.
	LockEntry(ctx context.Context, q db.DBTX, hospitalID uuid.UUID, bloodType domain.BloodType) (*Entry, error)
	SetUnits(ctx context.Context, q db.DBTX, id uuid.UUID, units int) (*Entry, error)
	InsertMovement(ctx context.Context, q db.DBTX, m Movement) error

	ListEntries(ctx context.Context, q db.DBTX, hospitalID uuid.UUID) ([]Entry, error)
	ListMovements(ctx context.Context, q db.DBTX, hospitalID uuid.UUID, limit int) ([]Movement, error)
}
