package inventory

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

const exportMovementLimit = 500

type Service struct {
	repo Repository
	pool db.DBTX
	tx   db.Transactor
	log  *zap.Logger
}

func NewService(repo Repository, pool db.DBTX, tx db.Transactor, log *zap.Logger) *Service {
	return &Service{
		repo: repo,
		pool: pool,
		tx:   tx,
		log:  log,
	}
}

// AdjustStock applies a manual adjustment to the acting hospital's stock and
// returns the new unit count.
func (s *Service) AdjustStock(ctx context.Context, actor domain.Actor, bloodType domain.BloodType, delta int) (int, error) {
	hospitalID, err := actor.HospitalID()
	if err != nil {
		return 0, err
	}
	if !bloodType.Valid() {
		return 0, domain.Invalid("blood_type", "unknown blood type %q", bloodType)
	}
	if delta == 0 {
		return 0, domain.Invalid("delta", "must not be zero")
	}

	var newStock int
	err = s.tx.WithinTx(ctx, func(ctx context.Context, q db.DBTX) error {
		entry, err := Adjust(ctx, s.repo, q, hospitalID, bloodType, delta, ReasonManual, nil)
		if err != nil {
			return err
		}
		newStock = entry.UnitsInStock
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("adjust stock: %w", err)
	}

	s.log.Info("inventory adjusted",
		zap.String("hospital_id", hospitalID.String()),
		zap.String("blood_type", string(bloodType)),
		zap.Int("delta", delta),
		zap.Int("new_stock", newStock),
	)

	return newStock, nil
}

func (s *Service) List(ctx context.Context, actor domain.Actor) ([]Entry, error) {
	hospitalID, err := actor.HospitalID()
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.ListEntries(ctx, s.pool, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return entries, nil
}

// Export writes the acting hospital's stock and recent movements as an XLSX workbook.
func (s *Service) Export(ctx context.Context, actor domain.Actor, w io.Writer) error {
	hospitalID, err := actor.HospitalID()
	if err != nil {
		return err
	}

	entries, err := s.repo.ListEntries(ctx, s.pool, hospitalID)
	if err != nil {
		return fmt.Errorf("list inventory: %w", err)
	}
	movements, err := s.repo.ListMovements(ctx, s.pool, hospitalID, exportMovementLimit)
	if err != nil {
		return fmt.Errorf("list inventory movements: %w", err)
	}

	return writeWorkbook(w, entries, movements)
}
