package repository

import (
	"context"
	"database/sql"
	"time"

	"brewsync/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// LedgerRepo owns BrewEvent storage and the UsageBaseline record.
type LedgerRepo interface {
	Append(ctx context.Context, e models.BrewEvent) error
	List(ctx context.Context) ([]models.BrewEvent, error)
	Latest(ctx context.Context) (*models.BrewEvent, error)
	SumRange(ctx context.Context, from, to time.Time) (int64, error)
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
	Baseline(ctx context.Context) (*models.UsageBaseline, error)
	SaveBaseline(ctx context.Context, b models.UsageBaseline) error
}

type Repository struct {
	Ledger LedgerRepo
	Auth   Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Ledger: NewLedgerSQLite(db),
		Auth:   NewUserRepository(db),
	}
}
