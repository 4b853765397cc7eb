package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"brewsync/internal/models"

	"github.com/google/uuid"
)

// ErrLedgerCorrupt marks a persisted log that cannot be read back. Callers
// recover by re-baselining from the next successful poll instead of crashing.
var ErrLedgerCorrupt = errors.New("ledger: persisted log unreadable")

type LedgerSQLite struct {
	db *sql.DB
}

func NewLedgerSQLite(db *sql.DB) *LedgerSQLite { return &LedgerSQLite{db: db} }

var _ LedgerRepo = (*LedgerSQLite)(nil)

const (
	insertEventSQL = `
		INSERT OR IGNORE INTO brew_events
			(id, recorded_at, volume_ml, profile_id, profile_title, aggregated, brew_count, total_volume_ml, epoch)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectEventsSQL = `
		SELECT id, recorded_at, volume_ml, profile_id, profile_title, aggregated, brew_count, total_volume_ml, epoch
		FROM brew_events ORDER BY recorded_at ASC, brew_count ASC
	`

	selectLatestEventSQL = `
		SELECT id, recorded_at, volume_ml, profile_id, profile_title, aggregated, brew_count, total_volume_ml, epoch
		FROM brew_events ORDER BY epoch DESC, brew_count DESC LIMIT 1
	`

	sumRangeSQL = `
		SELECT COALESCE(SUM(volume_ml), 0) FROM brew_events
		WHERE recorded_at >= ? AND recorded_at < ?
	`

	pruneSQL = `DELETE FROM brew_events WHERE recorded_at < ?`

	upsertBaselineSQL = `
		INSERT INTO usage_baseline (id, recorded_at, volume_ml, brew_count, epoch)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			recorded_at=excluded.recorded_at,
			volume_ml=excluded.volume_ml,
			brew_count=excluded.brew_count,
			epoch=excluded.epoch
	`

	selectBaselineSQL = `SELECT recorded_at, volume_ml, brew_count, epoch FROM usage_baseline WHERE id = 1`
)

// Append inserts a new event. If EventID or RecordedAt are empty, they're
// set. Re-ingesting the same brew (same counter within the same epoch) is
// an idempotent no-op enforced by the UNIQUE(epoch, brew_count) constraint;
// the same counter in a later epoch is a distinct brew and inserts normally.
func (r *LedgerSQLite) Append(ctx context.Context, e models.BrewEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.EventID,
		e.RecordedAt.UTC().Unix(),
		e.VolumeMl,
		nullable(e.ProfileID),
		nullable(e.ProfileTitle),
		e.Aggregated,
		e.BrewCount,
		e.TotalVolumeMl,
		e.Epoch,
	)
	if err != nil {
		return fmt.Errorf("append brew event: %w", err)
	}
	return nil
}

// List returns the full ordered ledger, oldest first.
func (r *LedgerSQLite) List(ctx context.Context) ([]models.BrewEvent, error) {
	rows, err := r.db.QueryContext(ctx, selectEventsSQL)
	if err != nil {
		return nil, fmt.Errorf("list brew events: %w", err)
	}
	defer rows.Close()

	out := make([]models.BrewEvent, 0, 64)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLedgerCorrupt, err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list brew events: %w", err)
	}
	return out, nil
}

// Latest returns the newest event: the highest brew count within the
// newest epoch. Nil if the ledger is empty.
func (r *LedgerSQLite) Latest(ctx context.Context) (*models.BrewEvent, error) {
	row := r.db.QueryRowContext(ctx, selectLatestEventSQL)
	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrLedgerCorrupt, err)
	}
	return &ev, nil
}

// SumRange returns the summed volume of events with from <= recorded_at < to.
func (r *LedgerSQLite) SumRange(ctx context.Context, from, to time.Time) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, sumRangeSQL, from.UTC().Unix(), to.UTC().Unix()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum brew events: %w", err)
	}
	return total, nil
}

// Prune deletes events recorded before cutoff and reports how many went.
func (r *LedgerSQLite) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, pruneSQL, cutoff.UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("prune brew events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune brew events: %w", err)
	}
	return n, nil
}

// Baseline returns the stored usage baseline, or nil when none exists yet.
func (r *LedgerSQLite) Baseline(ctx context.Context) (*models.UsageBaseline, error) {
	var (
		recordedAt int64
		b          models.UsageBaseline
	)
	err := r.db.QueryRowContext(ctx, selectBaselineSQL).Scan(&recordedAt, &b.VolumeMl, &b.BrewCount, &b.Epoch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrLedgerCorrupt, err)
	}
	b.RecordedAt = time.Unix(recordedAt, 0).UTC()
	return &b, nil
}

// SaveBaseline upserts the single baseline row (id always 1).
func (r *LedgerSQLite) SaveBaseline(ctx context.Context, b models.UsageBaseline) error {
	ts := b.RecordedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, upsertBaselineSQL, ts.UTC().Unix(), b.VolumeMl, b.BrewCount, b.Epoch)
	if err != nil {
		return fmt.Errorf("save usage baseline: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (models.BrewEvent, error) {
	var (
		ev           models.BrewEvent
		recordedAt   int64
		profileID    sql.NullString
		profileTitle sql.NullString
	)
	if err := row.Scan(
		&ev.EventID,
		&recordedAt,
		&ev.VolumeMl,
		&profileID,
		&profileTitle,
		&ev.Aggregated,
		&ev.BrewCount,
		&ev.TotalVolumeMl,
		&ev.Epoch,
	); err != nil {
		return models.BrewEvent{}, err
	}
	ev.RecordedAt = time.Unix(recordedAt, 0).UTC()
	ev.ProfileID = profileID.String
	ev.ProfileTitle = profileTitle.String
	return ev, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
