package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// unitOfWork binds every store to one transaction.
type unitOfWork struct {
	tx  pgx.Tx
	loc *time.Location
}

func (u *unitOfWork) Teams() domain.TeamStore               { return NewTeamStore(u.tx) }
func (u *unitOfWork) TeamMappings() domain.TeamMappingStore { return NewTeamMappingStore(u.tx) }
func (u *unitOfWork) Slates() domain.SlateStore             { return NewSlateStore(u.tx) }
func (u *unitOfWork) Games() domain.GameStore               { return NewGameStore(u.tx, u.loc) }
func (u *unitOfWork) Runs() domain.IngestRunStore           { return NewIngestRunStore(u.tx) }
func (u *unitOfWork) Audit() domain.AuditStore              { return NewAuditStore(u.tx) }

func (u *unitOfWork) Commit(ctx context.Context) error {
	if err := u.tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// Rollback is a no-op once the transaction has been committed.
func (u *unitOfWork) Rollback(ctx context.Context) error {
	if err := u.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("postgres: rollback: %w", err)
	}
	return nil
}

// notFound maps pgx.ErrNoRows to domain.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// nullString stores "" as SQL NULL.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
