// Package service exposes read and admin operations over the persisted
// slates, games, runs and team mappings for the HTTP API.
package service

import (
	"context"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// view runs fn inside a unit of work that is always rolled back.
func view(ctx context.Context, uow domain.UnitOfWorkFactory, fn func(domain.UnitOfWork) error) error {
	u, err := uow.Begin(ctx)
	if err != nil {
		return &domain.PersistenceError{Op: "begin", Err: err}
	}
	defer u.Rollback(ctx)
	return fn(u)
}

// update runs fn inside a unit of work and commits when fn succeeds.
func update(ctx context.Context, uow domain.UnitOfWorkFactory, fn func(domain.UnitOfWork) error) error {
	u, err := uow.Begin(ctx)
	if err != nil {
		return &domain.PersistenceError{Op: "begin", Err: err}
	}
	defer u.Rollback(ctx)
	if err := fn(u); err != nil {
		return err
	}
	if err := u.Commit(ctx); err != nil {
		return &domain.PersistenceError{Op: "commit", Err: err}
	}
	return nil
}
