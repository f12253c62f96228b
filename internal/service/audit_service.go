package service

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// AuditService reads the append-only audit log.
type AuditService struct {
	uow domain.UnitOfWorkFactory
}

// NewAuditService creates an AuditService.
func NewAuditService(uow domain.UnitOfWorkFactory) *AuditService {
	return &AuditService{uow: uow}
}

// List returns audit entries newest first. When runID is set only entries
// written by that ingestion run are returned, from within the page.
func (s *AuditService) List(ctx context.Context, opts domain.ListOpts, runID string) ([]domain.AuditEntry, error) {
	var entries []domain.AuditEntry
	err := view(ctx, s.uow, func(u domain.UnitOfWork) error {
		var err error
		entries, err = u.Audit().List(ctx, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service: list audit: %w", err)
	}
	if runID == "" {
		return entries, nil
	}

	out := entries[:0]
	for _, e := range entries {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	return out, nil
}
