package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// Overrider pins a source name to a team.
type Overrider interface {
	Override(ctx context.Context, lookup domain.TeamLookup, source, teamName string) (domain.TeamMapping, error)
}

// MappingView is a team mapping joined with the team name.
type MappingView struct {
	SourceName string                 `json:"source_name"`
	TeamID     int64                  `json:"team_id"`
	TeamName   string                 `json:"team_name"`
	Confidence domain.MatchConfidence `json:"confidence"`
}

// MappingService lists and overrides cached team mappings.
type MappingService struct {
	uow      domain.UnitOfWorkFactory
	resolver Overrider
	logger   *slog.Logger
}

// NewMappingService creates a MappingService.
func NewMappingService(uow domain.UnitOfWorkFactory, resolver Overrider, logger *slog.Logger) *MappingService {
	return &MappingService{uow: uow, resolver: resolver, logger: logger}
}

// List returns one page of mappings.
func (s *MappingService) List(ctx context.Context, opts domain.ListOpts) ([]MappingView, error) {
	var out []MappingView
	err := view(ctx, s.uow, func(u domain.UnitOfWork) error {
		mappings, err := u.TeamMappings().List(ctx, opts)
		if err != nil {
			return err
		}
		teams, err := u.Teams().List(ctx)
		if err != nil {
			return err
		}
		names := make(map[int64]string, len(teams))
		for _, t := range teams {
			names[t.ID] = t.Name
		}
		out = make([]MappingView, 0, len(mappings))
		for _, m := range mappings {
			out = append(out, MappingView{
				SourceName: m.SourceName,
				TeamID:     m.TeamID,
				TeamName:   names[m.TeamID],
				Confidence: m.Confidence,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service: list mappings: %w", err)
	}
	return out, nil
}

// Override replaces the mapping for source with a manual mapping to the
// named team and records an audit entry. Returns domain.ErrNotFound when
// the team does not exist.
func (s *MappingService) Override(ctx context.Context, source, teamName string) (MappingView, error) {
	var out MappingView
	err := update(ctx, s.uow, func(u domain.UnitOfWork) error {
		m, err := s.resolver.Override(ctx, u, source, teamName)
		if err != nil {
			return err
		}
		out = MappingView{
			SourceName: m.SourceName,
			TeamID:     m.TeamID,
			TeamName:   teamName,
			Confidence: m.Confidence,
		}
		return u.Audit().Log(ctx, "team_mapping.override", map[string]any{
			"source_name": m.SourceName,
			"team_id":     m.TeamID,
		})
	})
	if err != nil {
		return MappingView{}, err
	}

	s.logger.InfoContext(ctx, "service: team mapping overridden",
		slog.String("source", out.SourceName),
		slog.String("team", out.TeamName),
	)
	return out, nil
}
