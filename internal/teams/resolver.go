// Package teams maps free-text aggregator team names to internal team
// identities. Resolution runs cache, manual alias, exact name, then
// normalized fuzzy match, and every success is remembered.
package teams

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// DefaultThreshold is the minimum fuzzy score accepted.
const DefaultThreshold = 0.75

// Resolver resolves raw team names. It holds no per-run state; the stores
// it reads and writes are passed with each call so writes land in the
// caller's unit of work.
type Resolver struct {
	aliases   *AliasTable
	cache     domain.TeamMappingCache
	threshold float64
	logger    *slog.Logger
}

// NewResolver creates a Resolver. cache may be nil.
func NewResolver(aliases *AliasTable, cache domain.TeamMappingCache, threshold float64, logger *slog.Logger) *Resolver {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if aliases == nil {
		aliases = &AliasTable{}
	}
	return &Resolver{
		aliases:   aliases,
		cache:     cache,
		threshold: threshold,
		logger:    logger,
	}
}

// Resolve maps raw to a team. It returns an error wrapping
// domain.ErrUnresolvedTeam when no tier produces a match; any other error
// comes from the stores.
func (r *Resolver) Resolve(ctx context.Context, lookup domain.TeamLookup, raw string) (domain.TeamResolution, error) {
	key := strings.TrimSpace(raw)
	if key == "" {
		return domain.TeamResolution{}, fmt.Errorf("teams: empty name: %w", domain.ErrUnresolvedTeam)
	}

	res, ok, err := r.fromCache(ctx, lookup, key)
	if err != nil || ok {
		return res, err
	}

	if canonical, ok := r.aliases.Canonical(key); ok {
		team, err := lookup.Teams().GetByName(ctx, canonical)
		switch {
		case err == nil:
			return r.remember(ctx, lookup, key, team, domain.ConfidenceManual, 1.0)
		case !errors.Is(err, domain.ErrNotFound):
			return domain.TeamResolution{}, fmt.Errorf("teams: manual alias %q: %w", key, err)
		}
		r.logger.Warn("teams: manual alias target missing",
			slog.String("source", key),
			slog.String("canonical", canonical),
		)
	}

	team, err := lookup.Teams().GetByName(ctx, key)
	switch {
	case err == nil:
		return r.remember(ctx, lookup, key, team, domain.ConfidenceExact, 1.0)
	case !errors.Is(err, domain.ErrNotFound):
		return domain.TeamResolution{}, fmt.Errorf("teams: exact %q: %w", key, err)
	}

	all, err := lookup.Teams().List(ctx)
	if err != nil {
		return domain.TeamResolution{}, fmt.Errorf("teams: list teams: %w", err)
	}
	best, score := r.bestMatch(key, all)
	if best != nil && score >= r.threshold {
		return r.remember(ctx, lookup, key, *best, domain.ConfidenceFuzzy, score)
	}

	return domain.TeamResolution{Score: score}, fmt.Errorf("teams: %q (best score %.2f): %w", key, score, domain.ErrUnresolvedTeam)
}

// Override pins source to the named team with manual confidence,
// replacing any existing mapping.
func (r *Resolver) Override(ctx context.Context, lookup domain.TeamLookup, source, teamName string) (domain.TeamMapping, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return domain.TeamMapping{}, fmt.Errorf("teams: override: empty source name: %w", domain.ErrInvalidInput)
	}
	team, err := lookup.Teams().GetByName(ctx, strings.TrimSpace(teamName))
	if err != nil {
		return domain.TeamMapping{}, fmt.Errorf("teams: override %q: team %q: %w", source, teamName, err)
	}

	m := domain.TeamMapping{SourceName: source, TeamID: team.ID, Confidence: domain.ConfidenceManual}
	if err := lookup.TeamMappings().Override(ctx, m); err != nil {
		return domain.TeamMapping{}, fmt.Errorf("teams: override %q: %w", source, err)
	}
	if r.cache != nil {
		if err := r.cache.Invalidate(ctx, source); err != nil {
			r.logger.Warn("teams: cache invalidate failed",
				slog.String("source", source),
				slog.String("error", err.Error()),
			)
		}
	}
	return m, nil
}

// fromCache consults the shared cache, then the persistent table. A table
// hit is returned with its row so the caller can warm the cache after
// commit.
func (r *Resolver) fromCache(ctx context.Context, lookup domain.TeamLookup, key string) (domain.TeamResolution, bool, error) {
	var (
		m      domain.TeamMapping
		shared bool
	)
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, key)
		switch {
		case err == nil:
			m, shared = cached, true
		case !errors.Is(err, domain.ErrNotFound):
			r.logger.Warn("teams: cache read failed",
				slog.String("source", key),
				slog.String("error", err.Error()),
			)
		}
	}

	if !shared {
		stored, err := lookup.TeamMappings().Get(ctx, key)
		switch {
		case err == nil:
			m = stored
		case errors.Is(err, domain.ErrNotFound):
			return domain.TeamResolution{}, false, nil
		default:
			return domain.TeamResolution{}, false, fmt.Errorf("teams: mapping %q: %w", key, err)
		}
	}

	res, err := r.resolution(ctx, lookup, m, 1.0)
	if err != nil {
		return domain.TeamResolution{}, false, err
	}
	res.Cached = true
	if !shared {
		res.Mapping = &m
	}
	return res, true, nil
}

// remember inserts the mapping and answers with the row the table kept,
// which differs from ours when another run got there first.
func (r *Resolver) remember(ctx context.Context, lookup domain.TeamLookup, key string, team domain.Team, conf domain.MatchConfidence, score float64) (domain.TeamResolution, error) {
	m := domain.TeamMapping{SourceName: key, TeamID: team.ID, Confidence: conf}
	if err := lookup.TeamMappings().Insert(ctx, m); err != nil {
		return domain.TeamResolution{}, fmt.Errorf("teams: store mapping %q: %w", key, err)
	}
	stored, err := lookup.TeamMappings().Get(ctx, key)
	if err != nil {
		return domain.TeamResolution{}, fmt.Errorf("teams: reread mapping %q: %w", key, err)
	}
	if stored.TeamID != team.ID || stored.Confidence != conf {
		r.logger.Info("teams: kept existing mapping",
			slog.String("source", key),
			slog.Int64("team_id", stored.TeamID),
			slog.String("confidence", string(stored.Confidence)),
		)
		score = 1.0
	}

	res, err := r.resolution(ctx, lookup, stored, score)
	if err != nil {
		return domain.TeamResolution{}, err
	}
	res.Mapping = &stored

	r.logger.Info("teams: mapped source name",
		slog.String("source", key),
		slog.String("team", res.TeamName),
		slog.String("confidence", string(res.Confidence)),
		slog.Float64("score", res.Score),
	)
	return res, nil
}

func (r *Resolver) resolution(ctx context.Context, lookup domain.TeamLookup, m domain.TeamMapping, score float64) (domain.TeamResolution, error) {
	team, err := lookup.Teams().GetByID(ctx, m.TeamID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.TeamResolution{}, fmt.Errorf("teams: %q maps to missing team %d: %w", m.SourceName, m.TeamID, domain.ErrUnresolvedTeam)
		}
		return domain.TeamResolution{}, fmt.Errorf("teams: team %d: %w", m.TeamID, err)
	}
	return domain.TeamResolution{
		TeamID:     team.ID,
		TeamName:   team.Name,
		Confidence: m.Confidence,
		Score:      score,
	}, nil
}

// Publish writes committed mappings to the shared cache. Call it only after
// the unit of work that produced them has committed.
func (r *Resolver) Publish(ctx context.Context, mappings []domain.TeamMapping) {
	for _, m := range mappings {
		r.setCache(ctx, m)
	}
}

func (r *Resolver) setCache(ctx context.Context, m domain.TeamMapping) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, m); err != nil {
		r.logger.Warn("teams: cache write failed",
			slog.String("source", m.SourceName),
			slog.String("error", err.Error()),
		)
	}
}

// bestMatch returns the highest-scoring team. Ties keep the earlier team.
func (r *Resolver) bestMatch(key string, all []domain.Team) (*domain.Team, float64) {
	target := Normalize(key, r.aliases.Mascots)

	var (
		best      *domain.Team
		bestScore float64
	)
	for i := range all {
		score := Similarity(target, Normalize(all[i].Name, r.aliases.Mascots))
		if score > bestScore {
			best, bestScore = &all[i], score
		}
	}
	return best, bestScore
}
