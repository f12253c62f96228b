package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// TeamMappingCache implements domain.TeamMappingCache with one JSON string
// key per source name.
type TeamMappingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTeamMappingCache creates a TeamMappingCache. A zero ttl keeps entries
// until invalidated.
func NewTeamMappingCache(c *Client, ttl time.Duration) *TeamMappingCache {
	return &TeamMappingCache{rdb: c.Underlying(), ttl: ttl}
}

func teamMappingKey(source string) string {
	return "teammap:" + source
}

type cachedMapping struct {
	SourceName string    `json:"source_name"`
	TeamID     int64     `json:"team_id"`
	Confidence string    `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// Get returns the cached mapping, or domain.ErrNotFound on a miss.
func (c *TeamMappingCache) Get(ctx context.Context, sourceName string) (domain.TeamMapping, error) {
	data, err := c.rdb.Get(ctx, teamMappingKey(sourceName)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.TeamMapping{}, domain.ErrNotFound
		}
		return domain.TeamMapping{}, fmt.Errorf("redis: get team mapping %q: %w", sourceName, err)
	}

	var cm cachedMapping
	if err := json.Unmarshal(data, &cm); err != nil {
		return domain.TeamMapping{}, fmt.Errorf("redis: decode team mapping %q: %w", sourceName, err)
	}
	return domain.TeamMapping{
		SourceName: cm.SourceName,
		TeamID:     cm.TeamID,
		Confidence: domain.MatchConfidence(cm.Confidence),
		CreatedAt:  cm.CreatedAt,
	}, nil
}

// Set stores m under its source name.
func (c *TeamMappingCache) Set(ctx context.Context, m domain.TeamMapping) error {
	data, err := json.Marshal(cachedMapping{
		SourceName: m.SourceName,
		TeamID:     m.TeamID,
		Confidence: string(m.Confidence),
		CreatedAt:  m.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("redis: encode team mapping %q: %w", m.SourceName, err)
	}
	if err := c.rdb.Set(ctx, teamMappingKey(m.SourceName), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set team mapping %q: %w", m.SourceName, err)
	}
	return nil
}

// Invalidate removes the cached mapping for sourceName.
func (c *TeamMappingCache) Invalidate(ctx context.Context, sourceName string) error {
	if err := c.rdb.Del(ctx, teamMappingKey(sourceName)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate team mapping %q: %w", sourceName, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.TeamMappingCache = (*TeamMappingCache)(nil)
