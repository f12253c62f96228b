package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

func TestDSN(t *testing.T) {
	assert.Equal(t, "postgres://u:p@db:5432/cfb?sslmode=disable",
		DSN(ClientConfig{Host: "db", User: "u", Password: "p", Database: "cfb"}))
	assert.Equal(t, "postgres://u:p@db:6543/cfb?sslmode=require",
		DSN(ClientConfig{Host: "db", Port: 6543, User: "u", Password: "p", Database: "cfb", SSLMode: "require"}))
	assert.Equal(t, "postgres://x", DSN(ClientConfig{DSN: "postgres://x", Host: "ignored"}))
}

func TestMigrationNamesSorted(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_init.sql", names[0])
	assert.IsIncreasing(t, names)
}

func kickoffColumns(t *testing.T, s *GameStore, g domain.GameRecord) (gameTime, kickoffAt *time.Time) {
	t.Helper()
	args := s.mutableArgs(g)
	// game_time and kickoff_at follow the eleven quote columns.
	gameTime, _ = args[11].(*time.Time)
	kickoffAt, _ = args[12].(*time.Time)
	return gameTime, kickoffAt
}

func TestMutableArgsKickoff(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	s := NewGameStore(nil, loc)

	instant := time.Date(2025, 11, 15, 17, 0, 0, 0, time.UTC)
	gameTime, kickoffAt := kickoffColumns(t, s, domain.GameRecord{Kickoff: instant})
	require.NotNil(t, kickoffAt)
	require.NotNil(t, gameTime)
	assert.True(t, kickoffAt.Equal(instant))
	assert.Equal(t, 12, gameTime.Hour(), "wall clock is written in the configured zone")

	naive := time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)
	gameTime, kickoffAt = kickoffColumns(t, s, domain.GameRecord{Kickoff: naive, KickoffNaive: true})
	assert.Nil(t, kickoffAt)
	require.NotNil(t, gameTime)
	assert.Equal(t, naive, *gameTime)

	gameTime, kickoffAt = kickoffColumns(t, s, domain.GameRecord{})
	assert.Nil(t, gameTime)
	assert.Nil(t, kickoffAt)
}

func TestMutableArgsScore(t *testing.T) {
	home, away := 21, 17
	args := NewGameStore(nil, time.UTC).mutableArgs(domain.GameRecord{
		Status: "in_progress",
		Score:  &domain.Score{Home: &home, Away: &away, Clock: "04:12", Period: "Q3", Status: "IN_PROGRESS"},
	})
	require.Len(t, args, 21)
	assert.Equal(t, "in_progress", args[14])
	assert.Equal(t, &home, args[15])
	assert.Equal(t, "Q3", args[18])
	assert.Nil(t, args[20])
}
