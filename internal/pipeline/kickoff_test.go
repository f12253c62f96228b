package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

func eastern(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func TestKickoffInstantNaiveAndAwareAgree(t *testing.T) {
	loc := eastern(t)
	aware := domain.GameRecord{Kickoff: time.Date(2025, 11, 15, 17, 0, 0, 0, time.UTC)}
	naive := domain.GameRecord{Kickoff: time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC), KickoffNaive: true}

	assert.True(t, KickoffInstant(aware, loc).Equal(KickoffInstant(naive, loc)))
}

func TestKickoffInstantHandlesDaylightSaving(t *testing.T) {
	loc := eastern(t)
	// Noon Eastern is 16:00Z in September (EDT) and 17:00Z in November (EST).
	sep := domain.GameRecord{Kickoff: time.Date(2025, 9, 6, 12, 0, 0, 0, time.UTC), KickoffNaive: true}
	nov := domain.GameRecord{Kickoff: time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC), KickoffNaive: true}

	assert.Equal(t, time.Date(2025, 9, 6, 16, 0, 0, 0, time.UTC), KickoffInstant(sep, loc))
	assert.Equal(t, time.Date(2025, 11, 15, 17, 0, 0, 0, time.UTC), KickoffInstant(nov, loc))
}

func TestHasStarted(t *testing.T) {
	loc := eastern(t)
	kick := time.Date(2025, 11, 15, 17, 0, 0, 0, time.UTC)
	g := domain.GameRecord{Kickoff: kick}

	assert.False(t, HasStarted(g, kick.Add(-time.Second), loc))
	assert.True(t, HasStarted(g, kick, loc), "kickoff at now counts as started")
	assert.True(t, HasStarted(g, kick.Add(time.Hour), loc))
	assert.False(t, HasStarted(domain.GameRecord{}, kick, loc), "unknown kickoff never freezes")
}

func TestDayLabelUsesLocalCalendar(t *testing.T) {
	loc := eastern(t)
	// 00:30Z Saturday is still Friday evening in Eastern time.
	assert.Equal(t, "Friday", DayLabel(time.Date(2025, 11, 15, 0, 30, 0, 0, time.UTC), loc))
	assert.Equal(t, "Saturday", DayLabel(time.Date(2025, 11, 15, 17, 0, 0, 0, time.UTC), loc))
	assert.Empty(t, DayLabel(time.Time{}, loc))
}

func TestLockTime(t *testing.T) {
	kick := time.Date(2025, 11, 15, 17, 0, 0, 0, time.UTC)
	assert.Equal(t, kick.Add(-5*time.Minute), LockTime(kick))
	assert.True(t, LockTime(time.Time{}).IsZero())
}

func TestFormatLine(t *testing.T) {
	cases := map[float64]string{
		-3.5: "-3.5",
		3.5:  "3.5",
		7:    "7.0",
		-14:  "-14.0",
		0:    "0.0",
		51.5: "51.5",
	}
	for in, want := range cases {
		v := in
		got := FormatLine(&v)
		require.NotNil(t, got)
		assert.Equal(t, want, *got)
	}
	assert.Nil(t, FormatLine(nil))
}

func TestGameDays(t *testing.T) {
	loc := eastern(t)
	sel, err := GameDays([]string{"2025-11-14", "2025-11-15"}, loc)
	require.NoError(t, err)

	friNight := domain.ExternalEvent{StartTime: time.Date(2025, 11, 15, 0, 30, 0, 0, time.UTC)}
	satNoon := domain.ExternalEvent{StartTime: time.Date(2025, 11, 15, 17, 0, 0, 0, time.UTC)}
	sunNight := domain.ExternalEvent{StartTime: time.Date(2025, 11, 16, 4, 30, 0, 0, time.UTC)}

	assert.True(t, sel(friNight))
	assert.True(t, sel(satNoon))
	assert.True(t, sel(sunNight), "23:30 Saturday Eastern")
	assert.False(t, sel(domain.ExternalEvent{StartTime: time.Date(2025, 11, 16, 18, 0, 0, 0, time.UTC)}))
	assert.False(t, sel(domain.ExternalEvent{}))

	_, err = GameDays([]string{"11/15"}, loc)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	all, err := GameDays(nil, loc)
	require.NoError(t, err)
	assert.True(t, all(domain.ExternalEvent{}))
}
