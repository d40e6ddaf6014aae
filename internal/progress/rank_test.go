package progress

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronova/fieldpulse-api/internal/metrics"
	"github.com/avoronova/fieldpulse-api/internal/models"
)

func TestRankOrdersByScoreDescending(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	entries := Rank(map[uuid.UUID]float64{a: 5, b: 12, c: 7}, 10)

	require.Len(t, entries, 3)
	assert.Equal(t, b, entries[0].ParticipantID)
	assert.Equal(t, c, entries[1].ParticipantID)
	assert.Equal(t, a, entries[2].ParticipantID)
}

func TestRankTiesBreakByParticipantID(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	scores := map[uuid.UUID]float64{a: 10, b: 10, c: 5}

	entries := Rank(scores, 2)
	require.Len(t, entries, 2)

	// tied winners sorted by id string, so the cut is reproducible
	first, second := entries[0].ParticipantID, entries[1].ParticipantID
	assert.True(t, first.String() < second.String())
	assert.Equal(t, 10.0, entries[0].Score)
	assert.Equal(t, 10.0, entries[1].Score)

	again := Rank(scores, 2)
	assert.Equal(t, entries, again)
}

func TestRankDropsNonPositiveScores(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	entries := Rank(map[uuid.UUID]float64{a: 1, b: 0, c: -3}, 10)

	require.Len(t, entries, 1)
	assert.Equal(t, a, entries[0].ParticipantID)
}

func TestRankTruncatesToTopN(t *testing.T) {
	scores := make(map[uuid.UUID]float64)
	for i := 1; i <= 10; i++ {
		scores[uuid.New()] = float64(i)
	}

	entries := Rank(scores, 3)
	require.Len(t, entries, 3)
	assert.Equal(t, 10.0, entries[0].Score)
	assert.Equal(t, 8.0, entries[2].Score)
}

func TestRankDisabled(t *testing.T) {
	assert.Empty(t, Rank(map[uuid.UUID]float64{uuid.New(): 5}, 0))
	assert.Empty(t, Rank(map[uuid.UUID]float64{uuid.New(): 5}, -1))
	assert.Empty(t, Rank(nil, 5))
}

func TestLeaderboardMarkersAndNames(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	src := &fakeSource{
		rows: []ReportRow{
			row(ids[0], "2026-08-10", "", "", map[string]string{"meetings": "9"}),
			row(ids[1], "2026-08-10", "", "", map[string]string{"meetings": "7"}),
			row(ids[2], "2026-08-10", "", "", map[string]string{"meetings": "5"}),
			row(ids[3], "2026-08-10", "", "", map[string]string{"meetings": "3"}),
		},
		names: map[uuid.UUID]string{
			ids[0]: "Анна",
			ids[1]: "Борис",
			ids[2]: "Вера",
			// ids[3] unresolved on purpose
		},
	}
	c := NewCalculator(src)

	goal := meetingsGoal(models.ScopeOrg, nil, "2026-08-01", "2026-08-31")
	entries := c.Leaderboard(goal, 10, "2026-08-15")

	require.Len(t, entries, 4)
	assert.Equal(t, "🥇", entries[0].Marker)
	assert.Equal(t, "🥈", entries[1].Marker)
	assert.Equal(t, "🥉", entries[2].Marker)
	assert.Equal(t, "🔥", entries[3].Marker)

	assert.Equal(t, "Анна", entries[0].Name)
	assert.Equal(t, ids[3].String(), entries[3].Name)
}

func TestLeaderboardNameLookupFailureKeepsEntries(t *testing.T) {
	a := uuid.New()
	src := &fakeSource{
		rows: []ReportRow{
			row(a, "2026-08-10", "", "", map[string]string{"meetings": "9"}),
		},
		namesErr: errors.New("db down"),
	}
	c := NewCalculator(src)

	goal := meetingsGoal(models.ScopeOrg, nil, "2026-08-01", "2026-08-31")
	entries := c.Leaderboard(goal, 5, "2026-08-15")

	require.Len(t, entries, 1)
	assert.Equal(t, a.String(), entries[0].Name)
	assert.Equal(t, "🥇", entries[0].Marker)
}

func TestLeaderboardProductMetric(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	src := &fakeSource{rows: []ReportRow{
		{
			ParticipantID: a,
			ReportDate:    "2026-08-10",
			Payload:       models.ReportPayload{Products: []string{"БК", "БК", "ТЭ"}},
		},
		{
			ParticipantID: b,
			ReportDate:    "2026-08-10",
			Payload:       models.ReportPayload{Products: []string{"БК"}},
		},
	}}
	c := NewCalculator(src)

	goal := models.Goal{
		ID:         uuid.New(),
		Scope:      models.ScopeOrg,
		MetricType: metrics.TypeProductSingle,
		MetricKey:  "БК",
		DateFrom:   "2026-08-01",
		DateTo:     "2026-08-31",
	}
	entries := c.Leaderboard(goal, 5, "2026-08-15")

	require.Len(t, entries, 2)
	assert.Equal(t, a, entries[0].ParticipantID)
	assert.Equal(t, 2.0, entries[0].Score)
	assert.Equal(t, 1.0, entries[1].Score)
}
