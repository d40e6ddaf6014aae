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

// fakeSource serves canned rows and records the requested window.
type fakeSource struct {
	rows     []ReportRow
	names    map[uuid.UUID]string
	err      error
	namesErr error

	lastFrom string
	lastTo   string
}

func (f *fakeSource) RowsInRange(dateFrom, dateTo string) ([]ReportRow, error) {
	f.lastFrom, f.lastTo = dateFrom, dateTo
	if f.err != nil {
		return nil, f.err
	}
	var out []ReportRow
	for _, r := range f.rows {
		if r.ReportDate >= dateFrom && r.ReportDate <= dateTo {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) DisplayNames(ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if f.namesErr != nil {
		return nil, f.namesErr
	}
	return f.names, nil
}

func row(id uuid.UUID, date, snapshot, current string, values map[string]string) ReportRow {
	return ReportRow{
		ParticipantID:  id,
		ReportDate:     date,
		Payload:        models.ReportPayload{Values: values, ManagerSnapshot: snapshot},
		CurrentManager: current,
	}
}

func meetingsGoal(scope string, owner *string, from, to string) models.Goal {
	return models.Goal{
		ID:         uuid.New(),
		Scope:      scope,
		OwnerName:  owner,
		MetricType: metrics.TypeQuestion,
		MetricKey:  "meetings",
		DateFrom:   from,
		DateTo:     to,
	}
}

func TestAchievedSumsMatchingRows(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	src := &fakeSource{rows: []ReportRow{
		row(a, "2026-08-10", "", "", map[string]string{"meetings": "3"}),
		row(b, "2026-08-11", "", "", map[string]string{"meetings": "4,5"}),
	}}
	c := NewCalculator(src)

	goal := meetingsGoal(models.ScopeOrg, nil, "2026-08-01", "2026-08-31")
	assert.Equal(t, 7.5, c.Achieved(goal, "2026-08-15"))
}

func TestAchievedTeamScopeFiltersBySnapshot(t *testing.T) {
	a, b, cID := uuid.New(), uuid.New(), uuid.New()
	owner := "Иванов"
	src := &fakeSource{rows: []ReportRow{
		row(a, "2026-08-10", "Иванов", "", map[string]string{"meetings": "3"}),
		row(b, "2026-08-10", "Петров", "", map[string]string{"meetings": "100"}),
		// no snapshot: attribution falls back to the current link
		row(cID, "2026-08-10", "", "Иванов", map[string]string{"meetings": "5"}),
	}}
	c := NewCalculator(src)

	goal := meetingsGoal(models.ScopeTeam, &owner, "2026-08-01", "2026-08-31")
	assert.Equal(t, 8.0, c.Achieved(goal, "2026-08-15"))
}

func TestAchievedSnapshotBeatsCurrentLink(t *testing.T) {
	a := uuid.New()
	owner := "Иванов"
	// agent has since moved to Петров, history stays with Иванов
	src := &fakeSource{rows: []ReportRow{
		row(a, "2026-08-10", "Иванов", "Петров", map[string]string{"meetings": "3"}),
	}}
	c := NewCalculator(src)

	goal := meetingsGoal(models.ScopeTeam, &owner, "2026-08-01", "2026-08-31")
	assert.Equal(t, 3.0, c.Achieved(goal, "2026-08-15"))

	other := "Петров"
	goal.OwnerName = &other
	assert.Equal(t, 0.0, c.Achieved(goal, "2026-08-15"))
}

func TestWindowClipsToAsOf(t *testing.T) {
	a := uuid.New()
	src := &fakeSource{rows: []ReportRow{
		row(a, "2026-08-20", "", "", map[string]string{"meetings": "9"}),
	}}
	c := NewCalculator(src)

	goal := meetingsGoal(models.ScopeOrg, nil, "2026-08-01", "2026-08-31")
	assert.Equal(t, 0.0, c.Achieved(goal, "2026-08-15"))
	assert.Equal(t, "2026-08-01", src.lastFrom)
	assert.Equal(t, "2026-08-15", src.lastTo)

	// asOf past the window stops at the goal end
	assert.Equal(t, 9.0, c.Achieved(goal, "2026-09-10"))
	assert.Equal(t, "2026-08-31", src.lastTo)
}

func TestFutureGoalContributesNothing(t *testing.T) {
	src := &fakeSource{rows: []ReportRow{
		row(uuid.New(), "2026-08-10", "", "", map[string]string{"meetings": "9"}),
	}}
	c := NewCalculator(src)

	goal := meetingsGoal(models.ScopeOrg, nil, "2026-09-01", "2026-09-30")
	assert.Equal(t, 0.0, c.Achieved(goal, "2026-08-15"))
	assert.Empty(t, c.PerParticipant(goal, "2026-08-15"))
}

func TestSourceErrorDegradesToZero(t *testing.T) {
	src := &fakeSource{err: errors.New("db down")}
	c := NewCalculator(src)

	goal := meetingsGoal(models.ScopeOrg, nil, "2026-08-01", "2026-08-31")
	assert.Equal(t, 0.0, c.Achieved(goal, "2026-08-15"))
	assert.Empty(t, c.PerParticipant(goal, "2026-08-15"))
	assert.Empty(t, c.Leaderboard(goal, 10, "2026-08-15"))
}

func TestPerParticipantExcludesZeroContributions(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	src := &fakeSource{rows: []ReportRow{
		row(a, "2026-08-10", "", "", map[string]string{"meetings": "3"}),
		row(a, "2026-08-11", "", "", map[string]string{"meetings": "2"}),
		row(b, "2026-08-10", "", "", map[string]string{"meetings": "0"}),
	}}
	c := NewCalculator(src)

	goal := meetingsGoal(models.ScopeOrg, nil, "2026-08-01", "2026-08-31")
	scores := c.PerParticipant(goal, "2026-08-15")

	require.Len(t, scores, 1)
	assert.Equal(t, 5.0, scores[a])
}

func TestPerParticipantSumsToAchieved(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	src := &fakeSource{rows: []ReportRow{
		row(a, "2026-08-10", "", "", map[string]string{"meetings": "3"}),
		row(b, "2026-08-11", "", "", map[string]string{"meetings": "4"}),
		row(b, "2026-08-12", "", "", map[string]string{"meetings": "1,5"}),
	}}
	c := NewCalculator(src)
	goal := meetingsGoal(models.ScopeOrg, nil, "2026-08-01", "2026-08-31")

	total := 0.0
	for _, v := range c.PerParticipant(goal, "2026-08-15") {
		total += v
	}
	assert.Equal(t, c.Achieved(goal, "2026-08-15"), total)
}

func TestAchievedIsIdempotent(t *testing.T) {
	a := uuid.New()
	src := &fakeSource{rows: []ReportRow{
		row(a, "2026-08-10", "", "", map[string]string{"meetings": "3"}),
	}}
	c := NewCalculator(src)
	goal := meetingsGoal(models.ScopeOrg, nil, "2026-08-01", "2026-08-31")

	first := c.Achieved(goal, "2026-08-15")
	assert.Equal(t, first, c.Achieved(goal, "2026-08-15"))
}
