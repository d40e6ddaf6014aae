// Package progress computes goal achievement and leaderboards from stored
// report rows. Everything here is a pure query over a ReportSource: no
// caching, no background recomputation, and a source failure degrades to
// zero progress so one broken goal never blocks a wider report.
package progress

import (
	"github.com/google/uuid"

	"github.com/avoronova/fieldpulse-api/internal/metrics"
	"github.com/avoronova/fieldpulse-api/internal/models"
)

// ReportRow is one stored report as the aggregator sees it. CurrentManager
// is the participant's live teamlead link, used only when the payload
// carries no manager snapshot.
type ReportRow struct {
	ParticipantID  uuid.UUID
	ReportDate     string
	Payload        models.ReportPayload
	CurrentManager string
}

// ReportSource feeds the aggregator. Row order is unspecified; partial name
// resolution is acceptable.
type ReportSource interface {
	RowsInRange(dateFrom, dateTo string) ([]ReportRow, error)
	DisplayNames(ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// Calculator evaluates goals against a report source.
type Calculator struct {
	Source ReportSource
}

func NewCalculator(src ReportSource) *Calculator {
	return &Calculator{Source: src}
}

// window clips the goal's date range to asOf. ok is false when the clipped
// window is empty (goal starts in the future).
func window(goal models.Goal, asOf string) (from, to string, ok bool) {
	to = goal.DateTo
	if asOf < to {
		to = asOf
	}
	from = goal.DateFrom
	return from, to, to >= from
}

// matches applies the goal's scope filter to a row. Team attribution prefers
// the payload's manager snapshot; rows predating snapshots fall back to the
// participant's current teamlead link.
func matches(goal models.Goal, row ReportRow) bool {
	if goal.Scope != models.ScopeTeam {
		return true
	}
	owner := ""
	if goal.OwnerName != nil {
		owner = *goal.OwnerName
	}
	attributed := row.Payload.ManagerSnapshot
	if attributed == "" {
		attributed = row.CurrentManager
	}
	return attributed == owner
}

// Achieved returns the summed metric contribution of all matching rows in
// the goal's window up to asOf.
func (c *Calculator) Achieved(goal models.Goal, asOf string) float64 {
	from, to, ok := window(goal, asOf)
	if !ok {
		return 0
	}
	rows, err := c.Source.RowsInRange(from, to)
	if err != nil {
		return 0
	}
	desc := metrics.Descriptor{Type: goal.MetricType, Key: goal.MetricKey}
	total := 0.0
	for _, row := range rows {
		if matches(goal, row) {
			total += desc.Value(row.Payload)
		}
	}
	return total
}

// PerParticipant returns each participant's summed contribution. A
// participant only appears once a row contributes strictly more than 0, so
// leaderboards never fill with zero scorers. The map's values always sum to
// Achieved for the same goal and asOf.
func (c *Calculator) PerParticipant(goal models.Goal, asOf string) map[uuid.UUID]float64 {
	scores := make(map[uuid.UUID]float64)
	from, to, ok := window(goal, asOf)
	if !ok {
		return scores
	}
	rows, err := c.Source.RowsInRange(from, to)
	if err != nil {
		return scores
	}
	desc := metrics.Descriptor{Type: goal.MetricType, Key: goal.MetricKey}
	for _, row := range rows {
		if !matches(goal, row) {
			continue
		}
		if v := desc.Value(row.Payload); v > 0 {
			scores[row.ParticipantID] += v
		}
	}
	return scores
}
