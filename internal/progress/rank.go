package progress

import (
	"sort"

	"github.com/google/uuid"

	"github.com/avoronova/fieldpulse-api/internal/models"
)

// Rank markers: the first three places get distinct medals, everyone else
// shown shares the flame.
var medals = []string{"🥇", "🥈", "🥉"}

const genericMarker = "🔥"

// Entry is one ranked leaderboard line.
type Entry struct {
	ParticipantID uuid.UUID `json:"participantId"`
	Name          string    `json:"name"`
	Score         float64   `json:"score"`
	Marker        string    `json:"marker"`
}

// Rank orders scores descending, ties broken by ascending participant id so
// the ordering is reproducible, and truncates to topN. Scores <= 0 never
// appear; topN <= 0 yields an empty list.
func Rank(scores map[uuid.UUID]float64, topN int) []Entry {
	if topN <= 0 {
		return nil
	}
	entries := make([]Entry, 0, len(scores))
	for id, score := range scores {
		if score > 0 {
			entries = append(entries, Entry{ParticipantID: id, Score: score})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ParticipantID.String() < entries[j].ParticipantID.String()
	})
	if len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}

// Leaderboard computes and decorates the goal's ranked entries. Name
// resolution is best effort: a failed or partial lookup leaves the raw id in
// place, never drops an entry.
func (c *Calculator) Leaderboard(goal models.Goal, topN int, asOf string) []Entry {
	entries := Rank(c.PerParticipant(goal, asOf), topN)
	if len(entries) == 0 {
		return entries
	}

	ids := make([]uuid.UUID, len(entries))
	for i := range entries {
		ids[i] = entries[i].ParticipantID
	}
	names, err := c.Source.DisplayNames(ids)
	if err != nil {
		names = nil
	}

	for i := range entries {
		if name, ok := names[entries[i].ParticipantID]; ok && name != "" {
			entries[i].Name = name
		} else {
			entries[i].Name = entries[i].ParticipantID.String()
		}
		if i < len(medals) {
			entries[i].Marker = medals[i]
		} else {
			entries[i].Marker = genericMarker
		}
	}
	return entries
}
