package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ScopeTeam = "team"
	ScopeOrg  = "org"
)

// Goal tracks a numeric target over a metric for a team or the whole
// organization, within an inclusive [DateFrom, DateTo] window (ISO dates).
// DateTo >= DateFrom always; expired goals are removed when listings run.
type Goal struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Scope           string    `json:"scope" gorm:"not null;index"`
	OwnerName       *string   `json:"ownerName" gorm:"index"` // team scope only
	Title           string    `json:"title" gorm:"not null"`
	MetricType      string    `json:"metricType" gorm:"not null"`
	MetricKey       string    `json:"metricKey"`
	TargetValue     float64   `json:"targetValue" gorm:"not null;default:0"`
	DateFrom        string    `json:"dateFrom" gorm:"size:10;not null"`
	DateTo          string    `json:"dateTo" gorm:"size:10;not null"`
	LeaderboardTopN int       `json:"leaderboardTopN" gorm:"default:0"` // 0 = disabled
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// Goal DTOs
type CreateGoalRequest struct {
	Scope       string  `json:"scope" validate:"required"`
	OwnerName   *string `json:"ownerName"` // team scope; ignored for teamlead callers

	Title       string  `json:"title" validate:"required"`
	MetricType  string  `json:"metricType" validate:"required"`
	MetricKey   string  `json:"metricKey"`
	TargetValue float64 `json:"targetValue"`
	DateFrom    string  `json:"dateFrom" validate:"required"`
	DateTo      string  `json:"dateTo" validate:"required"`
}

type UpdateGoalRequest struct {
	Title       *string  `json:"title"`
	MetricType  *string  `json:"metricType"`
	MetricKey   *string  `json:"metricKey"`
	TargetValue *float64 `json:"targetValue"`
	DateFrom    *string  `json:"dateFrom"`
	DateTo      *string  `json:"dateTo"`
}

type LeaderboardConfigRequest struct {
	TopN int `json:"topN"`
}
