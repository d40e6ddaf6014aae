package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportPayload is the decoded daily report. Values keeps the raw numeric
// strings as entered (forgiving parsing happens in the metrics package so
// historical data round-trips unchanged). ManagerSnapshot pins the agent's
// teamlead at submission time so later reassignment does not rewrite
// historical team attribution.
type ReportPayload struct {
	Values          map[string]string `json:"values,omitempty"`
	Products        []string          `json:"products,omitempty"`
	RealizedCount   *float64          `json:"realizedCount,omitempty"`
	ManagerSnapshot string            `json:"managerSnapshot,omitempty"`
}

type Report struct {
	ID         uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID     `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_reports_user_date"`
	ReportDate string        `json:"reportDate" gorm:"size:10;not null;index;uniqueIndex:idx_reports_user_date"`
	Payload    ReportPayload `json:"payload" gorm:"serializer:json"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TeamSummary is a teamlead's combined report for one date, visible to
// managers once saved. Keyed (owner, date) with upsert semantics.
type TeamSummary struct {
	ID         uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerName  string        `json:"ownerName" gorm:"not null;uniqueIndex:idx_summaries_owner_date"`
	ReportDate string        `json:"reportDate" gorm:"size:10;not null;index;uniqueIndex:idx_summaries_owner_date"`
	Payload    ReportPayload `json:"payload" gorm:"serializer:json"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

func (s *TeamSummary) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Report DTOs
type SubmitReportRequest struct {
	Values   map[string]string `json:"values"`
	Products []string          `json:"products"`
}
