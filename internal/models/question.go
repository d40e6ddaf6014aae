package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Question is one line of the daily questionnaire. Key is stable across text
// edits so historical payloads stay addressable; Position is display order.
type Question struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Key       string    `json:"key" gorm:"uniqueIndex;not null"`
	Text      string    `json:"text" gorm:"not null"`
	Position  int       `json:"position" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// ProductOption is a selectable product name for the realized-products step.
type ProductOption struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	Position  int       `json:"position" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *ProductOption) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TeamLead is a roster entry. Agents link to it by name; renames cascade to
// agent links and saved team summaries.
type TeamLead struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	Position  int       `json:"position" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *TeamLead) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Admin editor DTOs
type QuestionRequest struct {
	Key  string `json:"key"`
	Text string `json:"text" validate:"required"`
}

type NameRequest struct {
	Name string `json:"name" validate:"required"`
}

type MoveRequest struct {
	Direction string `json:"direction" validate:"required"` // up or down
}

type PasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

type ReassignRequest struct {
	ManagerName *string `json:"managerName"`
}
