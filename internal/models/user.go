package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles a user can hold. Agents report, teamleads own a roster of agents,
// managers see cross-team data, admins edit the questionnaire and rosters.
const (
	RoleAgent    = "agent"
	RoleTeamLead = "teamlead"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

type User struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Role        string         `json:"role" gorm:"not null;index"`
	Name        string         `json:"name" gorm:"index"`
	ManagerName *string        `json:"managerName"` // agents: roster name of their teamlead
	PasswordGen int            `json:"-" gorm:"default:0"`
	FCMToken    string         `json:"-" gorm:"column:fcm_token"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Auth DTOs
type RegisterRequest struct {
	Name        string `json:"name" validate:"required"`
	ManagerName string `json:"managerName"`
}

type LoginRequest struct {
	Role     string `json:"role" validate:"required"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Name        *string `json:"name"`
	ManagerName *string `json:"managerName"`
	FCMToken    *string `json:"fcmToken"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
