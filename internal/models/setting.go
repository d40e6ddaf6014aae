package models

import "time"

// Setting keys managed by the admin console.
const (
	SettingAdminPasswordHash    = "admin_password_hash"
	SettingTeamLeadPasswordHash = "teamlead_password_hash"
	SettingTeamLeadPasswordGen  = "teamlead_password_gen"
)

// Setting is a key-value row for runtime-editable configuration.
type Setting struct {
	Key       string    `json:"key" gorm:"primaryKey"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}
