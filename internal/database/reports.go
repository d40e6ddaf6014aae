package database

import (
	"github.com/google/uuid"

	"github.com/avoronova/fieldpulse-api/internal/models"
	"github.com/avoronova/fieldpulse-api/internal/progress"
)

// Reports implements progress.ReportSource on the live database.
type Reports struct{}

// RowsInRange loads every report in the inclusive date window together with
// each participant's current teamlead link (the snapshot fallback).
func (Reports) RowsInRange(dateFrom, dateTo string) ([]progress.ReportRow, error) {
	var reports []models.Report
	if err := DB.Where("report_date >= ? AND report_date <= ?", dateFrom, dateTo).Find(&reports).Error; err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(reports))
	seen := make(map[uuid.UUID]bool)
	for _, r := range reports {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			ids = append(ids, r.UserID)
		}
	}

	var users []models.User
	if err := DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	managers := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		if u.ManagerName != nil {
			managers[u.ID] = *u.ManagerName
		}
	}

	rows := make([]progress.ReportRow, len(reports))
	for i, r := range reports {
		rows[i] = progress.ReportRow{
			ParticipantID:  r.UserID,
			ReportDate:     r.ReportDate,
			Payload:        r.Payload,
			CurrentManager: managers[r.UserID],
		}
	}
	return rows, nil
}

// DisplayNames resolves participant ids to names, best effort.
func (Reports) DisplayNames(ids []uuid.UUID) (map[uuid.UUID]string, error) {
	var users []models.User
	if err := DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}
