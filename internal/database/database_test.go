package database

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/avoronova/fieldpulse-api/internal/config"
	"github.com/avoronova/fieldpulse-api/internal/models"
)

// setupTestDB opens a named in-memory database per test. cache=shared keeps
// the schema visible across pooled connections without leaking between tests.
func setupTestDB(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		DatabaseURL:      "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared",
		AdminPassword:    "admin-secret",
		TeamLeadPassword: "lead-secret",
	}
	require.NoError(t, Connect(cfg))
	require.NoError(t, Migrate())
	return cfg
}

func TestSettingsRoundTrip(t *testing.T) {
	setupTestDB(t)

	assert.Equal(t, "fallback", GetSetting("missing", "fallback"))

	require.NoError(t, SetSetting("greeting", "hello"))
	assert.Equal(t, "hello", GetSetting("greeting", ""))

	require.NoError(t, SetSetting("greeting", "updated"))
	assert.Equal(t, "updated", GetSetting("greeting", ""))
}

func TestSeedDefaultsAndPasswords(t *testing.T) {
	cfg := setupTestDB(t)
	require.NoError(t, Seed(cfg))

	var questions int64
	DB.Model(&models.Question{}).Count(&questions)
	assert.Equal(t, int64(15), questions)

	var products int64
	DB.Model(&models.ProductOption{}).Count(&products)
	assert.Equal(t, int64(5), products)

	hash := GetSetting(models.SettingAdminPasswordHash, "")
	require.NotEmpty(t, hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("admin-secret")))

	// reseeding never overwrites an existing hash
	cfg.AdminPassword = "different"
	require.NoError(t, Seed(cfg))
	assert.Equal(t, hash, GetSetting(models.SettingAdminPasswordHash, ""))

	questions = 0
	DB.Model(&models.Question{}).Count(&questions)
	assert.Equal(t, int64(15), questions)
}

func TestReportsSourceRowsInRange(t *testing.T) {
	setupTestDB(t)

	team := "Иванов"
	agentA := models.User{Role: models.RoleAgent, Name: "Анна", ManagerName: &team}
	agentB := models.User{Role: models.RoleAgent, Name: "Борис"}
	require.NoError(t, DB.Create(&agentA).Error)
	require.NoError(t, DB.Create(&agentB).Error)

	mk := func(userID uuid.UUID, date, snapshot string, meetings string) {
		r := models.Report{
			UserID:     userID,
			ReportDate: date,
			Payload: models.ReportPayload{
				Values:          map[string]string{"meetings": meetings},
				ManagerSnapshot: snapshot,
			},
		}
		require.NoError(t, DB.Create(&r).Error)
	}
	mk(agentA.ID, "2026-08-10", "", "3")
	mk(agentA.ID, "2026-08-20", "Петров", "4")
	mk(agentB.ID, "2026-08-11", "", "5")

	rows, err := Reports{}.RowsInRange("2026-08-10", "2026-08-15")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byUser := make(map[uuid.UUID]string)
	for _, row := range rows {
		byUser[row.ParticipantID] = row.CurrentManager
		assert.NotEmpty(t, row.Payload.Values["meetings"])
	}
	// current teamlead link rides along for snapshot fallback
	assert.Equal(t, "Иванов", byUser[agentA.ID])
	assert.Equal(t, "", byUser[agentB.ID])

	rows, err = Reports{}.RowsInRange("2026-09-01", "2026-09-30")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReportsSourceDisplayNames(t *testing.T) {
	setupTestDB(t)

	agent := models.User{Role: models.RoleAgent, Name: "Анна"}
	require.NoError(t, DB.Create(&agent).Error)

	names, err := Reports{}.DisplayNames([]uuid.UUID{agent.ID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, "Анна", names[agent.ID])
	assert.Len(t, names, 1)
}

func TestReportPayloadPersistsAsJSON(t *testing.T) {
	setupTestDB(t)

	realized := 2.0
	report := models.Report{
		UserID:     uuid.New(),
		ReportDate: "2026-08-10",
		Payload: models.ReportPayload{
			Values:          map[string]string{"meetings": "4,5"},
			Products:        []string{"БК", "ТЭ"},
			RealizedCount:   &realized,
			ManagerSnapshot: "Иванов",
		},
	}
	require.NoError(t, DB.Create(&report).Error)

	var loaded models.Report
	require.NoError(t, DB.First(&loaded, report.ID).Error)
	assert.Equal(t, "4,5", loaded.Payload.Values["meetings"])
	assert.Equal(t, []string{"БК", "ТЭ"}, loaded.Payload.Products)
	require.NotNil(t, loaded.Payload.RealizedCount)
	assert.Equal(t, 2.0, *loaded.Payload.RealizedCount)
	assert.Equal(t, "Иванов", loaded.Payload.ManagerSnapshot)
}
