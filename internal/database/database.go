package database

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/avoronova/fieldpulse-api/internal/config"
	"github.com/avoronova/fieldpulse-api/internal/models"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	var dialector gorm.Dialector

	// Use PostgreSQL if URL starts with postgres, otherwise SQLite
	if strings.HasPrefix(cfg.DatabaseURL, "postgres") {
		dialector = postgres.Open(cfg.DatabaseURL)
	} else {
		dialector = sqlite.Open(cfg.DatabaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}

	DB = db
	return nil
}

func Migrate() error {
	return DB.AutoMigrate(
		&models.User{},
		&models.Report{},
		&models.TeamSummary{},
		&models.Goal{},
		&models.Question{},
		&models.ProductOption{},
		&models.TeamLead{},
		&models.Setting{},
		&models.Notification{},
	)
}

// defaultQuestions seeds the questionnaire on first run. Keys are stable
// identifiers used by stored payloads and goal metrics; text is what agents
// see and admins edit.
var defaultQuestions = []models.Question{
	{Key: "meetings", Text: "1. Встречи - (шт):"},
	{Key: "meetings_ca", Text: "2. Встречи ЦА - (шт):"},
	{Key: "meetings_stars", Text: "3. Встречи 0-2 звезды - (шт):"},
	{Key: "meetings_recorded", Text: "4. Запись встреч - (шт):"},
	{Key: "knk_opened", Text: "5. Открыто КНК - (шт):"},
	{Key: "fckp_realized", Text: "6. Реализовано ФЦКП - (шт):"},
	{Key: "leasing_leads", Text: "7. Лизинг передано лидов - (шт):"},
	{Key: "credit_potential", Text: "8. Расчет кредитного потенциала - (шт):"},
	{Key: "credits_issued_mln", Text: "9. Кредитов заведено - (млн):"},
	{Key: "otr", Text: "10. ОТР - (шт):"},
	{Key: "pu", Text: "11. ПУ - (шт):"},
	{Key: "chats", Text: "12. Чатов - (шт):"},
	{Key: "calls", Text: "13. Количество звонков - (шт):"},
	{Key: "new_recipients", Text: "14. Количество новых получателей ЗП - (шт):"},
	{Key: "callbacks", Text: "15. Обратные звонки - (шт):"},
}

var defaultProducts = []string{"ТЭ", "ЗП", "БК", "БГ", "РКО"}

// Seed fills empty questionnaire/product tables with defaults and stores
// bcrypt hashes for the admin and teamlead passwords when none are set yet.
func Seed(cfg *config.Config) error {
	var count int64
	DB.Model(&models.Question{}).Count(&count)
	if count == 0 {
		for i := range defaultQuestions {
			q := defaultQuestions[i]
			q.Position = i
			if err := DB.Create(&q).Error; err != nil {
				return err
			}
		}
	}

	DB.Model(&models.ProductOption{}).Count(&count)
	if count == 0 {
		for i, name := range defaultProducts {
			if err := DB.Create(&models.ProductOption{Name: name, Position: i}).Error; err != nil {
				return err
			}
		}
	}

	if err := seedPassword(models.SettingAdminPasswordHash, cfg.AdminPassword); err != nil {
		return err
	}
	if err := seedPassword(models.SettingTeamLeadPasswordHash, cfg.TeamLeadPassword); err != nil {
		return err
	}
	return nil
}

func seedPassword(key, plaintext string) error {
	if plaintext == "" {
		return nil
	}
	var setting models.Setting
	if err := DB.First(&setting, "key = ?", key).Error; err == nil {
		return nil // already configured, env value is only the initial seed
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return DB.Create(&models.Setting{Key: key, Value: string(hash)}).Error
}

// GetSetting returns a setting value, or fallback when the key is absent.
func GetSetting(key, fallback string) string {
	var setting models.Setting
	if err := DB.First(&setting, "key = ?", key).Error; err != nil {
		return fallback
	}
	return setting.Value
}

// SetSetting upserts a setting row.
func SetSetting(key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	return DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
}
