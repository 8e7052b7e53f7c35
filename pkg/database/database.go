package database

import (
	"campuswell_backend/internal/config"
	"campuswell_backend/internal/model"
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the schema for every persisted entity.
// Append-only tables (message analyses, risk profiles, temporal patterns,
// crisis snapshots and reports) never receive UPDATEs from application code.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Student{},
		&model.MessageAnalysis{},
		&model.RiskProfile{},
		&model.TemporalPattern{},
		&model.Alert{},
		&model.Assessment{},
		&model.InterventionOutcome{},
		&model.CrisisAnalytics{},
		&model.CrisisReport{},
		&model.CounselorFeedback{},
		&model.VoiceNote{},
	)
}
