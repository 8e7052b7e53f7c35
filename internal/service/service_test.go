package service

import (
	"campuswell_backend/internal/config"
	"campuswell_backend/internal/model"
	"campuswell_backend/pkg/database"
	"campuswell_backend/pkg/logger"
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.InitTestLogger()
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

func testRiskConfig() config.RiskConfig {
	return config.RiskConfig{
		BaselineMinSessions: 3,
		ScreenCooldownDays:  7,
		TemporalWindowDays:  30,
		RecentAssessments:   5,
	}
}

func testOutcomeConfig() config.OutcomeConfig {
	return config.OutcomeConfig{
		LagDays:           14,
		FollowupMinDays:   10,
		FollowupMaxDays:   30,
		ImprovementPoints: 3,
		RunIntervalHours:  24,
		LockTTLMinutes:    60,
	}
}

func createTestStudent(t *testing.T, db *gorm.DB) *model.Student {
	t.Helper()
	user := &model.User{
		Username:     "s-" + model.GenerateUUID()[:8],
		Email:        model.GenerateUUID()[:8] + "@campus.test",
		PasswordHash: "x",
		Role:         model.RoleStudent,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	student := &model.Student{
		UserID:     user.ID,
		ExternalID: model.GenerateUUID(),
	}
	if err := db.Create(student).Error; err != nil {
		t.Fatalf("failed to create student: %v", err)
	}
	return student
}

// fakeExtractor returns canned signals or a canned error.
type fakeExtractor struct {
	signals *model.MessageSignals
	err     error
}

func (f *fakeExtractor) ExtractSignals(_ context.Context, _ string) (*model.MessageSignals, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.signals
	return &out, nil
}

// fakeNarrator returns a canned narrative or fails.
type fakeNarrator struct {
	narrative string
	err       error
}

func (f *fakeNarrator) GenerateNarrative(_ context.Context, _, _ string, _ int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.narrative, nil
}

var errExtractorDown = errors.New("extractor unavailable")
