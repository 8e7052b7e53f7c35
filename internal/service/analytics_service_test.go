package service

import (
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/repository"
	"testing"
	"time"

	"gorm.io/gorm"
)

func newAnalyticsService(db *gorm.DB) *AnalyticsService {
	return NewAnalyticsService(
		repository.NewRiskRepository(db),
		repository.NewAlertRepository(db),
		repository.NewStudentRepository(db),
		repository.NewAnalysisRepository(db),
		repository.NewAssessmentRepository(db),
		repository.NewCrisisRepository(db),
		newOutcomeService(db),
		NewFeedbackService(repository.NewFeedbackRepository(db), repository.NewAlertRepository(db)),
	)
}

func TestWellnessTrendsMapsRiskToWellness(t *testing.T) {
	db := setupTestDB(t)
	svc := newAnalyticsService(db)

	low := createTestStudent(t, db)
	crisis := createTestStudent(t, db)
	now := time.Now()
	for _, seed := range []struct {
		studentID uint
		level     string
		score     float64
	}{
		{low.ID, model.RiskLow, 0.1},
		{crisis.ID, model.RiskCrisis, 0.95},
	} {
		profile := &model.RiskProfile{
			StudentID:  seed.studentID,
			RiskLevel:  seed.level,
			RiskScore:  seed.score,
			Confidence: 0.9,
			AssessedAt: now,
		}
		if err := db.Create(profile).Error; err != nil {
			t.Fatalf("failed to seed profile: %v", err)
		}
	}
	seedPHQ9(t, db, low.ID, 4, now)

	points, err := svc.WellnessTrends(30)
	if err != nil {
		t.Fatalf("wellness trends failed: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 daily point, got %d", len(points))
	}
	// LOW maps to 85, CRISIS to 15; the day averages to 50.
	if points[0].Overall != 50 {
		t.Fatalf("expected average wellness 50, got %v", points[0].Overall)
	}
	if points[0].AssessmentCount != 1 {
		t.Fatalf("expected 1 assessment that day, got %d", points[0].AssessmentCount)
	}
}

func TestAdminStatsCounts(t *testing.T) {
	db := setupTestDB(t)
	svc := newAnalyticsService(db)

	student := createTestStudent(t, db)
	if err := db.Create(&model.MessageAnalysis{
		StudentID:        student.ID,
		MessageTimestamp: time.Now(),
	}).Error; err != nil {
		t.Fatalf("failed to seed analysis: %v", err)
	}
	seedPHQ9(t, db, student.ID, 12, time.Now())
	if err := db.Create(&model.RiskProfile{
		StudentID:  student.ID,
		RiskLevel:  model.RiskHigh,
		RiskScore:  0.7,
		Confidence: 0.9,
		AssessedAt: time.Now(),
	}).Error; err != nil {
		t.Fatalf("failed to seed profile: %v", err)
	}

	stats, err := svc.AdminStats()
	if err != nil {
		t.Fatalf("admin stats failed: %v", err)
	}
	if stats.TotalStudents != 1 {
		t.Fatalf("expected 1 student, got %d", stats.TotalStudents)
	}
	if stats.MessagesAnalyzed != 1 {
		t.Fatalf("expected 1 analysis, got %d", stats.MessagesAnalyzed)
	}
	if stats.AssessmentCount != 1 {
		t.Fatalf("expected 1 assessment, got %d", stats.AssessmentCount)
	}
	if stats.HighRiskStudents != 1 {
		t.Fatalf("expected 1 high-risk student, got %d", stats.HighRiskStudents)
	}
}
