package service

import (
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"
)

func newCrisisService(db *gorm.DB, narrator NarrativeGenerator) *CrisisService {
	return NewCrisisService(
		repository.NewCrisisRepository(db),
		repository.NewAnalysisRepository(db),
		repository.NewRiskRepository(db),
		repository.NewAssessmentRepository(db),
		repository.NewTemporalRepository(db),
		repository.NewStudentRepository(db),
		narrator,
	)
}

func seedCrisisHistory(t *testing.T, db *gorm.DB, studentID uint) {
	t.Helper()
	now := time.Now()
	for i, sentiment := range []float64{-0.7, -0.8, -0.9} {
		analysis := &model.MessageAnalysis{
			StudentID:        studentID,
			MessageTimestamp: now.Add(-time.Duration(3-i) * time.Hour),
			MessageText:      fmt.Sprintf("message %d about a rough week", i+1),
			ContentHash:      model.GenerateUUID(),
			Signals:          model.MessageSignals{Sentiment: sentiment},
			CrisisDetected:   i == 2,
		}
		if err := db.Create(analysis).Error; err != nil {
			t.Fatalf("failed to seed analysis: %v", err)
		}
	}
	profile := &model.RiskProfile{
		StudentID:  studentID,
		RiskLevel:  model.RiskCrisis,
		RiskScore:  0.9,
		Confidence: 0.9,
		AssessedAt: now,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("failed to seed profile: %v", err)
	}
	assessment := &model.Assessment{
		StudentID:      studentID,
		AssessmentType: model.AssessmentPHQ9,
		Score:          22,
		Severity:       model.ScoreSeverity(model.AssessmentPHQ9, 22),
		CompletedAt:    now.Add(-24 * time.Hour),
	}
	if err := db.Create(assessment).Error; err != nil {
		t.Fatalf("failed to seed assessment: %v", err)
	}
}

func TestCollectBuildsReportFromHistory(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	seedCrisisHistory(t, db, student.ID)
	svc := newCrisisService(db, &fakeNarrator{narrative: "Student reported acute distress."})

	report, err := svc.Collect(context.Background(), student.ID, "crisis_protocol")
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if report.NarrativeFallback {
		t.Fatal("narrative succeeded, fallback must not be flagged")
	}
	if report.Narrative != "Student reported acute distress." {
		t.Fatalf("unexpected narrative: %q", report.Narrative)
	}
	if len(report.KeyFindings) == 0 {
		t.Fatal("expected structured findings")
	}
	if len(report.RecommendedActions) == 0 {
		t.Fatal("expected recommended actions")
	}

	found := false
	for _, f := range report.KeyFindings {
		if strings.Contains(f, model.RiskCrisis) {
			found = true
		}
	}
	if !found {
		t.Fatalf("findings must name the current risk level: %v", report.KeyFindings)
	}

	var analytics model.CrisisAnalytics
	if err := db.First(&analytics, report.AnalyticsID).Error; err != nil {
		t.Fatalf("snapshot row missing: %v", err)
	}
	if analytics.Snapshot.AnalysisCount != 3 {
		t.Fatalf("expected 3 analyses in snapshot, got %d", analytics.Snapshot.AnalysisCount)
	}
	if analytics.Snapshot.CrisisKeywordHits != 1 {
		t.Fatalf("expected 1 crisis keyword hit, got %d", analytics.Snapshot.CrisisKeywordHits)
	}
	if len(analytics.Snapshot.RecentMessages) != 3 {
		t.Fatalf("snapshot must carry the recent message texts, got %d", len(analytics.Snapshot.RecentMessages))
	}
	if !strings.Contains(analytics.Snapshot.RecentMessages[0], "rough week") {
		t.Fatalf("unexpected snapshot message: %q", analytics.Snapshot.RecentMessages[0])
	}
}

func TestCollectSurvivesNarrativeFailure(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	seedCrisisHistory(t, db, student.ID)
	svc := newCrisisService(db, &fakeNarrator{err: errors.New("llm timeout")})

	report, err := svc.Collect(context.Background(), student.ID, "crisis_protocol")
	if err != nil {
		t.Fatalf("narrative failure must not lose the report: %v", err)
	}
	if !report.NarrativeFallback {
		t.Fatal("fallback flag must be set")
	}
	if report.Narrative == "" {
		t.Fatal("fallback narrative must not be empty")
	}
	if len(report.KeyFindings) == 0 {
		t.Fatal("rule-derived findings are computed before the narrative call")
	}

	var count int64
	db.Model(&model.CrisisReport{}).Count(&count)
	if count != 1 {
		t.Fatalf("report row must be persisted, got %d", count)
	}
}

func TestCollectWithEmptyHistory(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := newCrisisService(db, &fakeNarrator{narrative: "summary"})

	report, err := svc.Collect(context.Background(), student.ID, "manual")
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if len(report.KeyFindings) == 0 {
		t.Fatal("even an empty history yields a placeholder finding")
	}
}
