package service

import (
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/repository"
	"context"
	"testing"
	"time"

	"gorm.io/gorm"
)

func newOutcomeService(db *gorm.DB) *OutcomeService {
	return NewOutcomeService(
		db,
		nil, // sweeps run unlocked without redis
		repository.NewAlertRepository(db),
		repository.NewOutcomeRepository(db),
		testOutcomeConfig(),
	)
}

// seedSweepAlert creates an alert dated exactly LagDays ago so the next
// sweep picks it up.
func seedSweepAlert(t *testing.T, db *gorm.DB, studentID uint) *model.Alert {
	t.Helper()
	alert := &model.Alert{
		StudentID: studentID,
		AlertType: model.AlertUrgent,
		Status:    model.AlertPending,
		Message:   "High risk detected",
	}
	alert.CreatedAt = time.Now().AddDate(0, 0, -testOutcomeConfig().LagDays)
	if err := db.Create(alert).Error; err != nil {
		t.Fatalf("failed to seed alert: %v", err)
	}
	return alert
}

func seedPHQ9(t *testing.T, db *gorm.DB, studentID uint, score int, completedAt time.Time) {
	t.Helper()
	a := &model.Assessment{
		StudentID:      studentID,
		AssessmentType: model.AssessmentPHQ9,
		Score:          score,
		Severity:       model.ScoreSeverity(model.AssessmentPHQ9, score),
		CompletedAt:    completedAt,
	}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("failed to seed assessment: %v", err)
	}
}

func TestSweepMeasuresSignificantImprovement(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := newOutcomeService(db)

	alert := seedSweepAlert(t, db, student.ID)
	seedPHQ9(t, db, student.ID, 18, alert.CreatedAt.AddDate(0, 0, -2))
	seedPHQ9(t, db, student.ID, 14, alert.CreatedAt.AddDate(0, 0, 12))

	stats, err := svc.RunSweep(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if stats.Examined != 1 || stats.Processed != 1 {
		t.Fatalf("expected 1 examined and processed, got %+v", stats)
	}

	var outcome model.InterventionOutcome
	if err := db.Where("alert_id = ?", alert.ID).First(&outcome).Error; err != nil {
		t.Fatalf("outcome row missing: %v", err)
	}
	if outcome.Outcome != model.OutcomeImproved {
		t.Fatalf("expected improved, got %s", outcome.Outcome)
	}
	if outcome.ImprovementDelta == nil || *outcome.ImprovementDelta != 4 {
		t.Fatalf("expected improvement 4, got %+v", outcome.ImprovementDelta)
	}
	if !outcome.Significant {
		t.Fatal("a 4-point PHQ-9 drop is clinically significant")
	}
}

func TestSweepSmallChangeIsUnchanged(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := newOutcomeService(db)

	alert := seedSweepAlert(t, db, student.ID)
	seedPHQ9(t, db, student.ID, 18, alert.CreatedAt.AddDate(0, 0, -1))
	seedPHQ9(t, db, student.ID, 17, alert.CreatedAt.AddDate(0, 0, 11))

	if _, err := svc.RunSweep(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	var outcome model.InterventionOutcome
	if err := db.Where("alert_id = ?", alert.ID).First(&outcome).Error; err != nil {
		t.Fatalf("outcome row missing: %v", err)
	}
	if outcome.Outcome != model.OutcomeUnchanged {
		t.Fatalf("expected unchanged, got %s", outcome.Outcome)
	}
	if outcome.Significant {
		t.Fatal("a 1-point drop is not significant")
	}
}

func TestSweepWorsening(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := newOutcomeService(db)

	alert := seedSweepAlert(t, db, student.ID)
	seedPHQ9(t, db, student.ID, 10, alert.CreatedAt.AddDate(0, 0, -1))
	seedPHQ9(t, db, student.ID, 16, alert.CreatedAt.AddDate(0, 0, 14))

	if _, err := svc.RunSweep(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	var outcome model.InterventionOutcome
	if err := db.Where("alert_id = ?", alert.ID).First(&outcome).Error; err != nil {
		t.Fatalf("outcome row missing: %v", err)
	}
	if outcome.Outcome != model.OutcomeWorsened {
		t.Fatalf("expected worsened, got %s", outcome.Outcome)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := newOutcomeService(db)

	alert := seedSweepAlert(t, db, student.ID)
	seedPHQ9(t, db, student.ID, 18, alert.CreatedAt.AddDate(0, 0, -2))
	seedPHQ9(t, db, student.ID, 14, alert.CreatedAt.AddDate(0, 0, 12))

	if _, err := svc.RunSweep(context.Background()); err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}
	if _, err := svc.RunSweep(context.Background()); err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}

	var count int64
	db.Model(&model.InterventionOutcome{}).Where("alert_id = ?", alert.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected a single outcome row after two sweeps, got %d", count)
	}
}

func TestSweepSkipsAlertsWithMissingData(t *testing.T) {
	db := setupTestDB(t)
	svc := newOutcomeService(db)

	// No assessments at all.
	noBaseline := createTestStudent(t, db)
	seedSweepAlert(t, db, noBaseline.ID)

	// Baseline exists but no follow-up in the window.
	noFollowup := createTestStudent(t, db)
	alert := seedSweepAlert(t, db, noFollowup.ID)
	seedPHQ9(t, db, noFollowup.ID, 12, alert.CreatedAt.AddDate(0, 0, -3))

	stats, err := svc.RunSweep(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if stats.Examined != 2 {
		t.Fatalf("expected 2 examined, got %d", stats.Examined)
	}
	if stats.SkippedNoBaseline != 1 || stats.SkippedNoFollowup != 1 {
		t.Fatalf("skip counters wrong: %+v", stats)
	}
	if stats.Processed != 0 {
		t.Fatalf("nothing should have been processed, got %d", stats.Processed)
	}

	var count int64
	db.Model(&model.InterventionOutcome{}).Count(&count)
	if count != 0 {
		t.Fatalf("skipped alerts must leave no outcome rows, got %d", count)
	}
}

func TestSweepIgnoresAlertsOutsideLagDay(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := newOutcomeService(db)

	alert := &model.Alert{
		StudentID: student.ID,
		AlertType: model.AlertRoutine,
		Status:    model.AlertPending,
		Message:   "too recent for the sweep",
	}
	alert.CreatedAt = time.Now().AddDate(0, 0, -3)
	if err := db.Create(alert).Error; err != nil {
		t.Fatalf("failed to seed alert: %v", err)
	}

	stats, err := svc.RunSweep(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if stats.Examined != 0 {
		t.Fatalf("expected the recent alert to be ignored, got %d examined", stats.Examined)
	}
}

func TestSummaryComputesLift(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := newOutcomeService(db)

	delta := 5
	for i, verdict := range []string{model.OutcomeImproved, model.OutcomeImproved, model.OutcomeUnchanged, model.OutcomeWorsened} {
		alert := &model.Alert{
			StudentID: student.ID,
			AlertType: model.AlertUrgent,
			Status:    model.AlertReviewed,
			Message:   "lift fixture",
		}
		alert.CreatedAt = time.Now().AddDate(0, 0, -20-i)
		if err := db.Create(alert).Error; err != nil {
			t.Fatalf("failed to seed alert: %v", err)
		}
		outcome := &model.InterventionOutcome{
			AlertID:          alert.ID,
			StudentID:        student.ID,
			Outcome:          verdict,
			ImprovementDelta: &delta,
			Significant:      verdict == model.OutcomeImproved,
			CheckedAt:        time.Now(),
		}
		if err := db.Create(outcome).Error; err != nil {
			t.Fatalf("failed to seed outcome: %v", err)
		}
	}

	summary, err := svc.Summary()
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.Total != 4 {
		t.Fatalf("expected 4 outcomes, got %d", summary.Total)
	}
	if summary.ImprovedRate != 0.5 {
		t.Fatalf("expected improved rate 0.5, got %v", summary.ImprovedRate)
	}
	if summary.SystemLift != 0.5-BaselineEngagementRate {
		t.Fatalf("expected lift %v, got %v", 0.5-BaselineEngagementRate, summary.SystemLift)
	}
}

func TestSweepFillsHorizonFields(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := newOutcomeService(db)

	alert := seedSweepAlert(t, db, student.ID)
	seedPHQ9(t, db, student.ID, 18, alert.CreatedAt.AddDate(0, 0, -2))
	seedPHQ9(t, db, student.ID, 14, alert.CreatedAt.AddDate(0, 0, 11))
	seedPHQ9(t, db, student.ID, 12, alert.CreatedAt.AddDate(0, 0, 13))

	analytics := &model.CrisisAnalytics{
		StudentID:   student.ID,
		TriggeredAt: alert.CreatedAt.AddDate(0, 0, 5),
		TriggerType: "keyword",
	}
	if err := db.Create(analytics).Error; err != nil {
		t.Fatalf("failed to seed crisis analytics: %v", err)
	}
	report := &model.CrisisReport{AnalyticsID: analytics.ID, StudentID: student.ID, Narrative: "follow-up"}
	if err := db.Create(report).Error; err != nil {
		t.Fatalf("failed to seed crisis report: %v", err)
	}

	if _, err := svc.RunSweep(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	var outcome model.InterventionOutcome
	if err := db.Where("alert_id = ?", alert.ID).First(&outcome).Error; err != nil {
		t.Fatalf("outcome row missing: %v", err)
	}
	if outcome.TrajectorySlope == nil || *outcome.TrajectorySlope != -2 {
		t.Fatalf("expected trajectory slope -2, got %+v", outcome.TrajectorySlope)
	}
	if outcome.SustainedImprovement == nil || !*outcome.SustainedImprovement {
		t.Fatal("improvement with a falling trajectory is sustained")
	}
	if outcome.SubsequentCrisisCount == nil || *outcome.SubsequentCrisisCount != 1 {
		t.Fatalf("expected 1 subsequent crisis, got %+v", outcome.SubsequentCrisisCount)
	}
	if outcome.StillEnrolledNextSemester != nil {
		t.Fatal("enrollment is recorded by reconciliation, not the sweep")
	}
}
