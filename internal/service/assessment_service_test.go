package service

import (
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/repository"
	"campuswell_backend/internal/util"
	"errors"
	"testing"
	"time"
)

func TestSubmitScoresInstrument(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := NewAssessmentService(repository.NewAssessmentRepository(db), repository.NewRiskRepository(db))

	phq9, err := svc.Submit(student.ID, SubmitAssessmentRequest{
		AssessmentType: model.AssessmentPHQ9,
		Answers:        []int{3, 3, 3, 3, 3, 2, 2, 2, 0},
		TriggerSource:  "screen_trigger",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if phq9.Score != 21 {
		t.Fatalf("expected score 21, got %d", phq9.Score)
	}
	if phq9.Severity != model.SeveritySevere {
		t.Fatalf("expected SEVERE, got %s", phq9.Severity)
	}

	gad7, err := svc.Submit(student.ID, SubmitAssessmentRequest{
		AssessmentType: model.AssessmentGAD7,
		Answers:        []int{2, 2, 2, 2, 2, 1, 1},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if gad7.Score != 12 || gad7.Severity != model.SeverityModerate {
		t.Fatalf("expected 12/MODERATE, got %d/%s", gad7.Score, gad7.Severity)
	}

	cssrs, err := svc.Submit(student.ID, SubmitAssessmentRequest{
		AssessmentType: model.AssessmentCSSRS,
		Answers:        []int{1, 1, 1, 0, 0, 0},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if cssrs.Severity != model.SeverityHighRisk {
		t.Fatalf("expected HIGH_RISK, got %s", cssrs.Severity)
	}
}

func TestSubmitValidatesShape(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := NewAssessmentService(repository.NewAssessmentRepository(db), repository.NewRiskRepository(db))

	cases := []struct {
		name string
		req  SubmitAssessmentRequest
		want error
	}{
		{"unknown instrument", SubmitAssessmentRequest{
			AssessmentType: "BDI-II",
			Answers:        []int{0, 0, 0},
		}, util.ErrInvalidAssessmentType},
		{"wrong answer count", SubmitAssessmentRequest{
			AssessmentType: model.AssessmentPHQ9,
			Answers:        []int{1, 1, 1},
		}, util.ErrInvalidAnswerCount},
		{"answer above item max", SubmitAssessmentRequest{
			AssessmentType: model.AssessmentCSSRS,
			Answers:        []int{0, 0, 0, 0, 0, 2},
		}, util.ErrInvalidAnswerCount},
		{"negative answer", SubmitAssessmentRequest{
			AssessmentType: model.AssessmentGAD7,
			Answers:        []int{0, 0, 0, -1, 0, 0, 0},
		}, util.ErrInvalidAnswerCount},
	}
	for _, tc := range cases {
		if _, err := svc.Submit(student.ID, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	var count int64
	db.Model(&model.Assessment{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected submissions must not persist, got %d rows", count)
	}
}

func TestShortScreenEscalation(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := NewAssessmentService(repository.NewAssessmentRepository(db), repository.NewRiskRepository(db))

	positive, err := svc.Submit(student.ID, SubmitAssessmentRequest{
		AssessmentType: model.AssessmentPHQ2,
		Answers:        []int{2, 2},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if positive.Severity != model.SeverityPositiveScreen {
		t.Fatalf("expected POSITIVE_SCREEN, got %s", positive.Severity)
	}
	if target := EscalationTarget(positive); target != model.AssessmentPHQ9 {
		t.Fatalf("a positive PHQ-2 must escalate to PHQ-9, got %q", target)
	}

	negative, err := svc.Submit(student.ID, SubmitAssessmentRequest{
		AssessmentType: model.AssessmentGAD2,
		Answers:        []int{1, 1},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if target := EscalationTarget(negative); target != "" {
		t.Fatalf("a negative screen must not escalate, got %q", target)
	}
}

func TestCSSRSTriggerCheck(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := NewAssessmentService(repository.NewAssessmentRepository(db), repository.NewRiskRepository(db))

	quiet, err := svc.CSSRSTriggerCheck(student.ID)
	if err != nil {
		t.Fatalf("trigger check failed: %v", err)
	}
	if quiet.ShouldTrigger {
		t.Fatal("no history must not trigger the safety screen")
	}

	// PHQ-9 with a positive self-harm item.
	if _, err := svc.Submit(student.ID, SubmitAssessmentRequest{
		AssessmentType: model.AssessmentPHQ9,
		Answers:        []int{1, 1, 0, 0, 0, 0, 0, 0, 2},
	}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	triggered, err := svc.CSSRSTriggerCheck(student.ID)
	if err != nil {
		t.Fatalf("trigger check failed: %v", err)
	}
	if !triggered.ShouldTrigger {
		t.Fatal("a positive PHQ-9 item 9 must trigger the safety screen")
	}
	if triggered.Reason != "phq9_item9_positive" {
		t.Fatalf("unexpected reason %q", triggered.Reason)
	}
	if len(triggered.Questions) != 6 {
		t.Fatalf("expected 6 screening questions, got %d", len(triggered.Questions))
	}
}

func TestAssessmentTrajectoryDirection(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := NewAssessmentService(repository.NewAssessmentRepository(db), repository.NewRiskRepository(db))

	// Worsening: scores climb 5 points per sitting.
	for i, score := range []int{5, 10, 15} {
		seedPHQ9(t, db, student.ID, score, time.Now().AddDate(0, 0, -14+7*i))
	}
	worsening, err := svc.Trajectory(student.ID, model.AssessmentPHQ9)
	if err != nil {
		t.Fatalf("trajectory failed: %v", err)
	}
	if worsening.Direction != "worsening" {
		t.Fatalf("expected worsening, got %s", worsening.Direction)
	}
	if worsening.Slope != 5 {
		t.Fatalf("expected slope 5, got %v", worsening.Slope)
	}
	if worsening.Change != 10 {
		t.Fatalf("expected change 10, got %d", worsening.Change)
	}

	other := createTestStudent(t, db)
	for i, score := range []int{18, 12, 6} {
		seedPHQ9(t, db, other.ID, score, time.Now().AddDate(0, 0, -14+7*i))
	}
	improving, err := svc.Trajectory(other.ID, model.AssessmentPHQ9)
	if err != nil {
		t.Fatalf("trajectory failed: %v", err)
	}
	if improving.Direction != "improving" {
		t.Fatalf("expected improving, got %s", improving.Direction)
	}

	lone := createTestStudent(t, db)
	seedPHQ9(t, db, lone.ID, 9, time.Now())
	if _, err := svc.Trajectory(lone.ID, model.AssessmentPHQ9); !errors.Is(err, util.ErrInsufficientData) {
		t.Fatalf("one sitting must be insufficient, got %v", err)
	}

	unscreened := createTestStudent(t, db)
	if _, err := svc.Trajectory(unscreened.ID, model.AssessmentPHQ9); !errors.Is(err, util.ErrAssessmentNotFound) {
		t.Fatalf("no sittings must report assessment not found, got %v", err)
	}
	if _, err := svc.LatestByType(unscreened.ID, model.AssessmentPHQ9); !errors.Is(err, util.ErrAssessmentNotFound) {
		t.Fatalf("latest lookup without sittings must report not found, got %v", err)
	}
}

func TestClinicalActionMapping(t *testing.T) {
	if got := ClinicalAction(4); got != "Activate safety protocol - same-day counselor contact required" {
		t.Fatalf("unexpected action for high score: %q", got)
	}
	if got := ClinicalAction(0); got != "Continue routine monitoring" {
		t.Fatalf("unexpected action for zero score: %q", got)
	}
}
