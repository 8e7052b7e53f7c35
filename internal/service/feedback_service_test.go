package service

import (
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/repository"
	"campuswell_backend/internal/util"
	"errors"
	"testing"
)

func TestFeedbackPrecision(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	alerts := newAlertService(db)
	svc := NewFeedbackService(repository.NewFeedbackRepository(db), repository.NewAlertRepository(db))

	raised, err := alerts.RouteAssessment(crisisResult(student.ID), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	alertID := raised[0].ID

	verdicts := []string{
		model.FeedbackAccurate,
		model.FeedbackAccurate,
		model.FeedbackAccurate,
		model.FeedbackFalsePositive,
	}
	for _, v := range verdicts {
		if _, err := svc.Submit(alertID, 7, SubmitFeedbackRequest{Verdict: v}); err != nil {
			t.Fatalf("submit %s failed: %v", v, err)
		}
	}
	// missed_risk counts toward totals but not precision.
	if _, err := svc.Submit(alertID, 7, SubmitFeedbackRequest{Verdict: model.FeedbackMissedRisk}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	stats, err := svc.Precision()
	if err != nil {
		t.Fatalf("precision failed: %v", err)
	}
	if stats.Total != 5 {
		t.Fatalf("expected 5 verdicts, got %d", stats.Total)
	}
	if stats.Precision != 0.75 {
		t.Fatalf("expected precision 0.75, got %v", stats.Precision)
	}
}

func TestFeedbackValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewFeedbackService(repository.NewFeedbackRepository(db), repository.NewAlertRepository(db))

	if _, err := svc.Submit(1, 7, SubmitFeedbackRequest{Verdict: "maybe"}); err == nil {
		t.Fatal("unknown verdict must be rejected")
	}
	if _, err := svc.Submit(9999, 7, SubmitFeedbackRequest{Verdict: model.FeedbackAccurate}); !errors.Is(err, util.ErrAlertNotFound) {
		t.Fatalf("expected ErrAlertNotFound, got %v", err)
	}
}
