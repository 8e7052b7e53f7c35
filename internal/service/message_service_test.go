package service

import (
	"campuswell_backend/internal/model"
	"context"
	"testing"
	"time"

	"gorm.io/gorm"
)

func newMessageService(db *gorm.DB, extractor SignalExtractor, narrator NarrativeGenerator) *MessageService {
	return NewMessageService(
		newProcessor(db, extractor),
		newTemporalService(db),
		newAlertService(db),
		newCrisisService(db, narrator),
	)
}

func TestHandleIncomingCrisisFlow(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := newMessageService(db,
		&fakeExtractor{signals: &model.MessageSignals{Sentiment: -0.8, HopelessnessScore: 0.9, WordCount: 8}},
		&fakeNarrator{narrative: "Crisis summary."})

	result, err := svc.HandleIncoming(context.Background(), student.ID,
		"I feel like there is no reason to live", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.CrisisTriggered {
		t.Fatal("crisis phrase must trigger the protocol")
	}
	if len(result.Alerts) == 0 {
		t.Fatal("a crisis must raise an alert")
	}
	if result.Alerts[0].AlertType != model.AlertImmediate {
		t.Fatalf("expected IMMEDIATE alert, got %s", result.Alerts[0].AlertType)
	}
	if result.CrisisReportID == nil {
		t.Fatal("a crisis must produce a report")
	}

	var report model.CrisisReport
	if err := db.First(&report, *result.CrisisReportID).Error; err != nil {
		t.Fatalf("report row missing: %v", err)
	}
	if report.StudentID != student.ID {
		t.Fatalf("report attributed to wrong student: %d", report.StudentID)
	}
}

func TestHandleIncomingFirstMessageTolerated(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := newMessageService(db,
		&fakeExtractor{signals: benignSignals()},
		&fakeNarrator{narrative: "unused"})

	// A single risk point is not enough for pattern analysis; the
	// message must still go through.
	result, err := svc.HandleIncoming(context.Background(), student.ID,
		"settling into the semester", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Analysis == nil || result.Profile == nil {
		t.Fatal("analysis and profile must exist for the first message")
	}
	if len(result.Patterns) != 0 {
		t.Fatalf("no patterns expected for a single point, got %d", len(result.Patterns))
	}
	if len(result.Alerts) != 0 {
		t.Fatalf("benign message must not alert, got %d", len(result.Alerts))
	}
}
