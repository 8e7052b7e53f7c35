package service

import (
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/repository"
	"context"
	"testing"
	"time"

	"gorm.io/gorm"
)

func newProcessor(db *gorm.DB, extractor SignalExtractor) *SequentialProcessor {
	return NewSequentialProcessor(
		extractor,
		repository.NewStudentRepository(db),
		repository.NewAnalysisRepository(db),
		newRiskCalculator(db),
		testRiskConfig(),
	)
}

func TestCrisisKeywordTriggersProtocol(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	proc := newProcessor(db, &fakeExtractor{signals: benignSignals()})

	result, err := proc.Process(context.Background(), student.ID,
		"some days I just want to die", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.CrisisTriggered {
		t.Fatal("crisis phrase must trigger the protocol")
	}
	if !result.Analysis.CrisisDetected {
		t.Fatal("analysis row must record the crisis")
	}
	if result.ScreenTriggered {
		t.Fatal("crisis bypasses the screening tier")
	}
	if result.Profile == nil {
		t.Fatal("risk is still computed during a crisis")
	}
	if result.Profile.RiskScore < model.RiskNumeric(model.RiskHigh) {
		t.Fatalf("crisis must force at least HIGH, got %v", result.Profile.RiskScore)
	}

	for _, name := range result.Analysis.Trace.Completed {
		if name == CheckpointScreenTrigger {
			t.Fatal("screen_trigger must be skipped during a crisis")
		}
	}
}

func TestExtractorFailureDegradesGracefully(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	proc := newProcessor(db, &fakeExtractor{err: errExtractorDown})

	result, err := proc.Process(context.Background(), student.ID,
		"rough week but hanging in there", time.Now())
	if err != nil {
		t.Fatalf("pipeline must survive an extractor outage: %v", err)
	}

	trace := result.Analysis.Trace
	if trace.FailedAt != CheckpointExtractSignals {
		t.Fatalf("expected failure at %s, got %q", CheckpointExtractSignals, trace.FailedAt)
	}
	if trace.Error == "" {
		t.Fatal("failure reason must be recorded")
	}
	// Local heuristics still populate the cheap fields.
	if result.Analysis.Signals.WordCount != 6 {
		t.Fatalf("expected local word count 6, got %d", result.Analysis.Signals.WordCount)
	}
	if result.Profile == nil {
		t.Fatal("risk computation must still run on degraded signals")
	}

	var count int64
	db.Model(&model.MessageAnalysis{}).Count(&count)
	if count != 1 {
		t.Fatalf("analysis must be persisted despite the outage, got %d rows", count)
	}
}

func TestCrisisDetectionSurvivesExtractorOutage(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	proc := newProcessor(db, &fakeExtractor{err: errExtractorDown})

	result, err := proc.Process(context.Background(), student.ID,
		"I can't do this anymore, I want to end it all", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.CrisisTriggered {
		t.Fatal("keyword matching is local and must fire without the extractor")
	}
}

func TestMessageTextStoredWithHash(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	proc := newProcessor(db, &fakeExtractor{signals: benignSignals()})

	text := "feeling a bit overwhelmed by finals"
	result, err := proc.Process(context.Background(), student.ID, text, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Analysis.MessageText != text {
		t.Fatalf("analysis row must keep the message text, got %q", result.Analysis.MessageText)
	}
	if len(result.Analysis.ContentHash) != 64 {
		t.Fatalf("expected a sha256 hex digest, got %q", result.Analysis.ContentHash)
	}
}

func TestBaselineEstablishedAfterMinSessions(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	proc := newProcessor(db, &fakeExtractor{signals: benignSignals()})

	studentRepo := repository.NewStudentRepository(db)
	texts := []string{
		"first day went fine",
		"classes are picking up",
		"study group was helpful",
	}
	for i, text := range texts {
		if _, err := proc.Process(context.Background(), student.ID, text, time.Now()); err != nil {
			t.Fatalf("message %d failed: %v", i, err)
		}
		reloaded, err := studentRepo.FindByID(student.ID)
		if err != nil {
			t.Fatalf("reload failed: %v", err)
		}
		wantEstablished := i+1 >= testRiskConfig().BaselineMinSessions
		if reloaded.Baseline.Established != wantEstablished {
			t.Fatalf("after %d messages established=%v, want %v",
				i+1, reloaded.Baseline.Established, wantEstablished)
		}
	}

	reloaded, _ := studentRepo.FindByID(student.ID)
	if reloaded.Baseline.SessionCount != 3 {
		t.Fatalf("expected 3 observed sessions, got %d", reloaded.Baseline.SessionCount)
	}
}

func TestScreenTriggerHonorsCooldown(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	proc := newProcessor(db, &fakeExtractor{signals: &model.MessageSignals{
		Sentiment:         -0.4,
		HopelessnessScore: 0.8,
		WordCount:         10,
	}})

	first, err := proc.Process(context.Background(), student.ID,
		"nothing seems to matter lately", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.ScreenTriggered {
		t.Fatal("high hopelessness must recommend a screening")
	}

	second, err := proc.Process(context.Background(), student.ID,
		"still feel like nothing matters", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ScreenTriggered {
		t.Fatal("a second screening inside the cooldown must be suppressed")
	}
}

func TestExtractorIntentFlagTriggersProtocol(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)

	signals := benignSignals()
	signals.SafetyFlags = []string{"student expresses wanting to end my life"}
	proc := newProcessor(db, &fakeExtractor{signals: signals})

	// Neutral wording that the local phrase list cannot catch.
	result, err := proc.Process(context.Background(), student.ID,
		"things have been getting too heavy to carry lately", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.CrisisTriggered {
		t.Fatal("extractor intent flag must trigger the protocol")
	}
	if !result.Analysis.CrisisDetected {
		t.Fatal("analysis row must record the crisis")
	}
	if result.Profile.RiskLevel != model.RiskCrisis {
		t.Fatalf("intent flag must escalate to CRISIS, got %s", result.Profile.RiskLevel)
	}
}

func TestProfileBackLinksToAnalysis(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	proc := newProcessor(db, &fakeExtractor{signals: benignSignals()})

	result, err := proc.Process(context.Background(), student.ID, "regular check-in", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var stored model.RiskProfile
	if err := db.First(&stored, result.Profile.ID).Error; err != nil {
		t.Fatalf("profile row missing: %v", err)
	}
	if stored.SourceAnalysisID == nil || *stored.SourceAnalysisID != result.Analysis.ID {
		t.Fatalf("profile must back-link its analysis, got %+v", stored.SourceAnalysisID)
	}
}
