package service

import (
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/repository"
	"math"
	"testing"
	"time"

	"gorm.io/gorm"
)

func newRiskCalculator(db *gorm.DB) *RiskCalculator {
	return NewRiskCalculator(
		repository.NewStudentRepository(db),
		repository.NewAssessmentRepository(db),
		repository.NewTemporalRepository(db),
		repository.NewRiskRepository(db),
		testRiskConfig(),
	)
}

func benignSignals() *model.MessageSignals {
	return &model.MessageSignals{
		Sentiment: 0.4,
		WordCount: 12,
	}
}

func TestSafetyFlagForcesAtLeastHighRisk(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	calc := newRiskCalculator(db)

	profile, err := calc.Compute(student.ID, benignSignals(), true, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.RiskScore < model.RiskNumeric(model.RiskHigh) {
		t.Fatalf("safety flag must floor the score at %v, got %v",
			model.RiskNumeric(model.RiskHigh), profile.RiskScore)
	}
	if profile.RiskLevel != model.RiskHigh && profile.RiskLevel != model.RiskCrisis {
		t.Fatalf("expected at least HIGH, got %s", profile.RiskLevel)
	}
	if !profile.Factors.CrisisKeywords {
		t.Fatal("factors must record the crisis keyword flag")
	}
}

func TestAssessmentSeveritySetsScoreFloor(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	calc := newRiskCalculator(db)

	assessment := &model.Assessment{
		StudentID:      student.ID,
		AssessmentType: model.AssessmentPHQ9,
		Score:          21,
		Severity:       model.ScoreSeverity(model.AssessmentPHQ9, 21),
		CompletedAt:    time.Now().Add(-48 * time.Hour),
	}
	if err := db.Create(assessment).Error; err != nil {
		t.Fatalf("failed to seed assessment: %v", err)
	}

	profile, err := calc.Compute(student.ID, benignSignals(), false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.RiskScore < 0.8 {
		t.Fatalf("severe screening must floor the score at 0.8, got %v", profile.RiskScore)
	}
	if profile.RiskLevel != model.RiskHigh {
		t.Fatalf("expected HIGH, got %s", profile.RiskLevel)
	}
	if profile.Factors.AssessmentSeverity != model.SeveritySevere {
		t.Fatalf("expected SEVERE in factors, got %q", profile.Factors.AssessmentSeverity)
	}
}

func TestConfidenceDegradesWithMissingInputs(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	calc := newRiskCalculator(db)

	// Nil signals, no assessments, no established baseline.
	profile, err := calc.Compute(student.ID, nil, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(profile.Confidence-0.4) > 1e-9 {
		t.Fatalf("expected confidence 0.4, got %v", profile.Confidence)
	}
	if profile.RiskLevel != model.RiskLow {
		t.Fatalf("no inputs should stay LOW, got %s", profile.RiskLevel)
	}
}

func TestActivePatternScalesScore(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	calc := newRiskCalculator(db)

	pattern := &model.TemporalPattern{
		StudentID:   student.ID,
		PatternType: model.PatternRapidDeterioration,
		Confidence:  0.8,
		Multiplier:  model.PatternMultiplier(model.PatternRapidDeterioration),
		DetectedAt:  time.Now().Add(-time.Hour),
	}
	if err := db.Create(pattern).Error; err != nil {
		t.Fatalf("failed to seed pattern: %v", err)
	}

	signals := &model.MessageSignals{HopelessnessScore: 0.3, WordCount: 10}
	profile, err := calc.Compute(student.ID, signals, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Factors.PatternMultiplier != 1.8 {
		t.Fatalf("expected multiplier 1.8, got %v", profile.Factors.PatternMultiplier)
	}
	// 0.35*0.3 scaled by 1.8
	want := math.Round(0.35*0.3*1.8*1000) / 1000
	if math.Abs(profile.RiskScore-want) > 1e-9 {
		t.Fatalf("expected score %v, got %v", want, profile.RiskScore)
	}
}

func TestBaselineDeviationBoostsScore(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	calc := newRiskCalculator(db)

	// Tight positive baseline, then a sharply negative message.
	baseline := model.BaselineProfile{}
	for _, s := range []float64{0.5, 0.55, 0.45} {
		baseline.Observe(s, 20, 0, false, time.Now())
	}
	baseline.Established = true
	student.Baseline = baseline
	if err := db.Save(student).Error; err != nil {
		t.Fatalf("failed to save baseline: %v", err)
	}

	signals := &model.MessageSignals{Sentiment: -0.9, WordCount: 15}
	profile, err := calc.Compute(student.ID, signals, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Factors.DeviationWeight != 0.25 {
		t.Fatalf("expected deviation boost capped at 0.25, got %v", profile.Factors.DeviationWeight)
	}
	if profile.RiskScore <= 0.9*0.2 {
		t.Fatalf("deviation boost missing from score %v", profile.RiskScore)
	}
}

func TestCSSRSHighRiskForcesCrisis(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	calc := newRiskCalculator(db)

	assessment := &model.Assessment{
		StudentID:      student.ID,
		AssessmentType: model.AssessmentCSSRS,
		Score:          4,
		Severity:       model.ScoreSeverity(model.AssessmentCSSRS, 4),
		CompletedAt:    time.Now().Add(-time.Hour),
	}
	if err := db.Create(assessment).Error; err != nil {
		t.Fatalf("failed to seed assessment: %v", err)
	}

	profile, err := calc.Compute(student.ID, benignSignals(), false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.RiskLevel != model.RiskCrisis {
		t.Fatalf("a high-risk safety screen must force CRISIS, got %s", profile.RiskLevel)
	}
	if profile.RiskScore < 0.85 {
		t.Fatalf("expected score >= 0.85, got %v", profile.RiskScore)
	}
}

func TestSuicidalIntentFlagForcesCrisis(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	calc := newRiskCalculator(db)

	signals := benignSignals()
	signals.SafetyFlags = []string{"message mentions wanting to end my life"}

	profile, err := calc.Compute(student.ID, signals, true, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.RiskLevel != model.RiskCrisis {
		t.Fatalf("suicidal intent must force CRISIS, got %s", profile.RiskLevel)
	}
}

func TestExtractorSafetyFlagForcesHigh(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	calc := newRiskCalculator(db)

	signals := benignSignals()
	signals.SafetyFlags = []string{"possible self-harm ideation"}

	// The local keyword checkpoint did not fire; the extractor flag
	// alone must still floor the score at HIGH.
	profile, err := calc.Compute(student.ID, signals, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.RiskLevel != model.RiskHigh {
		t.Fatalf("extractor safety flag must force at least HIGH, got %s", profile.RiskLevel)
	}
	if profile.RiskScore < model.RiskNumeric(model.RiskHigh) {
		t.Fatalf("expected score >= %.2f, got %.3f", model.RiskNumeric(model.RiskHigh), profile.RiskScore)
	}
}

func TestTuningReloadIsConcurrencySafe(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	calc := newRiskCalculator(db)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			cfg := testRiskConfig()
			cfg.RecentAssessments = i%5 + 1
			calc.SetTuning(cfg)
		}
	}()
	for i := 0; i < 20; i++ {
		if _, err := calc.Compute(student.ID, benignSignals(), false, nil); err != nil {
			t.Fatalf("compute during reload failed: %v", err)
		}
	}
	<-done

	cfg := testRiskConfig()
	cfg.RecentAssessments = 2
	calc.SetTuning(cfg)
	if got := calc.tuning().RecentAssessments; got != 2 {
		t.Fatalf("expected reloaded tuning to stick, got %d", got)
	}
}
