package service

import (
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/repository"
	"campuswell_backend/internal/util"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"
)

func newTemporalService(db *gorm.DB) *TemporalService {
	return NewTemporalService(
		repository.NewRiskRepository(db),
		repository.NewAnalysisRepository(db),
		repository.NewTemporalRepository(db),
		testRiskConfig(),
	)
}

func seedRiskScores(t *testing.T, db *gorm.DB, studentID uint, scores []float64, spacing time.Duration) {
	t.Helper()
	start := time.Now().Add(-spacing * time.Duration(len(scores)-1))
	for i, score := range scores {
		profile := &model.RiskProfile{
			StudentID:  studentID,
			RiskLevel:  levelForScore(score),
			RiskScore:  score,
			Confidence: 0.9,
			AssessedAt: start.Add(spacing * time.Duration(i)),
		}
		if err := db.Create(profile).Error; err != nil {
			t.Fatalf("failed to seed risk profile: %v", err)
		}
	}
}

func TestAnalyzeInsufficientData(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := newTemporalService(db)

	seedRiskScores(t, db, student.ID, []float64{0.25}, 24*time.Hour)

	_, err := svc.Analyze(student.ID)
	if !errors.Is(err, util.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}

	var count int64
	db.Model(&model.TemporalPattern{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no pattern rows, got %d", count)
	}
}

func TestAnalyzePreDecisionCalm(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := newTemporalService(db)

	// Sustained climb to crisis followed by a sudden drop back to low.
	seedRiskScores(t, db, student.ID, []float64{0.25, 0.25, 0.25, 0.9, 0.95, 0.25}, 24*time.Hour)

	patterns, err := svc.Analyze(student.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var calm *model.TemporalPattern
	for i := range patterns {
		if patterns[i].PatternType == model.PatternPreDecisionCalm {
			calm = &patterns[i]
		}
	}
	if calm == nil {
		t.Fatalf("expected pre_decision_calm, got %v", patternTypes(patterns))
	}
	if calm.Multiplier != 2.5 {
		t.Fatalf("expected multiplier 2.5, got %v", calm.Multiplier)
	}
	if !calm.RequiresImmediateAction() {
		t.Fatal("pre_decision_calm must require immediate action")
	}
}

func TestAnalyzeRapidDeterioration(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := newTemporalService(db)

	seedRiskScores(t, db, student.ID, []float64{0.2, 0.5, 0.9}, 24*time.Hour)

	patterns, err := svc.Analyze(student.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, p := range patterns {
		if p.PatternType == model.PatternRapidDeterioration {
			found = true
			if p.Data.Velocity >= 0 {
				t.Fatalf("deterioration velocity should be negative, got %v", p.Data.Velocity)
			}
			if !p.RequiresImmediateAction() {
				t.Fatal("rapid_deterioration multiplier 1.8 must require immediate action")
			}
		}
	}
	if !found {
		t.Fatalf("expected rapid_deterioration, got %v", patternTypes(patterns))
	}
}

func TestAnalyzeChronicElevated(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := newTemporalService(db)

	seedRiskScores(t, db, student.ID, []float64{0.65, 0.7, 0.68, 0.72, 0.7}, 48*time.Hour)

	patterns, err := svc.Analyze(student.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, p := range patterns {
		if p.PatternType == model.PatternChronicElevated {
			found = true
			if p.RequiresImmediateAction() {
				t.Fatal("chronic_elevated multiplier 1.4 must not require immediate action")
			}
		}
	}
	if !found {
		t.Fatalf("expected chronic_elevated, got %v", patternTypes(patterns))
	}
}

func TestAnalyzeCyclical(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := newTemporalService(db)

	seedRiskScores(t, db, student.ID, []float64{0.25, 0.7, 0.3, 0.75, 0.25, 0.7}, 48*time.Hour)

	patterns, err := svc.Analyze(student.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, p := range patterns {
		if p.PatternType == model.PatternCyclical {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected cyclical, got %v", patternTypes(patterns))
	}
}

func TestAnalyzeStableHistoryProducesNoPattern(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := newTemporalService(db)

	seedRiskScores(t, db, student.ID, []float64{0.25, 0.25, 0.3, 0.25}, 48*time.Hour)

	patterns, err := svc.Analyze(student.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patterns) != 0 {
		t.Fatalf("expected no patterns for stable low history, got %v", patternTypes(patterns))
	}
}

func patternTypes(patterns []model.TemporalPattern) []string {
	var types []string
	for _, p := range patterns {
		types = append(types, p.PatternType)
	}
	return types
}

func TestTrajectoryTrendVerdicts(t *testing.T) {
	db := setupTestDB(t)
	svc := newTemporalService(db)

	// Older half LOW (0.25), newer half HIGH (0.75): worsening.
	worsening := createTestStudent(t, db)
	seedRiskScores(t, db, worsening.ID, []float64{0.2, 0.2, 0.7, 0.7}, 24*time.Hour)
	traj, err := svc.Trajectory(worsening.ID)
	if err != nil {
		t.Fatalf("trajectory failed: %v", err)
	}
	if traj.Trend != TrendWorsening {
		t.Fatalf("expected worsening, got %s", traj.Trend)
	}
	if len(traj.Points) != 4 {
		t.Fatalf("expected 4 points, got %d", len(traj.Points))
	}

	improving := createTestStudent(t, db)
	seedRiskScores(t, db, improving.ID, []float64{0.7, 0.7, 0.2, 0.2}, 24*time.Hour)
	traj, err = svc.Trajectory(improving.ID)
	if err != nil {
		t.Fatalf("trajectory failed: %v", err)
	}
	if traj.Trend != TrendImproving {
		t.Fatalf("expected improving, got %s", traj.Trend)
	}

	flat := createTestStudent(t, db)
	seedRiskScores(t, db, flat.ID, []float64{0.4, 0.4, 0.4}, 24*time.Hour)
	traj, err = svc.Trajectory(flat.ID)
	if err != nil {
		t.Fatalf("trajectory failed: %v", err)
	}
	if traj.Trend != TrendStable {
		t.Fatalf("expected stable, got %s", traj.Trend)
	}

	empty := createTestStudent(t, db)
	traj, err = svc.Trajectory(empty.ID)
	if err != nil {
		t.Fatalf("trajectory failed: %v", err)
	}
	if traj.Trend != TrendInsufficientData {
		t.Fatalf("expected insufficient_data, got %s", traj.Trend)
	}
}
