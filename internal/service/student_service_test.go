package service

import (
	"campuswell_backend/internal/repository"
	"campuswell_backend/internal/util"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"
)

func newStudentService(db *gorm.DB) *StudentService {
	return NewStudentService(
		repository.NewStudentRepository(db),
		repository.NewRiskRepository(db),
		repository.NewAnalysisRepository(db),
		repository.NewTemporalRepository(db),
	)
}

func TestBaselineUnavailableUntilEstablished(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	svc := newStudentService(db)

	if _, err := svc.Baseline(student.ID); !errors.Is(err, util.ErrBaselineNotEstablished) {
		t.Fatalf("expected ErrBaselineNotEstablished, got %v", err)
	}

	now := time.Now()
	student.Baseline.Observe(0.2, 40, 0.1, false, now)
	student.Baseline.Observe(0.3, 35, 0.1, false, now)
	student.Baseline.Observe(0.1, 50, 0.2, true, now)
	student.Baseline.Established = true
	if err := db.Save(student).Error; err != nil {
		t.Fatalf("failed to save baseline: %v", err)
	}

	baseline, err := svc.Baseline(student.ID)
	if err != nil {
		t.Fatalf("baseline lookup failed: %v", err)
	}
	if baseline.SessionCount != 3 {
		t.Fatalf("expected 3 observed sessions, got %d", baseline.SessionCount)
	}
}

func TestBaselineMissingStudent(t *testing.T) {
	db := setupTestDB(t)
	svc := newStudentService(db)

	if _, err := svc.Baseline(12345); !errors.Is(err, util.ErrStudentNotFound) {
		t.Fatalf("expected ErrStudentNotFound, got %v", err)
	}
}

func TestBaselineColumnUpdatePersists(t *testing.T) {
	db := setupTestDB(t)
	student := createTestStudent(t, db)
	repo := repository.NewStudentRepository(db)

	baseline := student.Baseline
	baseline.Observe(0.2, 40, 0.1, false, time.Now())
	baseline.Observe(0.1, 30, 0.2, false, time.Now())
	baseline.Established = true

	if err := repo.UpdateBaseline(student.ID, baseline); err != nil {
		t.Fatalf("baseline update failed: %v", err)
	}

	stored, err := repo.FindByID(student.ID)
	if err != nil {
		t.Fatalf("failed to reload student: %v", err)
	}
	if stored.Baseline.SessionCount != 2 {
		t.Fatalf("expected 2 observed sessions after reload, got %d", stored.Baseline.SessionCount)
	}
	if !stored.Baseline.Established {
		t.Fatal("expected baseline to remain established after reload")
	}
}
