package repository

import (
	"campuswell_backend/internal/model"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OutcomeRepository struct {
	DB *gorm.DB
}

func NewOutcomeRepository(db *gorm.DB) *OutcomeRepository {
	return &OutcomeRepository{DB: db}
}

// Upsert inserts the outcome or, when one already exists for the
// alert, overwrites its measured fields. Re-running a sweep day is
// therefore idempotent.
func (r *OutcomeRepository) Upsert(outcome *model.InterventionOutcome) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "alert_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"outcome", "baseline_score", "followup_score", "improvement_delta",
			"significant", "baseline_at", "followup_at", "checked_at",
			"trajectory_slope", "sustained_improvement", "subsequent_crisis_count",
			"updated_at",
		}),
	}).Create(outcome).Error
}

// UpsertEngagement records whether the student engaged with the
// intervention. It touches only the engagement columns so a later
// sweep keeps its measured scores, and a sweep that already ran is
// not clobbered by counselor bookkeeping.
func (r *OutcomeRepository) UpsertEngagement(alertID, studentID uint, engaged bool, notes string) (*model.InterventionOutcome, error) {
	existing, err := r.FindByAlertID(alertID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		outcome := &model.InterventionOutcome{
			AlertID:         alertID,
			StudentID:       studentID,
			Outcome:         model.OutcomePendingMeasure,
			CheckedAt:       time.Now(),
			Engaged:         &engaged,
			EngagementNotes: notes,
		}
		if err := r.DB.Create(outcome).Error; err != nil {
			return nil, err
		}
		return outcome, nil
	}
	existing.Engaged = &engaged
	existing.EngagementNotes = notes
	err = r.DB.Model(existing).
		Updates(map[string]interface{}{"engaged": engaged, "engagement_notes": notes}).Error
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// UpsertEnrollment records whether the student is still enrolled the
// following semester, from registrar reconciliation. Like engagement
// it touches only its own column.
func (r *OutcomeRepository) UpsertEnrollment(alertID, studentID uint, enrolled bool) (*model.InterventionOutcome, error) {
	existing, err := r.FindByAlertID(alertID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		outcome := &model.InterventionOutcome{
			AlertID:                   alertID,
			StudentID:                 studentID,
			Outcome:                   model.OutcomePendingMeasure,
			CheckedAt:                 time.Now(),
			StillEnrolledNextSemester: &enrolled,
		}
		if err := r.DB.Create(outcome).Error; err != nil {
			return nil, err
		}
		return outcome, nil
	}
	existing.StillEnrolledNextSemester = &enrolled
	err = r.DB.Model(existing).
		Updates(map[string]interface{}{"still_enrolled_next_semester": enrolled}).Error
	if err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *OutcomeRepository) FindByAlertID(alertID uint) (*model.InterventionOutcome, error) {
	var outcome model.InterventionOutcome
	err := r.DB.Where("alert_id = ?", alertID).First(&outcome).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (r *OutcomeRepository) ListByStudent(studentID uint) ([]model.InterventionOutcome, error) {
	var outcomes []model.InterventionOutcome
	err := r.DB.Where("student_id = ?", studentID).
		Order("checked_at DESC").
		Find(&outcomes).Error
	return outcomes, err
}

// OutcomeStats aggregates the measured population for the analytics
// summary endpoint.
type OutcomeStats struct {
	Total            int64
	Counts           map[string]int64
	SignificantCount int64
	MeanImprovement  float64
}

func (r *OutcomeRepository) Stats() (*OutcomeStats, error) {
	stats := &OutcomeStats{Counts: make(map[string]int64)}

	type row struct {
		Outcome string
		Count   int64
	}
	var rows []row
	if err := r.DB.Model(&model.InterventionOutcome{}).
		Select("outcome, COUNT(*) AS count").
		Group("outcome").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, rw := range rows {
		stats.Counts[rw.Outcome] = rw.Count
		stats.Total += rw.Count
	}

	if err := r.DB.Model(&model.InterventionOutcome{}).
		Where("significant = ?", true).
		Count(&stats.SignificantCount).Error; err != nil {
		return nil, err
	}

	var mean *float64
	if err := r.DB.Model(&model.InterventionOutcome{}).
		Where("improvement_delta IS NOT NULL").
		Select("AVG(improvement_delta)").
		Scan(&mean).Error; err != nil {
		return nil, err
	}
	if mean != nil {
		stats.MeanImprovement = *mean
	}
	return stats, nil
}
