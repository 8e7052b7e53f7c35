package repository

import (
	"campuswell_backend/internal/model"

	"gorm.io/gorm"
)

type FeedbackRepository struct {
	DB *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{DB: db}
}

func (r *FeedbackRepository) Create(feedback *model.CounselorFeedback) error {
	return r.DB.Create(feedback).Error
}

func (r *FeedbackRepository) ListByAlert(alertID uint) ([]model.CounselorFeedback, error) {
	var feedback []model.CounselorFeedback
	err := r.DB.Where("alert_id = ?", alertID).
		Order("created_at DESC").
		Find(&feedback).Error
	return feedback, err
}

// VerdictCounts tallies counselor verdicts for precision tracking.
func (r *FeedbackRepository) VerdictCounts() (map[string]int64, error) {
	type row struct {
		Verdict string
		Count   int64
	}
	var rows []row
	err := r.DB.Model(&model.CounselorFeedback{}).
		Select("verdict, COUNT(*) AS count").
		Group("verdict").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Verdict] = rw.Count
	}
	return counts, nil
}
