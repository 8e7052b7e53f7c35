package service

import (
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/repository"
	"campuswell_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

// FeedbackService ingests counselor verdicts on alerts. The verdicts
// feed the precision stats used to recalibrate alert thresholds; they
// are kept separable from the alert lifecycle itself.
type FeedbackService struct {
	FeedbackRepo *repository.FeedbackRepository
	AlertRepo    *repository.AlertRepository
}

func NewFeedbackService(feedbackRepo *repository.FeedbackRepository, alertRepo *repository.AlertRepository) *FeedbackService {
	return &FeedbackService{
		FeedbackRepo: feedbackRepo,
		AlertRepo:    alertRepo,
	}
}

type SubmitFeedbackRequest struct {
	Verdict string `json:"verdict" binding:"required"`
	Notes   string `json:"notes"`
}

func (s *FeedbackService) Submit(alertID, counselorID uint, req SubmitFeedbackRequest) (*model.CounselorFeedback, error) {
	switch req.Verdict {
	case model.FeedbackAccurate, model.FeedbackFalsePositive, model.FeedbackMissedRisk:
	default:
		return nil, errors.New("verdict must be accurate, false_positive, or missed_risk")
	}

	if _, err := s.AlertRepo.FindByID(alertID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAlertNotFound
		}
		return nil, err
	}

	feedback := &model.CounselorFeedback{
		AlertID:     alertID,
		CounselorID: counselorID,
		Verdict:     req.Verdict,
		Notes:       req.Notes,
	}
	return feedback, s.FeedbackRepo.Create(feedback)
}

func (s *FeedbackService) ListByAlert(alertID uint) ([]model.CounselorFeedback, error) {
	return s.FeedbackRepo.ListByAlert(alertID)
}

// PrecisionStats reports how often alerts were judged accurate by the
// reviewing counselors.
type PrecisionStats struct {
	Counts    map[string]int64 `json:"counts"`
	Total     int64            `json:"total"`
	Precision float64          `json:"precision"`
}

func (s *FeedbackService) Precision() (*PrecisionStats, error) {
	counts, err := s.FeedbackRepo.VerdictCounts()
	if err != nil {
		return nil, err
	}

	stats := &PrecisionStats{Counts: counts}
	for _, c := range counts {
		stats.Total += c
	}
	judged := counts[model.FeedbackAccurate] + counts[model.FeedbackFalsePositive]
	if judged > 0 {
		stats.Precision = float64(counts[model.FeedbackAccurate]) / float64(judged)
	}
	return stats, nil
}
