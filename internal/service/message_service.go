package service

import (
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/util"
	"campuswell_backend/pkg/logger"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MessageService drives the full per-message flow: checkpoint
// pipeline, temporal analysis over the updated history, alert routing,
// and the crisis collector when the protocol fires. Each stage stays
// independently testable; this service only sequences them.
type MessageService struct {
	Processor *SequentialProcessor
	Temporal  *TemporalService
	Alerts    *AlertService
	Crisis    *CrisisService
}

func NewMessageService(
	processor *SequentialProcessor,
	temporal *TemporalService,
	alerts *AlertService,
	crisis *CrisisService,
) *MessageService {
	return &MessageService{
		Processor: processor,
		Temporal:  temporal,
		Alerts:    alerts,
		Crisis:    crisis,
	}
}

// MessageResult is what the ingestion endpoint returns.
type MessageResult struct {
	Analysis        *model.MessageAnalysis  `json:"analysis"`
	Profile         *model.RiskProfile      `json:"riskProfile,omitempty"`
	Patterns        []model.TemporalPattern `json:"patterns,omitempty"`
	Alerts          []model.Alert           `json:"alerts,omitempty"`
	CrisisTriggered bool                    `json:"crisisTriggered"`
	ScreenTriggered bool                    `json:"screenTriggered"`
	CrisisReportID  *uint                   `json:"crisisReportId,omitempty"`
}

func (s *MessageService) HandleIncoming(ctx context.Context, studentID uint, text string, timestamp time.Time) (*MessageResult, error) {
	processed, err := s.Processor.Process(ctx, studentID, text, timestamp)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrStudentNotFound
		}
		return nil, err
	}

	patterns, err := s.Temporal.Analyze(studentID)
	if err != nil && !errors.Is(err, util.ErrInsufficientData) {
		// Pattern detection is additive; its failure must not drop
		// an already computed crisis result.
		logger.Log.Error("Temporal analysis failed",
			zap.Uint("student_id", studentID),
			zap.Error(err))
	}

	alerts, err := s.Alerts.RouteAssessment(processed, patterns)
	if err != nil {
		logger.Log.Error("Alert routing failed",
			zap.Uint("student_id", studentID),
			zap.Error(err))
	}

	result := &MessageResult{
		Analysis:        processed.Analysis,
		Profile:         processed.Profile,
		Patterns:        patterns,
		Alerts:          alerts,
		CrisisTriggered: processed.CrisisTriggered,
		ScreenTriggered: processed.ScreenTriggered,
	}

	if processed.CrisisTriggered {
		report, err := s.Crisis.Collect(ctx, studentID, "crisis_protocol")
		if err != nil {
			logger.Log.Error("Crisis collection failed",
				zap.Uint("student_id", studentID),
				zap.Error(err))
		} else {
			result.CrisisReportID = &report.ID
		}
	}

	return result, nil
}
