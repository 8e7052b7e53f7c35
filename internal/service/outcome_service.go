package service

import (
	"campuswell_backend/internal/config"
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/repository"
	"campuswell_backend/internal/util"
	"campuswell_backend/pkg/logger"
	"campuswell_backend/pkg/monitoring"
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sweepLockKey = "campuswell:outcome_sweep:lock"

// Measured system-wide engagement rate of traditional opt-in campus
// counseling outreach, used as the comparison baseline for lift.
const BaselineEngagementRate = 0.12

// SweepStats summarizes one run of the symptom-improvement sweep.
type SweepStats struct {
	SweepDay          string `json:"sweepDay"`
	Examined          int    `json:"examined"`
	Processed         int    `json:"processed"`
	SkippedNoBaseline int    `json:"skippedNoBaseline"`
	SkippedNoFollowup int    `json:"skippedNoFollowup"`
	Failed            int    `json:"failed"`
}

// OutcomeService correlates alerts with follow-up clinical scores a
// fixed number of days later. The sweep targets the single calendar
// day exactly LagDays ago, so each alert is examined once; an alert
// skipped for missing data is not revisited by later sweeps.
type OutcomeService struct {
	DB          *gorm.DB
	Redis       *redis.Client
	AlertRepo   *repository.AlertRepository
	OutcomeRepo *repository.OutcomeRepository

	mu     sync.RWMutex
	config config.OutcomeConfig
}

func NewOutcomeService(
	db *gorm.DB,
	redisClient *redis.Client,
	alertRepo *repository.AlertRepository,
	outcomeRepo *repository.OutcomeRepository,
	cfg config.OutcomeConfig,
) *OutcomeService {
	return &OutcomeService{
		DB:          db,
		Redis:       redisClient,
		AlertRepo:   alertRepo,
		OutcomeRepo: outcomeRepo,
		config:      cfg,
	}
}

func (s *OutcomeService) SetTuning(cfg config.OutcomeConfig) {
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
}

func (s *OutcomeService) tuning() config.OutcomeConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// RunSweep executes one batch. A redis lock prevents overlapping runs;
// the whole run commits as one transaction while individual alert
// failures are logged, counted, and skipped.
func (s *OutcomeService) RunSweep(ctx context.Context) (*SweepStats, error) {
	cfg := s.tuning()
	if s.Redis != nil {
		ttl := time.Duration(cfg.LockTTLMinutes) * time.Minute
		acquired, err := s.Redis.SetNX(ctx, sweepLockKey, time.Now().Unix(), ttl).Result()
		if err != nil {
			logger.Log.Warn("Sweep lock check failed, proceeding without lock", zap.Error(err))
		} else if !acquired {
			return nil, util.ErrSweepAlreadyRunning
		} else {
			defer s.Redis.Del(ctx, sweepLockKey)
		}
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, -cfg.LagDays)
	dayEnd := dayStart.AddDate(0, 0, 1)

	stats := &SweepStats{SweepDay: dayStart.Format(util.DateFormat)}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		alertRepo := repository.NewAlertRepository(tx)
		assessmentRepo := repository.NewAssessmentRepository(tx)
		outcomeRepo := repository.NewOutcomeRepository(tx)
		crisisRepo := repository.NewCrisisRepository(tx)

		alerts, err := alertRepo.ListCreatedBetween(dayStart, dayEnd)
		if err != nil {
			return err
		}
		stats.Examined = len(alerts)

		for _, alert := range alerts {
			result, err := s.measureAlert(assessmentRepo, outcomeRepo, crisisRepo, &alert, now)
			if err != nil {
				stats.Failed++
				monitoring.OutcomeSweepAlerts.WithLabelValues("failed").Inc()
				logger.Log.Error("Outcome measurement failed for alert",
					zap.Uint("alert_id", alert.ID),
					zap.Error(err))
				continue
			}
			switch result {
			case model.OutcomeNoBaseline:
				stats.SkippedNoBaseline++
				monitoring.OutcomeSweepAlerts.WithLabelValues("skipped_no_baseline").Inc()
			case model.OutcomeNoFollowup:
				stats.SkippedNoFollowup++
				monitoring.OutcomeSweepAlerts.WithLabelValues("skipped_no_followup").Inc()
			default:
				stats.Processed++
				monitoring.OutcomeSweepAlerts.WithLabelValues("processed").Inc()
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Outcome sweep completed",
		zap.String("sweep_day", stats.SweepDay),
		zap.Int("examined", stats.Examined),
		zap.Int("processed", stats.Processed),
		zap.Int("skipped_no_baseline", stats.SkippedNoBaseline),
		zap.Int("skipped_no_followup", stats.SkippedNoFollowup),
		zap.Int("failed", stats.Failed))
	return stats, nil
}

// measureAlert computes one alert's outcome. Returns the skip reason
// when baseline or follow-up is missing; the measurement itself is
// deterministic given the same assessment data, so upserts are
// idempotent.
func (s *OutcomeService) measureAlert(
	assessmentRepo *repository.AssessmentRepository,
	outcomeRepo *repository.OutcomeRepository,
	crisisRepo *repository.CrisisRepository,
	alert *model.Alert,
	now time.Time,
) (string, error) {
	cfg := s.tuning()
	baseline, err := assessmentRepo.LatestBefore(alert.StudentID, model.AssessmentPHQ9, alert.CreatedAt)
	if err != nil {
		return "", err
	}
	if baseline == nil {
		return model.OutcomeNoBaseline, nil
	}

	followupFrom := alert.CreatedAt.AddDate(0, 0, cfg.FollowupMinDays)
	followupTo := alert.CreatedAt.AddDate(0, 0, cfg.FollowupMaxDays)
	followup, err := assessmentRepo.EarliestInRange(alert.StudentID, model.AssessmentPHQ9, followupFrom, followupTo)
	if err != nil {
		return "", err
	}
	if followup == nil {
		return model.OutcomeNoFollowup, nil
	}

	improvement := baseline.Score - followup.Score
	significant := improvement >= cfg.ImprovementPoints

	verdict := model.OutcomeUnchanged
	if improvement >= cfg.ImprovementPoints {
		verdict = model.OutcomeImproved
	} else if improvement <= -cfg.ImprovementPoints {
		verdict = model.OutcomeWorsened
	}

	outcome := &model.InterventionOutcome{
		AlertID:          alert.ID,
		StudentID:        alert.StudentID,
		Outcome:          verdict,
		BaselineScore:    &baseline.Score,
		FollowupScore:    &followup.Score,
		ImprovementDelta: &improvement,
		Significant:      significant,
		BaselineAt:       &baseline.CompletedAt,
		FollowupAt:       &followup.CompletedAt,
		CheckedAt:        now,
	}

	// Longer-horizon measures, filled as data allows.
	all, err := assessmentRepo.ListByStudentAndType(alert.StudentID, model.AssessmentPHQ9)
	if err != nil {
		return "", err
	}
	var windowScores []float64
	for _, a := range all {
		if !a.CompletedAt.Before(alert.CreatedAt) && !a.CompletedAt.After(followupTo) {
			windowScores = append(windowScores, float64(a.Score))
		}
	}
	if len(windowScores) >= 2 {
		slope := leastSquaresSlope(windowScores)
		outcome.TrajectorySlope = &slope
		sustained := verdict == model.OutcomeImproved && slope <= 0
		outcome.SustainedImprovement = &sustained
	}

	crises, err := crisisRepo.CountReportsByStudentSince(alert.StudentID, alert.CreatedAt)
	if err != nil {
		return "", err
	}
	crisisCount := int(crises)
	outcome.SubsequentCrisisCount = &crisisCount

	return verdict, outcomeRepo.Upsert(outcome)
}

// OutcomeSummary is the analytics view over all measured outcomes.
type OutcomeSummary struct {
	Total              int64            `json:"total"`
	Counts             map[string]int64 `json:"counts"`
	SignificantCount   int64            `json:"significantCount"`
	MeanImprovement    float64          `json:"meanImprovement"`
	ImprovedRate       float64          `json:"improvedRate"`
	BaselineEngagement float64          `json:"baselineEngagement"`
	SystemLift         float64          `json:"systemLift"`
}

func (s *OutcomeService) Summary() (*OutcomeSummary, error) {
	stats, err := s.OutcomeRepo.Stats()
	if err != nil {
		return nil, err
	}

	summary := &OutcomeSummary{
		Total:              stats.Total,
		Counts:             stats.Counts,
		SignificantCount:   stats.SignificantCount,
		MeanImprovement:    stats.MeanImprovement,
		BaselineEngagement: BaselineEngagementRate,
	}
	if stats.Total > 0 {
		summary.ImprovedRate = float64(stats.Counts[model.OutcomeImproved]) / float64(stats.Total)
		summary.SystemLift = summary.ImprovedRate - BaselineEngagementRate
	}
	return summary, nil
}

func (s *OutcomeService) ListByStudent(studentID uint) ([]model.InterventionOutcome, error) {
	return s.OutcomeRepo.ListByStudent(studentID)
}
