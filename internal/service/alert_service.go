package service

import (
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/repository"
	"campuswell_backend/internal/util"
	"campuswell_backend/pkg/logger"
	"campuswell_backend/pkg/monitoring"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AlertService routes alerts raised by message processing and pattern
// detection. Creation is idempotent per pending duplicate; the status
// machine only moves forward.
type AlertService struct {
	AlertRepo      *repository.AlertRepository
	StudentRepo    *repository.StudentRepository
	RiskRepo       *repository.RiskRepository
	AnalysisRepo   *repository.AnalysisRepository
	TemporalRepo   *repository.TemporalRepository
	AssessmentRepo *repository.AssessmentRepository
	OutcomeRepo    *repository.OutcomeRepository
}

func NewAlertService(
	alertRepo *repository.AlertRepository,
	studentRepo *repository.StudentRepository,
	riskRepo *repository.RiskRepository,
	analysisRepo *repository.AnalysisRepository,
	temporalRepo *repository.TemporalRepository,
	assessmentRepo *repository.AssessmentRepository,
	outcomeRepo *repository.OutcomeRepository,
) *AlertService {
	return &AlertService{
		AlertRepo:      alertRepo,
		StudentRepo:    studentRepo,
		RiskRepo:       riskRepo,
		AnalysisRepo:   analysisRepo,
		TemporalRepo:   temporalRepo,
		AssessmentRepo: assessmentRepo,
		OutcomeRepo:    outcomeRepo,
	}
}

// RouteAssessment turns one processed message into zero or more
// alerts. The processor stays alert-free so the two stages remain
// independently testable.
func (s *AlertService) RouteAssessment(result *ProcessResult, patterns []model.TemporalPattern) ([]model.Alert, error) {
	if result == nil {
		return nil, nil
	}

	var raised []model.Alert

	profile := result.Profile
	var profileID *uint
	riskLevel := ""
	if profile != nil {
		profileID = &profile.ID
		riskLevel = profile.RiskLevel
	}

	raise := func(studentID uint, alertType, message string) error {
		alert := &model.Alert{
			StudentID:     studentID,
			AlertType:     alertType,
			Status:        model.AlertPending,
			Message:       message,
			RiskLevel:     riskLevel,
			RiskProfileID: profileID,
		}
		created, err := s.AlertRepo.CreateDeduplicated(alert)
		if err != nil {
			return err
		}
		if !created {
			monitoring.AlertsDeduplicated.Inc()
			logger.Log.Info("Duplicate pending alert suppressed",
				zap.Uint("student_id", studentID),
				zap.String("alert_type", alertType))
			return nil
		}
		monitoring.AlertsCreated.WithLabelValues(alertType).Inc()
		raised = append(raised, *alert)
		return nil
	}

	studentID := result.Analysis.StudentID

	if result.CrisisTriggered || riskLevel == model.RiskCrisis {
		if err := raise(studentID, model.AlertImmediate,
			"Crisis protocol triggered - immediate intervention required"); err != nil {
			return raised, err
		}
	} else if riskLevel == model.RiskHigh {
		if err := raise(studentID, model.AlertUrgent,
			fmt.Sprintf("High risk detected: %s risk level", riskLevel)); err != nil {
			return raised, err
		}
	}

	for _, p := range patterns {
		if !p.RequiresImmediateAction() {
			continue
		}
		alertType := model.AlertUrgent
		message := fmt.Sprintf("Concerning temporal pattern detected: %s", p.PatternType)
		if p.PatternType == model.PatternPreDecisionCalm {
			alertType = model.AlertImmediate
			message = "Critical pattern detected: sudden calm after sustained distress"
		}
		if err := raise(studentID, alertType, message); err != nil {
			return raised, err
		}
	}

	if result.ScreenTriggered && !result.CrisisTriggered {
		if err := raise(studentID, model.AlertRoutine,
			"Clinical screening recommended based on recent messages"); err != nil {
			return raised, err
		}
	}

	return raised, nil
}

func (s *AlertService) Queue(limit int) ([]model.Alert, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.AlertRepo.Queue(limit)
}

func (s *AlertService) ListByStudent(studentID uint, page, limit int) ([]model.Alert, int64, error) {
	return s.AlertRepo.ListByStudent(studentID, page, limit)
}

func (s *AlertService) Get(alertID uint) (*model.Alert, error) {
	alert, err := s.AlertRepo.FindByID(alertID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAlertNotFound
	}
	return alert, err
}

// Review transitions a pending alert to REVIEWED. Already-reviewed
// alerts are reported as such and never regress.
func (s *AlertService) Review(alertID, reviewerID uint, notes string) (*model.Alert, error) {
	ok, err := s.AlertRepo.MarkReviewed(alertID, reviewerID, notes)
	if err != nil {
		return nil, err
	}
	if !ok {
		alert, lookupErr := s.AlertRepo.FindByID(alertID)
		if errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return nil, util.ErrAlertNotFound
		}
		if lookupErr != nil {
			return nil, lookupErr
		}
		if alert.Status != model.AlertPending {
			return nil, util.ErrAlertAlreadyReviewed
		}
		return nil, util.ErrAlertNotFound
	}

	logger.Log.Info("Alert reviewed",
		zap.Uint("alert_id", alertID),
		zap.Uint("reviewer_id", reviewerID))
	return s.AlertRepo.FindByID(alertID)
}

func (s *AlertService) StatusCounts() (map[string]int64, error) {
	return s.AlertRepo.CountByStatus()
}

// AlertContext bundles everything a counselor needs to act on one
// alert without further lookups.
type AlertContext struct {
	Alert       *model.Alert               `json:"alert"`
	Student     *model.Student             `json:"student"`
	RiskProfile *model.RiskProfile         `json:"riskProfile,omitempty"`
	Analysis    *model.MessageAnalysis     `json:"triggeringAnalysis,omitempty"`
	Patterns    []model.TemporalPattern    `json:"recentPatterns"`
	Assessments []model.Assessment         `json:"recentAssessments"`
	Outcome     *model.InterventionOutcome `json:"outcome,omitempty"`
}

// FullContext assembles the alert with its triggering risk profile and
// analysis, the student's baseline, and recent patterns and
// assessments.
func (s *AlertService) FullContext(alertID uint) (*AlertContext, error) {
	alert, err := s.Get(alertID)
	if err != nil {
		return nil, err
	}

	student, err := s.StudentRepo.FindByID(alert.StudentID)
	if err != nil {
		return nil, err
	}

	ctx := &AlertContext{Alert: alert, Student: student}

	if alert.RiskProfileID != nil {
		profile, err := s.RiskRepo.FindByID(*alert.RiskProfileID)
		if err != nil {
			return nil, err
		}
		ctx.RiskProfile = profile
		if profile != nil && profile.SourceAnalysisID != nil {
			analysis, err := s.AnalysisRepo.FindByID(*profile.SourceAnalysisID)
			if err == nil {
				ctx.Analysis = analysis
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}
	}

	if ctx.Patterns, err = s.TemporalRepo.RecentByStudent(alert.StudentID, 10); err != nil {
		return nil, err
	}
	if ctx.Assessments, err = s.AssessmentRepo.RecentByStudent(alert.StudentID, 10); err != nil {
		return nil, err
	}
	if ctx.Outcome, err = s.OutcomeRepo.FindByAlertID(alertID); err != nil {
		return nil, err
	}
	return ctx, nil
}

type RecordOutcomeRequest struct {
	AppointmentAt             *time.Time `json:"appointmentAt"`
	Engaged                   *bool      `json:"engaged"`
	EngagementNotes           string     `json:"engagementNotes"`
	StillEnrolledNextSemester *bool      `json:"stillEnrolledNextSemester"`
}

// RecordOutcome captures counselor follow-through on an alert: an
// appointment time on the alert itself and whether the student engaged
// with the intervention. Engagement fills in monotonically; the
// measured sweep fields are never touched here.
func (s *AlertService) RecordOutcome(alertID uint, req RecordOutcomeRequest) (*AlertContext, error) {
	alert, err := s.Get(alertID)
	if err != nil {
		return nil, err
	}

	if req.AppointmentAt != nil {
		if err := s.AlertRepo.SetAppointment(alertID, *req.AppointmentAt); err != nil {
			return nil, err
		}
	}
	if req.Engaged != nil {
		if _, err := s.OutcomeRepo.UpsertEngagement(alertID, alert.StudentID, *req.Engaged, req.EngagementNotes); err != nil {
			return nil, err
		}
	}
	if req.StillEnrolledNextSemester != nil {
		if _, err := s.OutcomeRepo.UpsertEnrollment(alertID, alert.StudentID, *req.StillEnrolledNextSemester); err != nil {
			return nil, err
		}
	}

	logger.Log.Info("Alert outcome recorded",
		zap.Uint("alert_id", alertID),
		zap.Bool("has_appointment", req.AppointmentAt != nil),
		zap.Bool("has_engagement", req.Engaged != nil))
	return s.FullContext(alertID)
}
