package service

import (
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/repository"
	"campuswell_backend/internal/util"
	"campuswell_backend/pkg/logger"
	"math"
	"time"

	"go.uber.org/zap"
)

// Instrument answer counts and per-item maxima.
var instrumentShapes = map[string]struct {
	Questions int
	ItemMax   int
}{
	model.AssessmentPHQ9:  {Questions: 9, ItemMax: 3},
	model.AssessmentGAD7:  {Questions: 7, ItemMax: 3},
	model.AssessmentPHQ2:  {Questions: 2, ItemMax: 3},
	model.AssessmentGAD2:  {Questions: 2, ItemMax: 3},
	model.AssessmentCSSRS: {Questions: 6, ItemMax: 1},
}

type AssessmentService struct {
	Repo     *repository.AssessmentRepository
	RiskRepo *repository.RiskRepository
}

func NewAssessmentService(repo *repository.AssessmentRepository, riskRepo *repository.RiskRepository) *AssessmentService {
	return &AssessmentService{Repo: repo, RiskRepo: riskRepo}
}

// EscalationTarget names the full instrument a positive short screen
// escalates to, or empty when no escalation applies.
func EscalationTarget(a *model.Assessment) string {
	if a == nil || a.Severity != model.SeverityPositiveScreen {
		return ""
	}
	switch a.AssessmentType {
	case model.AssessmentPHQ2:
		return model.AssessmentPHQ9
	case model.AssessmentGAD2:
		return model.AssessmentGAD7
	default:
		return ""
	}
}

type SubmitAssessmentRequest struct {
	AssessmentType string `json:"assessmentType" binding:"required"`
	Answers        []int  `json:"answers" binding:"required"`
	TriggerSource  string `json:"triggerSource"`
}

// Submit scores the raw responses with the instrument's fixed scoring
// table and persists the immutable assessment row.
func (s *AssessmentService) Submit(studentID uint, req SubmitAssessmentRequest) (*model.Assessment, error) {
	shape, ok := instrumentShapes[req.AssessmentType]
	if !ok {
		return nil, util.ErrInvalidAssessmentType
	}
	if len(req.Answers) != shape.Questions {
		return nil, util.ErrInvalidAnswerCount
	}

	score := 0
	for _, a := range req.Answers {
		if a < 0 || a > shape.ItemMax {
			return nil, util.ErrInvalidAnswerCount
		}
		score += a
	}

	assessment := &model.Assessment{
		StudentID:      studentID,
		AssessmentType: req.AssessmentType,
		Score:          score,
		Severity:       model.ScoreSeverity(req.AssessmentType, score),
		Answers:        req.Answers,
		CompletedAt:    time.Now(),
		TriggerSource:  req.TriggerSource,
	}
	if err := s.Repo.Create(assessment); err != nil {
		return nil, err
	}

	logger.Log.Info("Assessment submitted",
		zap.Uint("student_id", studentID),
		zap.String("type", req.AssessmentType),
		zap.Int("score", score),
		zap.String("severity", assessment.Severity))
	return assessment, nil
}

func (s *AssessmentService) ListByStudent(studentID uint, page, limit int) ([]model.Assessment, int64, error) {
	return s.Repo.ListByStudent(studentID, page, limit)
}

func (s *AssessmentService) LatestByType(studentID uint, assessmentType string) (*model.Assessment, error) {
	if _, ok := instrumentShapes[assessmentType]; !ok {
		return nil, util.ErrInvalidAssessmentType
	}
	latest, err := s.Repo.LatestByType(studentID, assessmentType)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, util.ErrAssessmentNotFound
	}
	return latest, nil
}

var cssrsQuestions = []string{
	"Have you wished you were dead or wished you could go to sleep and not wake up?",
	"Have you actually had any thoughts of killing yourself?",
	"Have you been thinking about how you might do this?",
	"Have you had these thoughts and had some intention of acting on them?",
	"Have you started to work out or worked out the details of how to kill yourself?",
	"Have you done anything, started to do anything, or prepared to do anything to end your life?",
}

type CSSRSTriggerResult struct {
	ShouldTrigger bool     `json:"shouldTrigger"`
	Reason        string   `json:"reason,omitempty"`
	Message       string   `json:"message,omitempty"`
	Questions     []string `json:"questions,omitempty"`
}

// CSSRSTriggerCheck decides whether the safety screening should be
// offered now: a positive PHQ-9 self-harm item or a currently elevated
// risk level triggers it.
func (s *AssessmentService) CSSRSTriggerCheck(studentID uint) (*CSSRSTriggerResult, error) {
	reason := ""

	latest, err := s.Repo.LatestByType(studentID, model.AssessmentPHQ9)
	if err != nil {
		return nil, err
	}
	if latest != nil && len(latest.Answers) == 9 && latest.Answers[8] > 0 {
		reason = "phq9_item9_positive"
	}

	if reason == "" {
		profile, err := s.RiskRepo.LatestByStudent(studentID)
		if err != nil {
			return nil, err
		}
		if profile != nil && (profile.RiskLevel == model.RiskHigh || profile.RiskLevel == model.RiskCrisis) {
			reason = "elevated_risk_level"
		}
	}

	if reason == "" {
		return &CSSRSTriggerResult{ShouldTrigger: false}, nil
	}
	logger.Log.Info("C-SSRS screening triggered",
		zap.Uint("student_id", studentID),
		zap.String("reason", reason))
	return &CSSRSTriggerResult{
		ShouldTrigger: true,
		Reason:        reason,
		Message:       "I want to ask you some specific questions to understand how to best support you. These are important safety questions.",
		Questions:     cssrsQuestions,
	}, nil
}

// ClinicalAction maps a C-SSRS score to the counselor playbook step.
func ClinicalAction(score int) string {
	switch {
	case score >= 3:
		return "Activate safety protocol - same-day counselor contact required"
	case score >= 1:
		return "Counselor follow-up within 24 hours"
	default:
		return "Continue routine monitoring"
	}
}

type AssessmentTrajectory struct {
	Direction        string  `json:"direction"`
	Slope            float64 `json:"slope"`
	FirstScore       int     `json:"firstScore"`
	LatestScore      int     `json:"latestScore"`
	Change           int     `json:"change"`
	ChangePercentage float64 `json:"changePercentage"`
	SampleCount      int     `json:"sampleCount"`
}

// Trajectory fits a least-squares line through every sitting of one
// instrument, oldest first. Slope is in score points per sitting;
// scores rising past 0.5 per sitting reads as worsening because higher
// instrument scores mean worse symptoms.
func (s *AssessmentService) Trajectory(studentID uint, assessmentType string) (*AssessmentTrajectory, error) {
	if _, ok := instrumentShapes[assessmentType]; !ok {
		return nil, util.ErrInvalidAssessmentType
	}
	assessments, err := s.Repo.ListByStudentAndType(studentID, assessmentType)
	if err != nil {
		return nil, err
	}
	if len(assessments) == 0 {
		return nil, util.ErrAssessmentNotFound
	}
	if len(assessments) < 2 {
		return nil, util.ErrInsufficientData
	}

	scores := make([]float64, len(assessments))
	for i, a := range assessments {
		scores[i] = float64(a.Score)
	}
	slope := leastSquaresSlope(scores)

	direction := "stable"
	if slope > 0.5 {
		direction = "worsening"
	} else if slope < -0.5 {
		direction = "improving"
	}

	first := assessments[0].Score
	latest := assessments[len(assessments)-1].Score
	changePct := 0.0
	if first != 0 {
		changePct = math.Round(float64(latest-first)/float64(first)*1000) / 10
	}
	return &AssessmentTrajectory{
		Direction:        direction,
		Slope:            math.Round(slope*1000) / 1000,
		FirstScore:       first,
		LatestScore:      latest,
		Change:           latest - first,
		ChangePercentage: changePct,
		SampleCount:      len(assessments),
	}, nil
}

// leastSquaresSlope regresses the values against their index.
func leastSquaresSlope(ys []float64) float64 {
	n := float64(len(ys))
	meanX := (n - 1) / 2
	var meanY float64
	for _, y := range ys {
		meanY += y
	}
	meanY /= n

	var num, den float64
	for i, y := range ys {
		dx := float64(i) - meanX
		num += dx * (y - meanY)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}
