package service

import (
	"campuswell_backend/internal/config"
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/repository"
	"campuswell_backend/pkg/logger"
	"campuswell_backend/pkg/monitoring"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RiskCalculator fuses the latest message signals, recent clinical
// assessments, baseline deviation, and active temporal patterns into a
// single graded risk profile. Every computation appends a new
// RiskProfile row; prior rows are never touched.
type RiskCalculator struct {
	StudentRepo    *repository.StudentRepository
	AssessmentRepo *repository.AssessmentRepository
	TemporalRepo   *repository.TemporalRepository
	RiskRepo       *repository.RiskRepository

	mu     sync.RWMutex
	config config.RiskConfig
}

func NewRiskCalculator(
	studentRepo *repository.StudentRepository,
	assessmentRepo *repository.AssessmentRepository,
	temporalRepo *repository.TemporalRepository,
	riskRepo *repository.RiskRepository,
	cfg config.RiskConfig,
) *RiskCalculator {
	return &RiskCalculator{
		StudentRepo:    studentRepo,
		AssessmentRepo: assessmentRepo,
		TemporalRepo:   temporalRepo,
		RiskRepo:       riskRepo,
		config:         cfg,
	}
}

// SetTuning swaps the hot-reloadable tuning; readers take a snapshot
// per computation so a reload never tears a run.
func (c *RiskCalculator) SetTuning(cfg config.RiskConfig) {
	c.mu.Lock()
	c.config = cfg
	c.mu.Unlock()
}

func (c *RiskCalculator) tuning() config.RiskConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// Signal weights for the base score. Hopelessness dominates because it
// is the strongest single predictor among the extracted signals.
const (
	weightHopelessness = 0.35
	weightIsolation    = 0.20
	weightSleep        = 0.15
	weightAcademic     = 0.10
	weightNegSentiment = 0.20
	maxDeviationBoost  = 0.25
)

// Severity floors: a recent assessment in these bands raises the score
// to at least the floor regardless of what the message signals say.
func severityFloor(severity string) float64 {
	switch severity {
	case model.SeveritySevere, model.SeverityHighRisk:
		return 0.8
	case model.SeverityModeratelySevere, model.SeverityModerateRisk:
		return 0.6
	case model.SeverityModerate:
		return 0.45
	case model.SeverityMild:
		return 0.3
	default:
		return 0
	}
}

const crisisThreshold = 0.85

func levelForScore(score float64) string {
	switch {
	case score >= crisisThreshold:
		return model.RiskCrisis
	case score >= 0.6:
		return model.RiskHigh
	case score >= 0.35:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// suicidalIntentTerms match safety flags that name intent rather than
// general distress.
var suicidalIntentTerms = []string{
	"suicide", "kill myself", "want to die", "end my life",
	"end it all", "better off dead", "no reason to live",
}

// flagsNameSuicidalIntent reports whether any safety flag text names
// suicidal intent rather than general distress.
func flagsNameSuicidalIntent(flags []string) bool {
	for _, flag := range flags {
		lowered := strings.ToLower(flag)
		for _, term := range suicidalIntentTerms {
			if strings.Contains(lowered, term) {
				return true
			}
		}
	}
	return false
}

func crisisOverride(assessments []model.Assessment, signals *model.MessageSignals) bool {
	for _, a := range assessments {
		if a.AssessmentType == model.AssessmentCSSRS && a.Severity == model.SeverityHighRisk {
			return true
		}
	}
	if signals == nil {
		return false
	}
	return flagsNameSuicidalIntent(signals.SafetyFlags)
}

func recommendedAction(level string) string {
	switch level {
	case model.RiskCrisis:
		return "Immediate crisis intervention - contact student now"
	case model.RiskHigh:
		return "Priority counselor outreach within 24 hours"
	case model.RiskMedium:
		return "Schedule a check-in within one week"
	default:
		return "Continue routine monitoring"
	}
}

// Compute produces and persists a risk profile for the student.
// signals may be nil when the upstream extractor failed; the
// computation then leans on assessments alone with reduced confidence.
func (c *RiskCalculator) Compute(studentID uint, signals *model.MessageSignals, safetyFlagged bool, sourceAnalysisID *uint) (*model.RiskProfile, error) {
	student, err := c.StudentRepo.FindByID(studentID)
	if err != nil {
		return nil, err
	}

	cfg := c.tuning()
	assessments, err := c.AssessmentRepo.RecentByStudent(studentID, cfg.RecentAssessments)
	if err != nil {
		return nil, err
	}

	windowStart := time.Now().AddDate(0, 0, -cfg.TemporalWindowDays)
	activePatterns, err := c.TemporalRepo.ActiveTypes(studentID, windowStart)
	if err != nil {
		return nil, err
	}

	factors := model.RiskFactors{
		ActivePatterns: activePatterns,
		CrisisKeywords: safetyFlagged,
	}

	confidence := 0.9
	score := 0.0

	if signals != nil {
		negSentiment := math.Max(0, -signals.Sentiment)
		score = weightHopelessness*signals.HopelessnessScore +
			weightIsolation*signals.IsolationScore +
			weightSleep*signals.SleepDisruption +
			weightAcademic*signals.AcademicStress +
			weightNegSentiment*negSentiment
	} else {
		confidence -= 0.2
	}
	factors.BaseScore = score

	// Recent assessment severity sets a floor on the score.
	worstSeverity := ""
	for _, a := range assessments {
		floor := severityFloor(a.Severity)
		if floor > severityFloor(worstSeverity) {
			worstSeverity = a.Severity
		}
		if floor > score {
			score = floor
		}
	}
	factors.AssessmentSeverity = worstSeverity
	if len(assessments) == 0 {
		confidence -= 0.1
	}

	// Deviation from the student's own baseline rather than an
	// absolute threshold.
	if signals != nil && student.Baseline.Established {
		sigma := math.Sqrt(student.Baseline.SentimentVariance())
		if sigma < 0.1 {
			sigma = 0.1
		}
		z := (student.Baseline.SentimentMean - signals.Sentiment) / sigma
		if z > 0 {
			boost := math.Min(z/4, maxDeviationBoost)
			score += boost
			factors.DeviationWeight = boost
		}
	} else {
		confidence -= 0.2
	}

	// The worst active temporal pattern scales the whole score.
	multiplier := 1.0
	for _, p := range activePatterns {
		if m := model.PatternMultiplier(p); m > multiplier {
			multiplier = m
		}
	}
	factors.PatternMultiplier = multiplier
	score = math.Min(score*multiplier, 1.0)

	// Explicit safety flags force at least HIGH, whether they came
	// from the local keyword checkpoint or from the extractor.
	flagged := safetyFlagged || (signals != nil && len(signals.SafetyFlags) > 0)
	if flagged && score < model.RiskNumeric(model.RiskHigh) {
		score = model.RiskNumeric(model.RiskHigh)
	}

	// A high-risk C-SSRS or a flag naming suicidal intent escalates
	// straight to CRISIS, whatever the blended score says.
	if crisisOverride(assessments, signals) && score < crisisThreshold {
		score = crisisThreshold
	}

	if confidence < 0.1 {
		confidence = 0.1
	}

	level := levelForScore(score)
	profile := &model.RiskProfile{
		StudentID:         studentID,
		RiskLevel:         level,
		RiskScore:         math.Round(score*1000) / 1000,
		Confidence:        confidence,
		RecommendedAction: recommendedAction(level),
		Factors:           factors,
		AssessedAt:        time.Now(),
		SourceAnalysisID:  sourceAnalysisID,
	}

	if err := c.RiskRepo.Create(profile); err != nil {
		return nil, err
	}

	logger.Log.Info("Risk profile computed",
		zap.Uint("student_id", studentID),
		zap.String("level", level),
		zap.Float64("score", profile.RiskScore),
		zap.Float64("confidence", confidence))
	monitoring.RiskProfilesComputed.WithLabelValues(level).Inc()

	return profile, nil
}
