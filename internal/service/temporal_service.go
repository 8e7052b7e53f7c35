package service

import (
	"campuswell_backend/internal/config"
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/repository"
	"campuswell_backend/internal/util"
	"campuswell_backend/pkg/logger"
	"campuswell_backend/pkg/monitoring"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Velocity is measured on the improvement axis: positive velocity
// means risk is falling, negative means it is rising. A sudden large
// positive velocity right after sustained elevated risk is itself a
// danger sign, not good news.
const (
	deteriorationMeanVelocity = -0.1
	deteriorationPeakVelocity = -0.3
	calmDropVelocity          = 0.5
	calmElevatedPeak          = 0.75
	calmElevatedMean          = 0.6
	chronicMinScore           = 0.5
	chronicMeanScore          = 0.6
	chronicMaxStdDev          = 0.15
	cyclicalMinReversals      = 3
	cyclicalMinAmplitude      = 0.3
	disengagementRatio        = 0.5
	disengagementMinMessages  = 4
)

// TemporalService scans a student's risk-profile history for named
// trend patterns. It only appends TemporalPattern rows; profiles and
// alerts are never touched.
type TemporalService struct {
	RiskRepo     *repository.RiskRepository
	AnalysisRepo *repository.AnalysisRepository
	TemporalRepo *repository.TemporalRepository

	mu     sync.RWMutex
	config config.RiskConfig
}

func NewTemporalService(
	riskRepo *repository.RiskRepository,
	analysisRepo *repository.AnalysisRepository,
	temporalRepo *repository.TemporalRepository,
	cfg config.RiskConfig,
) *TemporalService {
	return &TemporalService{
		RiskRepo:     riskRepo,
		AnalysisRepo: analysisRepo,
		TemporalRepo: temporalRepo,
		config:       cfg,
	}
}

func (s *TemporalService) SetTuning(cfg config.RiskConfig) {
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
}

func (s *TemporalService) tuning() config.RiskConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Analyze inspects the student's recent risk history and persists any
// detected patterns. Fewer than two points in the window yields
// ErrInsufficientData and no rows.
func (s *TemporalService) Analyze(studentID uint) ([]model.TemporalPattern, error) {
	windowStart := time.Now().AddDate(0, 0, -s.tuning().TemporalWindowDays)
	profiles, err := s.RiskRepo.ListByStudentSince(studentID, windowStart)
	if err != nil {
		return nil, err
	}
	if len(profiles) < 2 {
		return nil, util.ErrInsufficientData
	}

	scores := make([]float64, len(profiles))
	times := make([]time.Time, len(profiles))
	for i, p := range profiles {
		scores[i] = p.RiskScore
		times[i] = p.AssessedAt
	}

	velocities := computeVelocities(scores, times)
	accelerations := computeAccelerations(velocities, times)

	now := time.Now()
	var detected []model.TemporalPattern
	add := func(patternType string, confidence float64, data model.PatternData) {
		data.WindowDays = s.tuning().TemporalWindowDays
		data.PointCount = len(scores)
		detected = append(detected, model.TemporalPattern{
			StudentID:   studentID,
			PatternType: patternType,
			Confidence:  confidence,
			Multiplier:  model.PatternMultiplier(patternType),
			DetectedAt:  now,
			Data:        data,
		})
	}

	meanV := mean(velocities)
	meanA := 0.0
	if len(accelerations) > 0 {
		meanA = mean(accelerations)
	}

	if p, conf := detectRapidDeterioration(velocities); p {
		add(model.PatternRapidDeterioration, conf, model.PatternData{
			Velocity:     meanV,
			Acceleration: meanA,
		})
	}
	if p := detectPreDecisionCalm(scores, velocities); p {
		add(model.PatternPreDecisionCalm, 0.9, model.PatternData{
			Velocity:      velocities[len(velocities)-1],
			Acceleration:  meanA,
			PeakRiskScore: maxOf(scores[:len(scores)-1]),
		})
	}
	if p, m := detectChronicElevated(scores); p {
		add(model.PatternChronicElevated, 0.8, model.PatternData{
			MeanRiskScore: m,
		})
	}
	if p, cycle := detectCyclical(scores, times); p {
		add(model.PatternCyclical, 0.7, model.PatternData{
			MeanRiskScore:   mean(scores),
			CycleLengthDays: cycle,
		})
	}
	if p, note := s.detectDisengagement(studentID, windowStart, now); p {
		add(model.PatternDisengagement, 0.7, model.PatternData{Notes: note})
	}

	if err := s.TemporalRepo.CreateAll(detected); err != nil {
		return nil, err
	}

	for _, p := range detected {
		monitoring.PatternsDetected.WithLabelValues(p.PatternType).Inc()
		logger.Log.Info("Temporal pattern detected",
			zap.Uint("student_id", studentID),
			zap.String("pattern", p.PatternType),
			zap.Float64("confidence", p.Confidence),
			zap.Bool("immediate_action", p.RequiresImmediateAction()))
	}
	return detected, nil
}

const (
	TrendWorsening        = "worsening"
	TrendImproving        = "improving"
	TrendStable           = "stable"
	TrendInsufficientData = "insufficient_data"

	trendMargin = 0.15
)

type TrajectoryPoint struct {
	Timestamp  time.Time `json:"timestamp"`
	RiskLevel  string    `json:"riskLevel"`
	RiskScore  float64   `json:"riskScore"`
	Confidence float64   `json:"confidence"`
}

type Trajectory struct {
	StudentID       uint                    `json:"studentId"`
	WindowDays      int                     `json:"windowDays"`
	Points          []TrajectoryPoint       `json:"points"`
	CurrentVelocity *float64                `json:"currentVelocity,omitempty"`
	Trend           string                  `json:"trend"`
	Patterns        []model.TemporalPattern `json:"patterns"`
}

// Trajectory returns the student's risk time series with an overall
// trend verdict, for the counselor's detail view. It reads history
// only and never persists anything.
func (s *TemporalService) Trajectory(studentID uint) (*Trajectory, error) {
	windowStart := time.Now().AddDate(0, 0, -s.tuning().TemporalWindowDays)
	profiles, err := s.RiskRepo.ListByStudentSince(studentID, windowStart)
	if err != nil {
		return nil, err
	}
	patterns, err := s.TemporalRepo.RecentByStudent(studentID, 10)
	if err != nil {
		return nil, err
	}

	traj := &Trajectory{
		StudentID:  studentID,
		WindowDays: s.tuning().TemporalWindowDays,
		Points:     make([]TrajectoryPoint, 0, len(profiles)),
		Trend:      trendOf(profiles),
		Patterns:   patterns,
	}
	for _, p := range profiles {
		traj.Points = append(traj.Points, TrajectoryPoint{
			Timestamp:  p.AssessedAt,
			RiskLevel:  p.RiskLevel,
			RiskScore:  p.RiskScore,
			Confidence: p.Confidence,
		})
	}
	if len(patterns) > 0 {
		v := patterns[0].Data.Velocity
		traj.CurrentVelocity = &v
	}
	return traj, nil
}

// trendOf compares the newer half of the level series against the
// older half. Levels, not raw scores, so one noisy score cannot flip
// the verdict.
func trendOf(profiles []model.RiskProfile) string {
	if len(profiles) < 2 {
		return TrendInsufficientData
	}
	levels := make([]float64, len(profiles))
	for i, p := range profiles {
		levels[i] = model.RiskNumeric(p.RiskLevel)
	}
	mid := len(levels) / 2
	recent := mean(levels[mid:])
	older := mean(levels[:mid])
	switch {
	case recent > older+trendMargin:
		return TrendWorsening
	case recent < older-trendMargin:
		return TrendImproving
	default:
		return TrendStable
	}
}

// computeVelocities returns per-segment velocity on the improvement
// axis: (previous score - current score) / days elapsed. Segments
// shorter than an hour are clamped to avoid divide-by-near-zero spikes.
func computeVelocities(scores []float64, times []time.Time) []float64 {
	velocities := make([]float64, 0, len(scores)-1)
	for i := 1; i < len(scores); i++ {
		dt := times[i].Sub(times[i-1]).Hours() / 24
		if dt < 1.0/24 {
			dt = 1.0 / 24
		}
		velocities = append(velocities, (scores[i-1]-scores[i])/dt)
	}
	return velocities
}

func computeAccelerations(velocities []float64, times []time.Time) []float64 {
	if len(velocities) < 2 {
		return nil
	}
	accelerations := make([]float64, 0, len(velocities)-1)
	for i := 1; i < len(velocities); i++ {
		dt := times[i+1].Sub(times[i]).Hours() / 24
		if dt < 1.0/24 {
			dt = 1.0 / 24
		}
		accelerations = append(accelerations, (velocities[i]-velocities[i-1])/dt)
	}
	return accelerations
}

// detectRapidDeterioration requires sustained worsening across the
// window with at least one steep segment.
func detectRapidDeterioration(velocities []float64) (bool, float64) {
	if len(velocities) == 0 {
		return false, 0
	}
	meanV := mean(velocities)
	minV := velocities[0]
	for _, v := range velocities {
		if v < minV {
			minV = v
		}
	}
	if meanV > deteriorationMeanVelocity || minV > deteriorationPeakVelocity {
		return false, 0
	}
	conf := math.Min(1, math.Abs(meanV)/math.Abs(deteriorationPeakVelocity))
	if conf < 0.5 {
		conf = 0.5
	}
	return true, conf
}

// detectPreDecisionCalm looks for a sharp risk drop immediately after
// a period of sustained elevated risk.
func detectPreDecisionCalm(scores, velocities []float64) bool {
	if len(velocities) == 0 {
		return false
	}
	lastV := velocities[len(velocities)-1]
	if lastV < calmDropVelocity {
		return false
	}
	prior := scores[:len(scores)-1]
	if maxOf(prior) < calmElevatedPeak {
		return false
	}
	tail := prior
	if len(tail) > 2 {
		tail = tail[len(tail)-2:]
	}
	return mean(tail) >= calmElevatedMean
}

func detectChronicElevated(scores []float64) (bool, float64) {
	minS := scores[0]
	for _, s := range scores {
		if s < minS {
			minS = s
		}
	}
	m := mean(scores)
	if minS < chronicMinScore || m < chronicMeanScore {
		return false, 0
	}
	return stdDev(scores, m) <= chronicMaxStdDev, m
}

// detectCyclical counts direction reversals across the window and
// requires the oscillation amplitude to be clinically meaningful.
func detectCyclical(scores []float64, times []time.Time) (bool, float64) {
	if len(scores) < 4 {
		return false, 0
	}
	reversals := 0
	prevDir := 0
	for i := 1; i < len(scores); i++ {
		dir := 0
		if scores[i] > scores[i-1] {
			dir = 1
		} else if scores[i] < scores[i-1] {
			dir = -1
		}
		if dir != 0 && prevDir != 0 && dir != prevDir {
			reversals++
		}
		if dir != 0 {
			prevDir = dir
		}
	}
	amplitude := maxOf(scores) - minOf(scores)
	if reversals < cyclicalMinReversals || amplitude < cyclicalMinAmplitude {
		return false, 0
	}
	span := times[len(times)-1].Sub(times[0]).Hours() / 24
	cycle := span / float64(reversals)
	return true, cycle
}

// detectDisengagement compares message volume between the two halves
// of the window, independent of sentiment.
func (s *TemporalService) detectDisengagement(studentID uint, windowStart, now time.Time) (bool, string) {
	analyses, err := s.AnalysisRepo.ListByStudentSince(studentID, windowStart)
	if err != nil || len(analyses) == 0 {
		return false, ""
	}
	mid := windowStart.Add(now.Sub(windowStart) / 2)
	var first, second int
	for _, a := range analyses {
		if a.MessageTimestamp.Before(mid) {
			first++
		} else {
			second++
		}
	}
	if first < disengagementMinMessages {
		return false, ""
	}
	if float64(second) > disengagementRatio*float64(first) {
		return false, ""
	}
	return true, "message volume dropped by half between window halves"
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdDev(xs []float64, m float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs {
		if x < m {
			m = x
		}
	}
	return m
}
