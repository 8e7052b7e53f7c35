package service

import (
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/repository"
	"campuswell_backend/internal/util"
	"campuswell_backend/pkg/logger"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Snapshot recency bounds keep a crisis report finite and reproducible
// no matter how long the student's history is.
const (
	snapshotMaxAnalyses    = 30
	snapshotMaxRiskRows    = 20
	snapshotMaxAssessments = 20
	snapshotMaxPatterns    = 10
	narrativeMaxTokens     = 1000
)

const narrativeSystemMessage = `You are a clinical documentation assistant for a university counseling ` +
	`center. Write a concise, factual incident summary for the treating counselor. Use neutral clinical ` +
	`language, reference only the data provided, and do not speculate about diagnosis.`

// CrisisService assembles a point-in-time snapshot of everything known
// about a student when the crisis protocol fires, and derives a report
// from it. Structured findings are computed by rule extraction before
// the narrative call so they survive a narrative failure.
type CrisisService struct {
	CrisisRepo     *repository.CrisisRepository
	AnalysisRepo   *repository.AnalysisRepository
	RiskRepo       *repository.RiskRepository
	AssessmentRepo *repository.AssessmentRepository
	TemporalRepo   *repository.TemporalRepository
	StudentRepo    *repository.StudentRepository
	Narrative      NarrativeGenerator
}

func NewCrisisService(
	crisisRepo *repository.CrisisRepository,
	analysisRepo *repository.AnalysisRepository,
	riskRepo *repository.RiskRepository,
	assessmentRepo *repository.AssessmentRepository,
	temporalRepo *repository.TemporalRepository,
	studentRepo *repository.StudentRepository,
	narrative NarrativeGenerator,
) *CrisisService {
	return &CrisisService{
		CrisisRepo:     crisisRepo,
		AnalysisRepo:   analysisRepo,
		RiskRepo:       riskRepo,
		AssessmentRepo: assessmentRepo,
		TemporalRepo:   temporalRepo,
		StudentRepo:    studentRepo,
		Narrative:      narrative,
	}
}

// Collect snapshots the student's recent history, persists it, and
// produces the crisis report.
func (s *CrisisService) Collect(ctx context.Context, studentID uint, triggerType string) (*model.CrisisReport, error) {
	student, err := s.StudentRepo.FindByID(studentID)
	if err != nil {
		return nil, err
	}

	analyses, err := s.AnalysisRepo.RecentByStudent(studentID, snapshotMaxAnalyses)
	if err != nil {
		return nil, err
	}
	profiles, err := s.RiskRepo.RecentByStudent(studentID, snapshotMaxRiskRows)
	if err != nil {
		return nil, err
	}
	assessments, err := s.AssessmentRepo.RecentByStudent(studentID, snapshotMaxAssessments)
	if err != nil {
		return nil, err
	}
	patterns, err := s.TemporalRepo.RecentByStudent(studentID, snapshotMaxPatterns)
	if err != nil {
		return nil, err
	}

	snapshot := buildSnapshot(student, analyses, profiles, assessments, patterns)

	analytics := &model.CrisisAnalytics{
		StudentID:   studentID,
		TriggeredAt: time.Now(),
		TriggerType: triggerType,
		Snapshot:    snapshot,
	}
	if err := s.CrisisRepo.CreateAnalytics(analytics); err != nil {
		return nil, err
	}

	findings := deriveKeyFindings(snapshot, profiles, assessments)
	actions := deriveRecommendedActions(snapshot, assessments, patterns)

	report := &model.CrisisReport{
		AnalyticsID:        analytics.ID,
		StudentID:          studentID,
		KeyFindings:        findings,
		RecommendedActions: actions,
	}

	narrative, err := s.Narrative.GenerateNarrative(ctx, narrativeSystemMessage,
		buildNarrativePrompt(snapshot, findings), narrativeMaxTokens)
	if err != nil {
		logger.Log.Warn("Narrative generation failed, using fallback summary",
			zap.Uint("student_id", studentID),
			zap.Error(err))
		report.Narrative = fallbackNarrative(snapshot, findings)
		report.NarrativeFallback = true
	} else {
		report.Narrative = narrative
	}

	if err := s.CrisisRepo.CreateReport(report); err != nil {
		return nil, err
	}

	logger.Log.Info("Crisis report generated",
		zap.Uint("student_id", studentID),
		zap.Uint("report_id", report.ID),
		zap.Bool("narrative_fallback", report.NarrativeFallback))
	return report, nil
}

func (s *CrisisService) GetReport(reportID uint) (*model.CrisisReport, error) {
	report, err := s.CrisisRepo.FindReportByID(reportID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrReportNotFound
	}
	return report, err
}

func (s *CrisisService) ListReports(studentID uint, limit int) ([]model.CrisisReport, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.CrisisRepo.ListReportsByStudent(studentID, limit)
}

func buildSnapshot(
	student *model.Student,
	analyses []model.MessageAnalysis,
	profiles []model.RiskProfile,
	assessments []model.Assessment,
	patterns []model.TemporalPattern,
) model.CrisisSnapshot {
	snapshot := model.CrisisSnapshot{
		AnalysisCount:    len(analyses),
		RiskProfileCount: len(profiles),
		AssessmentCount:  len(assessments),
		PatternCount:     len(patterns),
		LateNightRatio:   student.Baseline.LateNightRatio,
	}

	for _, a := range analyses {
		text := a.MessageText
		if len(text) > 200 {
			text = text[:200]
		}
		snapshot.RecentMessages = append(snapshot.RecentMessages, text)
		snapshot.RecentSentiments = append(snapshot.RecentSentiments, a.Signals.Sentiment)
		if a.CrisisDetected {
			snapshot.CrisisKeywordHits++
		}
	}
	if len(analyses) > 0 {
		// RecentByStudent returns newest first.
		last := analyses[0].MessageTimestamp
		first := analyses[len(analyses)-1].MessageTimestamp
		snapshot.LastMessageAt = &last
		snapshot.FirstMessageAt = &first
		snapshot.MeanSentiment = mean(snapshot.RecentSentiments)
		snapshot.SentimentTrend = sentimentSlope(analyses)
	}

	for _, p := range profiles {
		snapshot.RecentRiskScores = append(snapshot.RecentRiskScores, p.RiskScore)
	}
	for _, a := range assessments {
		snapshot.RecentSeverities = append(snapshot.RecentSeverities,
			fmt.Sprintf("%s:%s", a.AssessmentType, a.Severity))
	}

	seen := map[string]bool{}
	for _, p := range patterns {
		if !seen[p.PatternType] {
			seen[p.PatternType] = true
			snapshot.ActivePatternTypes = append(snapshot.ActivePatternTypes, p.PatternType)
		}
	}
	return snapshot
}

// sentimentSlope fits a least-squares line over sentiment vs days and
// returns the per-day slope. Analyses arrive newest first.
func sentimentSlope(analyses []model.MessageAnalysis) float64 {
	n := len(analyses)
	if n < 2 {
		return 0
	}
	origin := analyses[n-1].MessageTimestamp
	var sumX, sumY, sumXY, sumXX float64
	for _, a := range analyses {
		x := a.MessageTimestamp.Sub(origin).Hours() / 24
		y := a.Signals.Sentiment
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (fn*sumXY - sumX*sumY) / denom
}

func deriveKeyFindings(
	snapshot model.CrisisSnapshot,
	profiles []model.RiskProfile,
	assessments []model.Assessment,
) []string {
	var findings []string

	if len(profiles) > 0 {
		findings = append(findings,
			fmt.Sprintf("Current risk level: %s (score %.2f)", profiles[0].RiskLevel, profiles[0].RiskScore))
	}
	if snapshot.CrisisKeywordHits > 0 {
		findings = append(findings,
			fmt.Sprintf("Explicit crisis language detected in %d recent messages", snapshot.CrisisKeywordHits))
	}
	if snapshot.AnalysisCount >= 2 && snapshot.MeanSentiment < -0.3 {
		findings = append(findings,
			fmt.Sprintf("Sustained negative sentiment (mean %.2f over %d messages)",
				snapshot.MeanSentiment, snapshot.AnalysisCount))
	}
	if snapshot.SentimentTrend < -0.05 {
		findings = append(findings,
			fmt.Sprintf("Sentiment declining at %.3f per day", snapshot.SentimentTrend))
	}
	for _, a := range assessments {
		if a.Severity == model.SeveritySevere || a.Severity == model.SeverityHighRisk ||
			a.Severity == model.SeverityModeratelySevere {
			findings = append(findings,
				fmt.Sprintf("Recent %s screening in %s band (score %d)", a.AssessmentType, a.Severity, a.Score))
			break
		}
	}
	if len(snapshot.ActivePatternTypes) > 0 {
		findings = append(findings,
			fmt.Sprintf("Active temporal patterns: %s", strings.Join(snapshot.ActivePatternTypes, ", ")))
	}
	if snapshot.LateNightRatio > 0.5 {
		findings = append(findings, "Majority of messages sent late at night")
	}
	if len(findings) == 0 {
		findings = append(findings, "No structured findings beyond the triggering event itself")
	}
	return findings
}

func deriveRecommendedActions(
	snapshot model.CrisisSnapshot,
	assessments []model.Assessment,
	patterns []model.TemporalPattern,
) []string {
	actions := []string{
		"Initiate direct contact with the student within crisis protocol timelines",
	}

	suicideRisk := snapshot.CrisisKeywordHits > 0
	for _, a := range assessments {
		if a.AssessmentType == model.AssessmentCSSRS && a.Severity == model.SeverityHighRisk {
			suicideRisk = true
		}
	}
	if suicideRisk {
		actions = append(actions, "Follow the suicide risk protocol and notify the on-call clinician")
	}

	severeScreen := false
	for _, a := range assessments {
		if a.Severity == model.SeveritySevere || a.Severity == model.SeverityModeratelySevere {
			severeScreen = true
			break
		}
	}
	if severeScreen {
		actions = append(actions, "Schedule an urgent clinical evaluation")
	}

	for _, p := range patterns {
		if p.PatternType == model.PatternDisengagement {
			actions = append(actions, "Re-engage through the student's preferred contact channel")
			break
		}
	}

	actions = append(actions, "Document all contact attempts in the case record")
	return actions
}

func buildNarrativePrompt(snapshot model.CrisisSnapshot, findings []string) string {
	var b strings.Builder
	b.WriteString("Summarize the following crisis trigger context for the treating counselor.\n\n")
	fmt.Fprintf(&b, "Messages analyzed: %d, risk computations: %d, screenings: %d, patterns: %d\n",
		snapshot.AnalysisCount, snapshot.RiskProfileCount, snapshot.AssessmentCount, snapshot.PatternCount)
	fmt.Fprintf(&b, "Mean sentiment: %.2f, sentiment trend: %.3f/day, late-night ratio: %.2f\n",
		snapshot.MeanSentiment, snapshot.SentimentTrend, snapshot.LateNightRatio)
	if len(snapshot.RecentSeverities) > 0 {
		fmt.Fprintf(&b, "Recent screening results: %s\n", strings.Join(snapshot.RecentSeverities, ", "))
	}
	b.WriteString("\nStructured findings:\n")
	for _, f := range findings {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	return b.String()
}

// fallbackNarrative is used when the narrative collaborator is down.
// The structured findings carry the clinical content either way.
func fallbackNarrative(snapshot model.CrisisSnapshot, findings []string) string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"Automated summary unavailable. Snapshot covers %d messages, %d risk computations, and %d screenings. ",
		snapshot.AnalysisCount, snapshot.RiskProfileCount, snapshot.AssessmentCount)
	b.WriteString("Key findings: ")
	b.WriteString(strings.Join(findings, "; "))
	b.WriteString(".")
	return b.String()
}
