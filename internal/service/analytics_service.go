package service

import (
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/repository"
	"math"
	"sort"
	"time"
)

// AnalyticsService backs the counselor dashboard and program-level
// reporting. It only reads; all rows it surfaces are produced by the
// pipeline services.
type AnalyticsService struct {
	RiskRepo       *repository.RiskRepository
	AlertRepo      *repository.AlertRepository
	StudentRepo    *repository.StudentRepository
	AnalysisRepo   *repository.AnalysisRepository
	AssessmentRepo *repository.AssessmentRepository
	CrisisRepo     *repository.CrisisRepository
	Outcomes       *OutcomeService
	Feedback       *FeedbackService
}

func NewAnalyticsService(
	riskRepo *repository.RiskRepository,
	alertRepo *repository.AlertRepository,
	studentRepo *repository.StudentRepository,
	analysisRepo *repository.AnalysisRepository,
	assessmentRepo *repository.AssessmentRepository,
	crisisRepo *repository.CrisisRepository,
	outcomes *OutcomeService,
	feedback *FeedbackService,
) *AnalyticsService {
	return &AnalyticsService{
		RiskRepo:       riskRepo,
		AlertRepo:      alertRepo,
		StudentRepo:    studentRepo,
		AnalysisRepo:   analysisRepo,
		AssessmentRepo: assessmentRepo,
		CrisisRepo:     crisisRepo,
		Outcomes:       outcomes,
		Feedback:       feedback,
	}
}

// DashboardSummary is the counselor landing view.
type DashboardSummary struct {
	AlertCounts       map[string]int64    `json:"alertCounts"`
	HighRiskStudents  []model.RiskProfile `json:"highRiskStudents"`
	OutcomeSummary    *OutcomeSummary     `json:"outcomeSummary"`
	AlertPrecision    *PrecisionStats     `json:"alertPrecision"`
	MeanResponseHours float64             `json:"meanResponseHours"`
}

func (s *AnalyticsService) Dashboard() (*DashboardSummary, error) {
	alertCounts, err := s.AlertRepo.CountByStatus()
	if err != nil {
		return nil, err
	}

	highRisk, err := s.RiskRepo.LatestPerStudent([]string{model.RiskHigh, model.RiskCrisis})
	if err != nil {
		return nil, err
	}

	outcomes, err := s.Outcomes.Summary()
	if err != nil {
		return nil, err
	}

	precision, err := s.Feedback.Precision()
	if err != nil {
		return nil, err
	}

	responseHours, err := s.meanResponseHours(30)
	if err != nil {
		return nil, err
	}

	return &DashboardSummary{
		AlertCounts:       alertCounts,
		HighRiskStudents:  highRisk,
		OutcomeSummary:    outcomes,
		AlertPrecision:    precision,
		MeanResponseHours: responseHours,
	}, nil
}

// meanResponseHours averages creation-to-review latency over recently
// reviewed alerts. Zero when nothing was reviewed in the window.
func (s *AnalyticsService) meanResponseHours(days int) (float64, error) {
	reviewed, err := s.AlertRepo.ListReviewedSince(time.Now().AddDate(0, 0, -days))
	if err != nil {
		return 0, err
	}
	var total float64
	var counted int
	for _, a := range reviewed {
		if a.ReviewedAt == nil {
			continue
		}
		total += a.ReviewedAt.Sub(a.CreatedAt).Hours()
		counted++
	}
	if counted == 0 {
		return 0, nil
	}
	return math.Round(total/float64(counted)*10) / 10, nil
}

// Wellness display scores per risk level. Inverse of risk so the
// admin chart reads "higher is better".
func wellnessScore(riskLevel string) float64 {
	switch riskLevel {
	case model.RiskLow:
		return 85
	case model.RiskMedium:
		return 60
	case model.RiskHigh:
		return 35
	case model.RiskCrisis:
		return 15
	default:
		return 50
	}
}

type WellnessPoint struct {
	Date            string  `json:"date"`
	Overall         float64 `json:"overall"`
	RiskLevel       string  `json:"riskLevel"`
	AssessmentCount int     `json:"assessmentCount"`
}

// WellnessTrends aggregates every student's risk profiles into one
// wellness point per calendar day: average wellness score, dominant
// risk level, and how many assessments were completed that day.
func (s *AnalyticsService) WellnessTrends(days int) ([]WellnessPoint, error) {
	if days < 7 {
		days = 7
	}
	if days > 365 {
		days = 365
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	profiles, err := s.RiskRepo.ListSince(cutoff)
	if err != nil {
		return nil, err
	}
	assessments, err := s.AssessmentRepo.ListSince(cutoff)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		wellnessSum float64
		samples     int
		levelCounts map[string]int
		assessments int
	}
	buckets := make(map[string]*bucket)
	day := func(t time.Time) string { return t.Format("2006-01-02") }

	for _, p := range profiles {
		key := day(p.AssessedAt)
		b := buckets[key]
		if b == nil {
			b = &bucket{levelCounts: make(map[string]int)}
			buckets[key] = b
		}
		b.wellnessSum += wellnessScore(p.RiskLevel)
		b.samples++
		b.levelCounts[p.RiskLevel]++
	}
	for _, a := range assessments {
		if b := buckets[day(a.CompletedAt)]; b != nil {
			b.assessments++
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	points := make([]WellnessPoint, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		dominant := ""
		for level, count := range b.levelCounts {
			if dominant == "" || count > b.levelCounts[dominant] {
				dominant = level
			}
		}
		points = append(points, WellnessPoint{
			Date:            k,
			Overall:         math.Round(b.wellnessSum/float64(b.samples)*10) / 10,
			RiskLevel:       dominant,
			AssessmentCount: b.assessments,
		})
	}
	return points, nil
}

// AdminStats is the program-level counter block for the admin
// dashboard.
type AdminStats struct {
	TotalStudents    int64            `json:"totalStudents"`
	MessagesAnalyzed int64            `json:"messagesAnalyzed"`
	AssessmentCount  int64            `json:"assessmentCount"`
	CrisisReports    int64            `json:"crisisReports"`
	AlertCounts      map[string]int64 `json:"alertCounts"`
	HighRiskStudents int              `json:"highRiskStudents"`
}

func (s *AnalyticsService) AdminStats() (*AdminStats, error) {
	stats := &AdminStats{}
	var err error

	if stats.TotalStudents, err = s.StudentRepo.Count(); err != nil {
		return nil, err
	}
	if stats.MessagesAnalyzed, err = s.AnalysisRepo.Count(); err != nil {
		return nil, err
	}
	if stats.AssessmentCount, err = s.AssessmentRepo.Count(); err != nil {
		return nil, err
	}
	if stats.CrisisReports, err = s.CrisisRepo.CountReports(); err != nil {
		return nil, err
	}
	if stats.AlertCounts, err = s.AlertRepo.CountByStatus(); err != nil {
		return nil, err
	}

	highRisk, err := s.RiskRepo.LatestPerStudent([]string{model.RiskHigh, model.RiskCrisis})
	if err != nil {
		return nil, err
	}
	stats.HighRiskStudents = len(highRisk)
	return stats, nil
}
