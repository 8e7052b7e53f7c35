package model

import "time"

const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
	RiskCrisis = "CRISIS"
)

// RiskNumeric maps a risk level to its scalar score used by the
// temporal analyses.
func RiskNumeric(level string) float64 {
	switch level {
	case RiskCrisis:
		return 1.0
	case RiskHigh:
		return 0.75
	case RiskMedium:
		return 0.5
	default:
		return 0.25
	}
}

// RiskRank orders levels for severity comparisons, higher is worse.
func RiskRank(level string) int {
	switch level {
	case RiskCrisis:
		return 4
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// RiskFactors itemizes the score components that contributed to a
// risk determination.
type RiskFactors struct {
	BaseScore          float64  `json:"base_score"`
	DeviationWeight    float64  `json:"deviation_weight"`
	PatternMultiplier  float64  `json:"pattern_multiplier"`
	ActivePatterns     []string `json:"active_patterns,omitempty"`
	AssessmentSeverity string   `json:"assessment_severity,omitempty"`
	CrisisKeywords     bool     `json:"crisis_keywords"`
}

type RiskProfile struct {
	BaseModel
	StudentID         uint        `gorm:"index;not null" json:"studentId"`
	RiskLevel         string      `gorm:"size:12;index;not null" json:"riskLevel"`
	RiskScore         float64     `gorm:"not null" json:"riskScore"`
	Confidence        float64     `gorm:"not null" json:"confidence"`
	RecommendedAction string      `gorm:"size:256" json:"recommendedAction"`
	Factors           RiskFactors `gorm:"serializer:json" json:"factors"`
	AssessedAt        time.Time   `gorm:"index;not null" json:"assessedAt"`
	SourceAnalysisID  *uint       `json:"sourceAnalysisId,omitempty"`

	Student Student `gorm:"foreignKey:StudentID" json:"-"`
}

func (RiskProfile) TableName() string {
	return "risk_profiles"
}
