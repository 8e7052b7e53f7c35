package model

import "time"

const (
	AssessmentPHQ9  = "PHQ9"
	AssessmentGAD7  = "GAD7"
	AssessmentPHQ2  = "PHQ2"
	AssessmentGAD2  = "GAD2"
	AssessmentCSSRS = "CSSRS"
)

const (
	SeverityMinimal          = "MINIMAL"
	SeverityMild             = "MILD"
	SeverityModerate         = "MODERATE"
	SeverityModeratelySevere = "MODERATELY_SEVERE"
	SeveritySevere           = "SEVERE"
	SeverityModerateRisk     = "MODERATE_RISK"
	SeverityHighRisk         = "HIGH_RISK"
	SeverityLowRisk          = "LOW_RISK"
	SeverityPositiveScreen   = "POSITIVE_SCREEN"
	SeverityNegativeScreen   = "NEGATIVE_SCREEN"
)

// ScoreSeverity maps a raw instrument score to its severity band.
func ScoreSeverity(assessmentType string, score int) string {
	switch assessmentType {
	case AssessmentPHQ9:
		switch {
		case score >= 20:
			return SeveritySevere
		case score >= 15:
			return SeverityModeratelySevere
		case score >= 10:
			return SeverityModerate
		case score >= 5:
			return SeverityMild
		default:
			return SeverityMinimal
		}
	case AssessmentGAD7:
		switch {
		case score >= 15:
			return SeveritySevere
		case score >= 10:
			return SeverityModerate
		case score >= 5:
			return SeverityMild
		default:
			return SeverityMinimal
		}
	case AssessmentPHQ2, AssessmentGAD2:
		if score >= 3 {
			return SeverityPositiveScreen
		}
		return SeverityNegativeScreen
	case AssessmentCSSRS:
		switch {
		case score >= 3:
			return SeverityHighRisk
		case score >= 1:
			return SeverityModerateRisk
		default:
			return SeverityLowRisk
		}
	default:
		return SeverityMinimal
	}
}

// MaxScore returns the instrument's maximum raw score.
func MaxScore(assessmentType string) int {
	switch assessmentType {
	case AssessmentPHQ9:
		return 27
	case AssessmentGAD7:
		return 21
	case AssessmentPHQ2, AssessmentGAD2:
		return 6
	case AssessmentCSSRS:
		return 6
	default:
		return 0
	}
}

type Assessment struct {
	BaseModel
	StudentID      uint      `gorm:"index;not null" json:"studentId"`
	AssessmentType string    `gorm:"size:8;index;not null" json:"assessmentType"`
	Score          int       `gorm:"not null" json:"score"`
	Severity       string    `gorm:"size:20;not null" json:"severity"`
	Answers        []int     `gorm:"serializer:json" json:"answers,omitempty"`
	CompletedAt    time.Time `gorm:"index;not null" json:"completedAt"`
	TriggerSource  string    `gorm:"size:32" json:"triggerSource,omitempty"`

	Student Student `gorm:"foreignKey:StudentID" json:"-"`
}

func (Assessment) TableName() string {
	return "assessments"
}
