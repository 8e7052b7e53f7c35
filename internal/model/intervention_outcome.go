package model

import "time"

const (
	OutcomeImproved   = "improved"
	OutcomeUnchanged  = "unchanged"
	OutcomeWorsened   = "worsened"
	OutcomeNoFollowup = "no_followup"
	OutcomeNoBaseline = "no_baseline"

	// OutcomePendingMeasure marks a row created by counselor
	// engagement bookkeeping before the sweep has measured it.
	OutcomePendingMeasure = "pending_measure"
)

type InterventionOutcome struct {
	BaseModel
	AlertID          uint       `gorm:"uniqueIndex;not null" json:"alertId"`
	StudentID        uint       `gorm:"index;not null" json:"studentId"`
	Outcome          string     `gorm:"size:16;not null" json:"outcome"`
	BaselineScore    *int       `json:"baselineScore,omitempty"`
	FollowupScore    *int       `json:"followupScore,omitempty"`
	ImprovementDelta *int       `json:"improvementDelta,omitempty"`
	Significant      bool       `json:"significant"`
	BaselineAt       *time.Time `json:"baselineAt,omitempty"`
	FollowupAt       *time.Time `json:"followupAt,omitempty"`
	CheckedAt        time.Time  `gorm:"not null" json:"checkedAt"`
	Engaged          *bool      `json:"engaged,omitempty"`
	EngagementNotes  string     `gorm:"size:1024" json:"engagementNotes,omitempty"`

	// Longer-horizon measures. The sweep fills the first three as
	// data allows; enrollment is recorded by registrar reconciliation.
	TrajectorySlope           *float64 `json:"trajectorySlope,omitempty"`
	SustainedImprovement      *bool    `json:"sustainedImprovement,omitempty"`
	SubsequentCrisisCount     *int     `json:"subsequentCrisisCount,omitempty"`
	StillEnrolledNextSemester *bool    `json:"stillEnrolledNextSemester,omitempty"`

	Alert   Alert   `gorm:"foreignKey:AlertID" json:"-"`
	Student Student `gorm:"foreignKey:StudentID" json:"-"`
}

func (InterventionOutcome) TableName() string {
	return "intervention_outcomes"
}
