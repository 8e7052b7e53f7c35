package model

const (
	FeedbackAccurate      = "accurate"
	FeedbackFalsePositive = "false_positive"
	FeedbackMissedRisk    = "missed_risk"
)

type CounselorFeedback struct {
	BaseModel
	AlertID     uint   `gorm:"index;not null" json:"alertId"`
	CounselorID uint   `gorm:"index;not null" json:"counselorId"`
	Verdict     string `gorm:"size:16;not null" json:"verdict"`
	Notes       string `gorm:"size:1024" json:"notes,omitempty"`

	Alert Alert `gorm:"foreignKey:AlertID" json:"-"`
}

func (CounselorFeedback) TableName() string {
	return "counselor_feedback"
}
