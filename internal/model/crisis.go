package model

import "time"

// CrisisSnapshot is the bounded slice of a student's history captured
// at the moment a crisis protocol fires.
type CrisisSnapshot struct {
	AnalysisCount    int `json:"analysis_count"`
	RiskProfileCount int `json:"risk_profile_count"`
	AssessmentCount  int `json:"assessment_count"`
	PatternCount     int `json:"pattern_count"`

	RecentMessages     []string  `json:"recent_messages,omitempty"`
	RecentSentiments   []float64 `json:"recent_sentiments,omitempty"`
	RecentRiskScores   []float64 `json:"recent_risk_scores,omitempty"`
	RecentSeverities   []string  `json:"recent_severities,omitempty"`
	ActivePatternTypes []string  `json:"active_pattern_types,omitempty"`

	FirstMessageAt    *time.Time `json:"first_message_at,omitempty"`
	LastMessageAt     *time.Time `json:"last_message_at,omitempty"`
	MeanSentiment     float64    `json:"mean_sentiment"`
	SentimentTrend    float64    `json:"sentiment_trend"`
	LateNightRatio    float64    `json:"late_night_ratio"`
	CrisisKeywordHits int        `json:"crisis_keyword_hits"`
}

type CrisisAnalytics struct {
	BaseModel
	StudentID   uint           `gorm:"index;not null" json:"studentId"`
	TriggeredAt time.Time      `gorm:"index;not null" json:"triggeredAt"`
	TriggerType string         `gorm:"size:32;not null" json:"triggerType"`
	Snapshot    CrisisSnapshot `gorm:"serializer:json" json:"snapshot"`

	Student Student `gorm:"foreignKey:StudentID" json:"-"`
}

func (CrisisAnalytics) TableName() string {
	return "crisis_analytics"
}

type CrisisReport struct {
	BaseModel
	AnalyticsID        uint     `gorm:"index;not null" json:"analyticsId"`
	StudentID          uint     `gorm:"index;not null" json:"studentId"`
	KeyFindings        []string `gorm:"serializer:json" json:"keyFindings"`
	RecommendedActions []string `gorm:"serializer:json" json:"recommendedActions"`
	Narrative          string   `gorm:"type:text" json:"narrative"`
	NarrativeFallback  bool     `json:"narrativeFallback"`

	Analytics CrisisAnalytics `gorm:"foreignKey:AnalyticsID" json:"-"`
}

func (CrisisReport) TableName() string {
	return "crisis_reports"
}
