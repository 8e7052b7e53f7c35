package model

import "time"

// MessageSignals is the structured output of signal extraction for one
// message. Scores are in [0,1] unless noted otherwise.
type MessageSignals struct {
	Sentiment         float64  `json:"sentiment"` // [-1,1]
	HopelessnessScore float64  `json:"hopelessness_score"`
	IsolationScore    float64  `json:"isolation_score"`
	SleepDisruption   float64  `json:"sleep_disruption"`
	AcademicStress    float64  `json:"academic_stress"`
	EmojiCount        int      `json:"emoji_count"`
	EmojiSentiment    float64  `json:"emoji_sentiment"`
	WordCount         int      `json:"word_count"`
	ConcernIndicators []string `json:"concern_indicators,omitempty"`
	SafetyFlags       []string `json:"safety_flags,omitempty"`
}

// CheckpointTrace records which pipeline checkpoint a message analysis
// reached and, on failure, which one it stopped at.
type CheckpointTrace struct {
	Completed []string `json:"completed"`
	FailedAt  string   `json:"failed_at,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type MessageAnalysis struct {
	BaseModel
	StudentID        uint            `gorm:"index;not null" json:"studentId"`
	MessageTimestamp time.Time       `gorm:"index;not null" json:"messageTimestamp"`
	MessageText      string          `gorm:"type:text" json:"messageText"`
	ContentHash      string          `gorm:"size:64;index" json:"contentHash"`
	Signals          MessageSignals  `gorm:"serializer:json" json:"signals"`
	Trace            CheckpointTrace `gorm:"serializer:json" json:"trace"`
	CrisisDetected   bool            `gorm:"index" json:"crisisDetected"`
	ScreenTriggered  bool            `json:"screenTriggered"`
	DeviationScore   float64         `json:"deviationScore"`

	Student Student `gorm:"foreignKey:StudentID" json:"-"`
}

func (MessageAnalysis) TableName() string {
	return "message_analyses"
}
