package model

import "time"

const (
	PatternRapidDeterioration = "rapid_deterioration"
	PatternChronicElevated    = "chronic_elevated"
	PatternCyclical           = "cyclical"
	PatternDisengagement      = "disengagement"
	PatternPreDecisionCalm    = "pre_decision_calm"
)

// PatternMultiplier returns the risk multiplier carried by a detected
// pattern type.
func PatternMultiplier(patternType string) float64 {
	switch patternType {
	case PatternPreDecisionCalm:
		return 2.5
	case PatternRapidDeterioration:
		return 1.8
	case PatternChronicElevated:
		return 1.4
	case PatternCyclical:
		return 1.3
	case PatternDisengagement:
		return 1.2
	default:
		return 1.0
	}
}

// PatternData carries the numeric evidence behind a detection.
type PatternData struct {
	Velocity        float64 `json:"velocity,omitempty"`
	Acceleration    float64 `json:"acceleration,omitempty"`
	WindowDays      int     `json:"window_days,omitempty"`
	PointCount      int     `json:"point_count"`
	MeanRiskScore   float64 `json:"mean_risk_score,omitempty"`
	PeakRiskScore   float64 `json:"peak_risk_score,omitempty"`
	CycleLengthDays float64 `json:"cycle_length_days,omitempty"`
	Notes           string  `json:"notes,omitempty"`
}

type TemporalPattern struct {
	BaseModel
	StudentID   uint        `gorm:"index;not null" json:"studentId"`
	PatternType string      `gorm:"size:32;index;not null" json:"patternType"`
	Confidence  float64     `gorm:"not null" json:"confidence"`
	Multiplier  float64     `gorm:"not null" json:"multiplier"`
	DetectedAt  time.Time   `gorm:"index;not null" json:"detectedAt"`
	Data        PatternData `gorm:"serializer:json" json:"data"`

	Student Student `gorm:"foreignKey:StudentID" json:"-"`
}

// RequiresImmediateAction reports whether the pattern alone warrants
// escalation.
func (p *TemporalPattern) RequiresImmediateAction() bool {
	return p.Multiplier > 1.5
}

func (TemporalPattern) TableName() string {
	return "temporal_patterns"
}
