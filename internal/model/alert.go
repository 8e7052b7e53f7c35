package model

import "time"

const (
	AlertImmediate = "IMMEDIATE"
	AlertUrgent    = "URGENT"
	AlertRoutine   = "ROUTINE"
)

const (
	AlertPending   = "PENDING"
	AlertReviewed  = "REVIEWED"
	AlertDismissed = "DISMISSED"
)

// AlertPriority orders alert types for queue display, lower sorts first.
func AlertPriority(alertType string) int {
	switch alertType {
	case AlertImmediate:
		return 1
	case AlertUrgent:
		return 2
	default:
		return 3
	}
}

type Alert struct {
	BaseModel
	StudentID     uint       `gorm:"index;not null" json:"studentId"`
	AlertType     string     `gorm:"size:12;index;not null" json:"alertType"`
	Status        string     `gorm:"size:12;index;not null;default:PENDING" json:"status"`
	Message       string     `gorm:"size:512;not null" json:"message"`
	RiskLevel     string     `gorm:"size:12" json:"riskLevel"`
	RiskProfileID *uint      `json:"riskProfileId,omitempty"`
	ReviewedBy    *uint      `json:"reviewedBy,omitempty"`
	ReviewedAt    *time.Time `json:"reviewedAt,omitempty"`
	ReviewNotes   string     `gorm:"size:1024" json:"reviewNotes,omitempty"`
	AppointmentAt *time.Time `json:"appointmentAt,omitempty"`

	Student Student `gorm:"foreignKey:StudentID" json:"-"`
}

func (Alert) TableName() string {
	return "alerts"
}
