package model

type VoiceNote struct {
	BaseModel
	StudentID   uint    `gorm:"index;not null" json:"studentId"`
	ObjectKey   string  `gorm:"size:256;not null" json:"objectKey"`
	Format      string  `gorm:"size:16" json:"format"`
	DurationSec float64 `json:"durationSec"`
	SizeBytes   int64   `json:"sizeBytes"`
	Transcript  string  `gorm:"type:text" json:"transcript,omitempty"`
	Analyzed    bool    `gorm:"default:false" json:"analyzed"`

	Student Student `gorm:"foreignKey:StudentID" json:"-"`
}

func (VoiceNote) TableName() string {
	return "voice_notes"
}
