package model

import "time"

// BaselineProfile holds the per-student linguistic baseline accumulated
// across analyzed messages. Mean and variance use Welford's online
// algorithm so updates are O(1) and never require re-reading history.
type BaselineProfile struct {
	SessionCount      int        `json:"session_count"`
	SentimentMean     float64    `json:"sentiment_mean"`
	SentimentM2       float64    `json:"sentiment_m2"`
	MessageLengthMean float64    `json:"message_length_mean"`
	MessageLengthM2   float64    `json:"message_length_m2"`
	EmojiRateMean     float64    `json:"emoji_rate_mean"`
	EmojiRateM2       float64    `json:"emoji_rate_m2"`
	LateNightRatio    float64    `json:"late_night_ratio"`
	Established       bool       `json:"established"`
	LastMessageAt     *time.Time `json:"last_message_at,omitempty"`
}

// SentimentVariance returns the sample variance of observed sentiment,
// or 0 when fewer than two sessions have been recorded.
func (b *BaselineProfile) SentimentVariance() float64 {
	if b.SessionCount < 2 {
		return 0
	}
	return b.SentimentM2 / float64(b.SessionCount-1)
}

// Observe folds a new sentiment/length/emoji observation into the baseline.
func (b *BaselineProfile) Observe(sentiment, msgLength, emojiRate float64, lateNight bool, at time.Time) {
	b.SessionCount++
	n := float64(b.SessionCount)

	d := sentiment - b.SentimentMean
	b.SentimentMean += d / n
	b.SentimentM2 += d * (sentiment - b.SentimentMean)

	d = msgLength - b.MessageLengthMean
	b.MessageLengthMean += d / n
	b.MessageLengthM2 += d * (msgLength - b.MessageLengthMean)

	d = emojiRate - b.EmojiRateMean
	b.EmojiRateMean += d / n
	b.EmojiRateM2 += d * (emojiRate - b.EmojiRateMean)

	ln := 0.0
	if lateNight {
		ln = 1.0
	}
	b.LateNightRatio += (ln - b.LateNightRatio) / n

	t := at
	b.LastMessageAt = &t
}

type Student struct {
	BaseModel
	UserID         uint            `gorm:"uniqueIndex;not null" json:"userId"`
	ExternalID     string          `gorm:"size:64;uniqueIndex" json:"externalId"`
	EnrollmentYear int             `json:"enrollmentYear"`
	Program        string          `gorm:"size:128" json:"program"`
	ConsentGivenAt *time.Time      `json:"consentGivenAt,omitempty"`
	LastScreenedAt *time.Time      `json:"lastScreenedAt,omitempty"`
	Baseline       BaselineProfile `gorm:"serializer:json" json:"baseline"`
	User           User            `gorm:"foreignKey:UserID" json:"-"`
}

func (Student) TableName() string {
	return "students"
}
