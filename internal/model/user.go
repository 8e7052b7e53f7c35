package model

import "time"

const (
	RoleStudent   = "student"
	RoleCounselor = "counselor"
	RoleAdmin     = "admin"
)

type User struct {
	BaseModel
	Username     string     `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"size:128;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:128;not null" json:"-"`
	Role         string     `gorm:"size:20;not null;default:student" json:"role"`
	DisplayName  string     `gorm:"size:64" json:"displayName"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	Disabled     bool       `gorm:"default:false" json:"disabled"`
}

func (User) TableName() string {
	return "users"
}
