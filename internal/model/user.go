package model

import (
	"time"
)

// User is a hard-deleted account row. Emails are stored trimmed and lower-cased.
type User struct {
	ID        uint      `gorm:"primarykey"`
	Name      string    `gorm:"column:name;size:255;not null"`
	Email     string    `gorm:"column:email;size:255;uniqueIndex:idx_users_email;not null"`
	Password  string    `gorm:"column:password;size:255;not null" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at;index:idx_users_created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`

	Tokens []PersonalAccessToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}
