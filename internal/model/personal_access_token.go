package model

import (
	"time"

	"gorm.io/datatypes"
)

// PersonalAccessToken is an issued bearer token. Token holds the hex SHA-256
// of the secret; the plaintext is only ever returned at issuance.
type PersonalAccessToken struct {
	ID         uint           `gorm:"primarykey"`
	UserID     uint           `gorm:"column:user_id;not null;uniqueIndex:idx_pat_user_name,priority:1"`
	Name       string         `gorm:"column:name;size:255;not null;uniqueIndex:idx_pat_user_name,priority:2"`
	Token      string         `gorm:"column:token;size:64;not null;uniqueIndex:idx_pat_token"`
	Abilities  datatypes.JSON `gorm:"column:abilities"`
	LastUsedAt *time.Time     `gorm:"column:last_used_at"`
	ExpiresAt  time.Time      `gorm:"column:expires_at;not null;index:idx_pat_expires_at"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at"`
}

func (PersonalAccessToken) TableName() string {
	return "personal_access_tokens"
}

// Expired reports whether the token is no longer usable at now.
func (t *PersonalAccessToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
