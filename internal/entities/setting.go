package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	Encrypted bool      `gorm:"default:false" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys for the persisted library session.
// There is no password key; passwords are never persisted.
const (
	SettingKeyServiceURL = "serviceUrl"
	SettingKeyUsername   = "username"
	SettingKeyToken      = "token"
)
