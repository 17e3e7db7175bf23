// Package models contains the gorm models.
package models

// Session is one row of the sqlite session storage.
type Session struct {
	ID        string `gorm:"primaryKey;size:128"`
	Value     []byte
	ExpiresAt int64 `gorm:"index"` // unix seconds, 0 never expires
}
