package models

import "time"

// User is a platform account that posts or reacts. Rows are created on first
// observation and refreshed when the display fields change; never deleted here.
type User struct {
	ID        string  `gorm:"primaryKey" json:"id"`
	Name      string  `json:"name"`
	Username  *string `json:"username,omitempty"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
