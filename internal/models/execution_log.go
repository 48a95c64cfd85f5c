package models

import "time"

// ExecutionLog is one row of the invocation audit trail, persisted to
// Postgres when auditing is enabled.
type ExecutionLog struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Operation      string    `gorm:"size:32;index" json:"operation"`
	Database       string    `gorm:"size:128" json:"database"`
	Collection     string    `gorm:"size:128;index" json:"collection"`
	ItemsIn        int       `json:"items_in"`
	ItemsOut       int       `json:"items_out"`
	Failed         bool      `json:"failed"`
	Error          string    `gorm:"type:text" json:"error,omitempty"`
	DurationMillis int64     `json:"duration_millis"`
	CreatedAt      time.Time `json:"created_at"`
}
