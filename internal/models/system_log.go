package models

import (
	"time"

	"gorm.io/datatypes"
)

// SystemLog is a persisted warn/error log line. Dead-lettered side effects
// land here with Action "dead_letter".
type SystemLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	Level     string         `gorm:"size:10;not null;index" json:"level"`
	Message   string         `gorm:"type:text" json:"message"`
	Event     string         `gorm:"size:100;index" json:"event"`
	TraceID   string         `gorm:"size:64;index" json:"trace_id"`
	UserID    *uint          `json:"user_id"`
	Action    string         `gorm:"size:100;index" json:"action"`
	Error     string         `gorm:"type:text" json:"error"`
	LatencyMs int            `json:"latency_ms"`
	Extra     datatypes.JSON `json:"extra"`
	CreatedAt time.Time      `json:"created_at"`
}
