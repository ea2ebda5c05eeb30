package model

import (
	"time"

	"github.com/google/uuid"
)

// ProctorLog is one append-only violation event.
type ProctorLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CandidateID   uuid.UUID `gorm:"type:uuid;index;not null" json:"candidate_id"`
	ViolationType string    `gorm:"type:varchar(64);not null" json:"violation_type"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

func (p *ProctorLog) TableName() string {
	return "proctor_logs"
}
