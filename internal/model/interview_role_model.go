package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// InterviewRole is a role description candidates are matched against.
type InterviewRole struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string          `gorm:"type:varchar(255);not null" json:"title"`
	Content   string          `gorm:"type:text" json:"content"`
	Embedding pgvector.Vector `gorm:"type:vector(3072)" json:"-"`
	Distance  float64         `gorm:"->;-:migration" json:"distance,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (r *InterviewRole) TableName() string {
	return "interview_roles"
}

func (r *InterviewRole) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
