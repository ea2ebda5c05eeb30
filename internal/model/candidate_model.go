package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type InterviewStatus string

const (
	StatusScheduled  InterviewStatus = "Scheduled"
	StatusReady      InterviewStatus = "Ready"
	StatusInProgress InterviewStatus = "InProgress"
	StatusCompleted  InterviewStatus = "Completed"
)

type SelectionStatus string

const (
	SelectionPending  SelectionStatus = "Pending"
	SelectionSelected SelectionStatus = "Selected"
	SelectionRejected SelectionStatus = "Rejected"
)

// Candidate is one interview session. Its ID is the correlation key the
// voice provider echoes back in the call report.
type Candidate struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID              string           `gorm:"type:varchar(128);index" json:"user_id"`
	Name                string           `gorm:"type:varchar(255)" json:"name"`
	Email               string           `gorm:"type:varchar(255)" json:"email"`
	Phone               string           `gorm:"type:varchar(64)" json:"phone"`
	ResumeText          string           `gorm:"type:text" json:"resume_text"`
	Skills              string           `gorm:"type:text" json:"skills"`
	FocusAreas          string           `gorm:"type:text" json:"focus_areas"`
	Seniority           string           `gorm:"type:varchar(32)" json:"seniority"`
	MatchedRole         string           `gorm:"type:varchar(255)" json:"matched_role"`
	Embedding           *pgvector.Vector `gorm:"type:vector(3072)" json:"-"`
	InterviewStatus     InterviewStatus  `gorm:"type:varchar(32);index;default:Scheduled" json:"interview_status"`
	SelectionStatus     SelectionStatus  `gorm:"type:varchar(32);default:Pending" json:"selection_status"`
	FinalScore          int              `json:"final_score"`
	TechnicalRating     int              `json:"technical_rating"`
	CommunicationRating int              `json:"communication_rating"`
	CodingLogicRating   int              `json:"coding_logic_rating"`
	Transcript          string           `gorm:"type:text" json:"transcript"`
	Summary             string           `gorm:"type:text" json:"summary"`
	RecordingURL        string           `gorm:"type:text" json:"recording_url"`
	AIResult            string           `gorm:"type:text" json:"ai_result"` // recruiter summary of the resume
	CompletedAt         *time.Time       `json:"completed_at"`
	CreatedAt           time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

func (c *Candidate) TableName() string {
	return "candidates"
}

func (c *Candidate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
