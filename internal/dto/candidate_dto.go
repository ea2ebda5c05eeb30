package dto

import (
	"time"

	"github.com/fadilmartias/interview-proctor/internal/scoring"
	"github.com/google/uuid"
)

type ResumeResult struct {
	SessionID  uuid.UUID `json:"sessionId"`
	Name       string    `json:"name"`
	Skills     string    `json:"skills"`
	Experience string    `json:"experience"`
	FocusArea  string    `json:"focusArea"`
	Seniority  string    `json:"seniority"`
	Role       string    `json:"role,omitempty"`
}

// CandidateSummary is one dashboard row. Assessment is derived from the
// violation log on every read.
type CandidateSummary struct {
	ID                  uuid.UUID          `json:"id"`
	Name                string             `json:"name"`
	Email               string             `json:"email"`
	Phone               string             `json:"phone"`
	Skills              string             `json:"skills"`
	Seniority           string             `json:"seniority"`
	MatchedRole         string             `json:"matched_role"`
	InterviewStatus     string             `json:"interview_status"`
	SelectionStatus     string             `json:"selection_status"`
	FinalScore          int                `json:"final_score"`
	TechnicalRating     int                `json:"technical_rating"`
	CommunicationRating int                `json:"communication_rating"`
	CodingLogicRating   int                `json:"coding_logic_rating"`
	Summary             string             `json:"summary"`
	RecordingURL        string             `json:"recording_url"`
	ViolationCount      int                `json:"violation_count"`
	Assessment          scoring.Assessment `json:"assessment"`
	CompletedAt         *time.Time         `json:"completed_at"`
	CreatedAt           time.Time          `json:"created_at"`
}

type CandidateDetail struct {
	CandidateSummary
	Experience string           `json:"experience"`
	FocusAreas string           `json:"focus_areas"`
	Transcript string           `json:"transcript"`
	ResumeText string           `json:"resume_text"`
	Violations []ViolationEntry `json:"violations"`
}

type ViolationEntry struct {
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}
