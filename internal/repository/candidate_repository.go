package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fadilmartias/interview-proctor/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CandidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) *CandidateRepository {
	return &CandidateRepository{db}
}

// Completion is the full overwrite applied when a call report arrives.
type Completion struct {
	Transcript          string
	Summary             string
	RecordingURL        string
	FinalScore          int
	TechnicalRating     int
	CommunicationRating int
	CodingLogicRating   int
	At                  time.Time
}

func (r *CandidateRepository) Create(ctx context.Context, c *model.Candidate) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CandidateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Candidate, error) {
	var c model.Candidate
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CompleteSession marks the session Completed and overwrites the scoring
// fields. Reapplying the same completion leaves the row unchanged; the
// completion time is only stamped once. An empty recording URL keeps the
// stored one.
func (r *CandidateRepository) CompleteSession(ctx context.Context, id uuid.UUID, c Completion) error {
	updates := map[string]any{
		"interview_status":     model.StatusCompleted,
		"transcript":           c.Transcript,
		"summary":              c.Summary,
		"final_score":          c.FinalScore,
		"technical_rating":     c.TechnicalRating,
		"communication_rating": c.CommunicationRating,
		"coding_logic_rating":  c.CodingLogicRating,
		"completed_at":         gorm.Expr("COALESCE(completed_at, ?)", c.At),
	}
	if c.RecordingURL != "" {
		updates["recording_url"] = c.RecordingURL
	}
	res := r.db.WithContext(ctx).Model(&model.Candidate{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateInterviewStatus moves a session that is not yet Completed. It
// reports false when the session was already Completed.
func (r *CandidateRepository) UpdateInterviewStatus(ctx context.Context, id uuid.UUID, status model.InterviewStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Candidate{}).
		Where("id = ? AND interview_status <> ?", id, model.StatusCompleted).
		Update("interview_status", status)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// SetRecordingURLIfEmpty stores url unless the provider already supplied one.
func (r *CandidateRepository) SetRecordingURLIfEmpty(ctx context.Context, id uuid.UUID, url string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Candidate{}).
		Where("id = ? AND (recording_url IS NULL OR recording_url = '')", id).
		Update("recording_url", url)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// ListCompleted pages through completed sessions, newest first. A limit of
// zero returns every row.
func (r *CandidateRepository) ListCompleted(ctx context.Context, offset, limit int) ([]model.Candidate, int64, error) {
	var total int64
	base := r.db.WithContext(ctx).Model(&model.Candidate{}).Where("interview_status = ?", model.StatusCompleted)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var candidates []model.Candidate
	q := r.db.WithContext(ctx).
		Where("interview_status = ?", model.StatusCompleted).
		Order("created_at desc")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	err := q.Find(&candidates).Error
	return candidates, total, err
}

func (r *CandidateRepository) UpdateSelection(ctx context.Context, id uuid.UUID, status model.SelectionStatus) (*model.Candidate, error) {
	res := r.db.WithContext(ctx).Model(&model.Candidate{}).Where("id = ?", id).Update("selection_status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}
