package repository

import (
	"context"

	"github.com/fadilmartias/interview-proctor/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProctorLogRepository struct {
	db *gorm.DB
}

func NewProctorLogRepository(db *gorm.DB) *ProctorLogRepository {
	return &ProctorLogRepository{db}
}

func (r *ProctorLogRepository) Append(ctx context.Context, log *model.ProctorLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *ProctorLogRepository) ListByCandidate(ctx context.Context, candidateID uuid.UUID) ([]model.ProctorLog, error) {
	var logs []model.ProctorLog
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("created_at asc").
		Find(&logs).Error
	return logs, err
}

// ListByCandidates loads the logs of many sessions in one query.
func (r *ProctorLogRepository) ListByCandidates(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]model.ProctorLog, error) {
	out := make(map[uuid.UUID][]model.ProctorLog, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var logs []model.ProctorLog
	err := r.db.WithContext(ctx).
		Where("candidate_id IN ?", ids).
		Order("created_at asc").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	for _, l := range logs {
		out[l.CandidateID] = append(out[l.CandidateID], l)
	}
	return out, nil
}
