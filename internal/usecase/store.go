package usecase

import (
	"context"
	"errors"

	"github.com/fadilmartias/interview-proctor/internal/model"
	"github.com/fadilmartias/interview-proctor/internal/repository"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type CandidateStore interface {
	Create(ctx context.Context, c *model.Candidate) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Candidate, error)
	CompleteSession(ctx context.Context, id uuid.UUID, c repository.Completion) error
	UpdateInterviewStatus(ctx context.Context, id uuid.UUID, status model.InterviewStatus) (bool, error)
	SetRecordingURLIfEmpty(ctx context.Context, id uuid.UUID, url string) (bool, error)
	ListCompleted(ctx context.Context, offset, limit int) ([]model.Candidate, int64, error)
	UpdateSelection(ctx context.Context, id uuid.UUID, status model.SelectionStatus) (*model.Candidate, error)
}

type ProctorLogStore interface {
	Append(ctx context.Context, log *model.ProctorLog) error
	ListByCandidate(ctx context.Context, candidateID uuid.UUID) ([]model.ProctorLog, error)
	ListByCandidates(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]model.ProctorLog, error)
}

type RoleStore interface {
	SearchRoles(ctx context.Context, embedding pgvector.Vector, topK int) ([]model.InterviewRole, error)
	CreateRole(ctx context.Context, role *model.InterviewRole) error
}

// parseSessionID maps an unparsable id to ErrSessionNotFound; such an id
// can never match a stored session.
func parseSessionID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrSessionNotFound
	}
	return id, nil
}

// storeErr converts a repository error into the usecase taxonomy.
func storeErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSessionNotFound
	}
	return &PersistenceError{Op: op, Err: err}
}
