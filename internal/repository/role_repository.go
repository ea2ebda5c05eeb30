package repository

import (
	"context"

	"github.com/fadilmartias/interview-proctor/internal/model"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db}
}

// SearchRoles returns the topK roles nearest to embedding by L2 distance.
func (r *RoleRepository) SearchRoles(ctx context.Context, embedding pgvector.Vector, topK int) ([]model.InterviewRole, error) {
	var roles []model.InterviewRole
	err := r.db.WithContext(ctx).Raw(`
        SELECT *, embedding <-> ? AS distance
        FROM interview_roles
        ORDER BY embedding <-> ?
        LIMIT ?
    `, embedding, embedding, topK).Scan(&roles).Error
	return roles, err
}

func (r *RoleRepository) CreateRole(ctx context.Context, role *model.InterviewRole) error {
	return r.db.WithContext(ctx).Create(role).Error
}
