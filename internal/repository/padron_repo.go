package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MioNatsuki/sistema-emision/internal/model"
)

type PadronRepository interface {
	List(ctx context.Context) ([]model.Padron, error)
	FindByUUID(ctx context.Context, id uuid.UUID) (*model.Padron, error)
}

type padronRepo struct{ db *gorm.DB }

func NewPadronRepository(db *gorm.DB) PadronRepository { return &padronRepo{db: db} }

func (r *padronRepo) List(ctx context.Context) ([]model.Padron, error) {
	var out []model.Padron
	err := r.db.WithContext(ctx).Where("is_deleted = false").Order("nombre_padron").Find(&out).Error
	return out, err
}

func (r *padronRepo) FindByUUID(ctx context.Context, id uuid.UUID) (*model.Padron, error) {
	var p model.Padron
	err := r.db.WithContext(ctx).Where("uuid_padron = ? AND is_deleted = false", id).First(&p).Error
	return &p, err
}
