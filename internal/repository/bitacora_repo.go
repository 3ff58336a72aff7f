package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/MioNatsuki/sistema-emision/internal/model"
)

// BitacoraRepository appends audit rows. There is no update or delete.
type BitacoraRepository interface {
	Create(ctx context.Context, b *model.Bitacora) error
}

type bitacoraRepo struct{ db *gorm.DB }

func NewBitacoraRepository(db *gorm.DB) BitacoraRepository { return &bitacoraRepo{db: db} }

func (r *bitacoraRepo) Create(ctx context.Context, b *model.Bitacora) error {
	return r.db.WithContext(ctx).Create(b).Error
}
