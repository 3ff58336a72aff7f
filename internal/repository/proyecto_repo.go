package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MioNatsuki/sistema-emision/internal/model"
)

// ProyectoRepository reads and writes proyectos. Soft-deleted rows are never
// returned.
type ProyectoRepository interface {
	FindByUUID(ctx context.Context, id uuid.UUID) (*model.Proyecto, error)
	FindDetalle(ctx context.Context, id uuid.UUID) (*model.ProyectoDetalle, error)
	ListDetalle(ctx context.Context) ([]model.ProyectoDetalle, error)

	// Used inside transactions; callers must pass the tx instance
	CreateTx(tx *gorm.DB, p *model.Proyecto) error
	FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Proyecto, error)
	ExisteNombreTx(tx *gorm.DB, nombre string, excluir *uuid.UUID) (bool, error)
	UpdateTx(tx *gorm.DB, p *model.Proyecto) error

	DB() *gorm.DB
}

type proyectoRepo struct{ db *gorm.DB }

func NewProyectoRepository(db *gorm.DB) ProyectoRepository { return &proyectoRepo{db: db} }

func (r *proyectoRepo) DB() *gorm.DB { return r.db }

func (r *proyectoRepo) FindByUUID(ctx context.Context, id uuid.UUID) (*model.Proyecto, error) {
	var p model.Proyecto
	err := r.db.WithContext(ctx).Where("uuid_proyecto = ? AND is_deleted = false", id).First(&p).Error
	return &p, err
}

func (r *proyectoRepo) detalle(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("proyectos p").
		Select("p.*, pa.nombre_padron").
		Joins("LEFT JOIN identificador_padron pa ON pa.uuid_padron = p.uuid_padron").
		Where("p.is_deleted = false")
}

func (r *proyectoRepo) FindDetalle(ctx context.Context, id uuid.UUID) (*model.ProyectoDetalle, error) {
	var d model.ProyectoDetalle
	res := r.detalle(ctx).Where("p.uuid_proyecto = ?", id).Limit(1).Scan(&d)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &d, nil
}

func (r *proyectoRepo) ListDetalle(ctx context.Context) ([]model.ProyectoDetalle, error) {
	var out []model.ProyectoDetalle
	err := r.detalle(ctx).Order("p.created_on DESC").Scan(&out).Error
	return out, err
}

func (r *proyectoRepo) CreateTx(tx *gorm.DB, p *model.Proyecto) error {
	return tx.Create(p).Error
}

func (r *proyectoRepo) FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Proyecto, error) {
	var p model.Proyecto
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("uuid_proyecto = ? AND is_deleted = false", id).
		First(&p).Error
	return &p, err
}

func (r *proyectoRepo) ExisteNombreTx(tx *gorm.DB, nombre string, excluir *uuid.UUID) (bool, error) {
	q := tx.Model(&model.Proyecto{}).Where("nombre_proyecto = ? AND is_deleted = false", nombre)
	if excluir != nil {
		q = q.Where("uuid_proyecto <> ?", *excluir)
	}
	var n int64
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *proyectoRepo) UpdateTx(tx *gorm.DB, p *model.Proyecto) error {
	return tx.Save(p).Error
}
