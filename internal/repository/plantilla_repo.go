package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MioNatsuki/sistema-emision/internal/model"
)

// PlantillaRepository reads and writes plantillas. Reads that feed API
// responses come joined with the project and padrón names.
type PlantillaRepository interface {
	FindDetalle(ctx context.Context, id uuid.UUID) (*model.PlantillaDetalle, error)
	ListDetalleByProyecto(ctx context.Context, proyectoID uuid.UUID) ([]model.PlantillaDetalle, error)

	// Used inside transactions; callers must pass the tx instance
	CreateTx(tx *gorm.DB, p *model.Plantilla) error
	FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Plantilla, error)
	ExisteNombreTx(tx *gorm.DB, proyectoID uuid.UUID, nombre string, excluir *uuid.UUID) (bool, error)
	UpdateTx(tx *gorm.DB, p *model.Plantilla) error

	DB() *gorm.DB
}

type plantillaRepo struct{ db *gorm.DB }

func NewPlantillaRepository(db *gorm.DB) PlantillaRepository { return &plantillaRepo{db: db} }

func (r *plantillaRepo) DB() *gorm.DB { return r.db }

func (r *plantillaRepo) detalle(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("plantillas pl").
		Select("pl.*, pr.nombre_proyecto, pa.nombre_padron").
		Joins("LEFT JOIN proyectos pr ON pr.uuid_proyecto = pl.uuid_proyecto").
		Joins("LEFT JOIN identificador_padron pa ON pa.uuid_padron = pl.uuid_padron").
		Where("pl.is_deleted = false")
}

func (r *plantillaRepo) FindDetalle(ctx context.Context, id uuid.UUID) (*model.PlantillaDetalle, error) {
	var d model.PlantillaDetalle
	res := r.detalle(ctx).Where("pl.uuid_plantilla = ?", id).Limit(1).Scan(&d)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &d, nil
}

func (r *plantillaRepo) ListDetalleByProyecto(ctx context.Context, proyectoID uuid.UUID) ([]model.PlantillaDetalle, error) {
	var out []model.PlantillaDetalle
	err := r.detalle(ctx).
		Where("pl.uuid_proyecto = ?", proyectoID).
		Order("pl.created_on DESC").
		Scan(&out).Error
	return out, err
}

func (r *plantillaRepo) CreateTx(tx *gorm.DB, p *model.Plantilla) error {
	return tx.Create(p).Error
}

func (r *plantillaRepo) FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Plantilla, error) {
	var p model.Plantilla
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("uuid_plantilla = ? AND is_deleted = false", id).
		First(&p).Error
	return &p, err
}

func (r *plantillaRepo) ExisteNombreTx(tx *gorm.DB, proyectoID uuid.UUID, nombre string, excluir *uuid.UUID) (bool, error) {
	q := tx.Model(&model.Plantilla{}).
		Where("uuid_proyecto = ? AND nombre_plantilla = ? AND is_deleted = false", proyectoID, nombre)
	if excluir != nil {
		q = q.Where("uuid_plantilla <> ?", *excluir)
	}
	var n int64
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *plantillaRepo) UpdateTx(tx *gorm.DB, p *model.Plantilla) error {
	return tx.Save(p).Error
}
