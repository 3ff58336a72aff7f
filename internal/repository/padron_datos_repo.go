package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"gorm.io/gorm"

	"github.com/MioNatsuki/sistema-emision/internal/model"
)

// PadronDatosRepository reads the physical register tables. Table names must
// come from model.TablaPadron; they are quoted but never taken from input.
type PadronDatosRepository interface {
	Columnas(ctx context.Context, tabla string) ([]model.ColumnaPadron, error)
	// RegistroAleatorio returns one random row of the project, or nil when
	// the project has no rows.
	RegistroAleatorio(ctx context.Context, tabla string, proyectoID uuid.UUID) (map[string]any, error)
}

type padronDatosRepo struct{ db *gorm.DB }

func NewPadronDatosRepository(db *gorm.DB) PadronDatosRepository { return &padronDatosRepo{db: db} }

const columnasSQL = `SELECT column_name AS nombre_columna, data_type AS tipo_dato
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = ? AND column_name NOT IN ?
ORDER BY ordinal_position`

func (r *padronDatosRepo) Columnas(ctx context.Context, tabla string) ([]model.ColumnaPadron, error) {
	var cols []model.ColumnaPadron
	err := r.db.WithContext(ctx).Raw(columnasSQL, tabla, model.ColumnasVinculo).Scan(&cols).Error
	return cols, err
}

func (r *padronDatosRepo) RegistroAleatorio(ctx context.Context, tabla string, proyectoID uuid.UUID) (map[string]any, error) {
	q := fmt.Sprintf("SELECT * FROM %s WHERE uuid_proyecto = ? ORDER BY RANDOM() LIMIT 1",
		pgx.Identifier{tabla}.Sanitize())

	row := map[string]any{}
	res := r.db.WithContext(ctx).Raw(q, proyectoID).Scan(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 || len(row) == 0 {
		return nil, nil
	}
	return row, nil
}
