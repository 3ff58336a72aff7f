package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MioNatsuki/sistema-emision/internal/model"
)

type UsuarioRepository interface {
	Create(ctx context.Context, u *model.Usuario) error
	FindByUUID(ctx context.Context, id uuid.UUID) (*model.Usuario, error)
	FindByUsername(ctx context.Context, username string) (*model.Usuario, error)
	// ExisteUsernameOEmail reports which of username and email are already taken.
	ExisteUsernameOEmail(ctx context.Context, username, email string) (usernameTomado, emailTomado bool, err error)

	// FindForLoginTx looks a user up by username or e-mail (case-insensitive),
	// whatever its flags, and locks the row until tx ends.
	FindForLoginTx(tx *gorm.DB, identificador string) (*model.Usuario, error)
	UpdateTx(tx *gorm.DB, u *model.Usuario) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type usuarioRepo struct{ db *gorm.DB }

func NewUsuarioRepository(db *gorm.DB) UsuarioRepository { return &usuarioRepo{db: db} }

func (r *usuarioRepo) DB() *gorm.DB { return r.db }

func (r *usuarioRepo) Create(ctx context.Context, u *model.Usuario) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *usuarioRepo) FindByUUID(ctx context.Context, id uuid.UUID) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).Where("uuid_usuario = ?", id).First(&u).Error
	return &u, err
}

func (r *usuarioRepo) FindByUsername(ctx context.Context, username string) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	return &u, err
}

func (r *usuarioRepo) ExisteUsernameOEmail(ctx context.Context, username, email string) (bool, bool, error) {
	var res struct {
		Username int64
		Email    int64
	}
	err := r.db.WithContext(ctx).Model(&model.Usuario{}).
		Select("COUNT(*) FILTER (WHERE username = ?) AS username, COUNT(*) FILTER (WHERE LOWER(email) = LOWER(?)) AS email",
			username, email).
		Scan(&res).Error
	return res.Username > 0, res.Email > 0, err
}

func (r *usuarioRepo) FindForLoginTx(tx *gorm.DB, identificador string) (*model.Usuario, error) {
	var u model.Usuario
	// A username match wins over an e-mail match on another row.
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("username = ? OR LOWER(email) = LOWER(?)", identificador, identificador).
		Order(clause.Expr{SQL: "CASE WHEN username = ? THEN 0 ELSE 1 END", Vars: []any{identificador}}).
		First(&u).Error
	return &u, err
}

func (r *usuarioRepo) UpdateTx(tx *gorm.DB, u *model.Usuario) error {
	return tx.Save(u).Error
}
