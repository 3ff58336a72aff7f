package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MioNatsuki/sistema-emision/internal/apierror"
	"github.com/MioNatsuki/sistema-emision/internal/dto"
	"github.com/MioNatsuki/sistema-emision/internal/model"
	"github.com/MioNatsuki/sistema-emision/internal/repository"
	"github.com/MioNatsuki/sistema-emision/internal/token"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest, actor dto.Actor) (*dto.LoginResponse, error)
	// Autorizar resolves a bearer token to an active, unlocked user.
	Autorizar(ctx context.Context, rawToken string) (*model.Usuario, error)
	Registrar(ctx context.Context, req dto.RegistroRequest, actor dto.Actor) (*dto.UsuarioResponse, error)
	Me(u *model.Usuario) dto.UsuarioResponse
	Logout(ctx context.Context, actor dto.Actor)
}

type authService struct {
	repo     repository.UsuarioRepository
	bitacora BitacoraService
	issuer   *token.Issuer
	hasher   PasswordHasher
	now      Clock
}

type AuthOption func(*authService)

// WithAuthClock overrides the clock used for lockout decisions.
func WithAuthClock(now Clock) AuthOption {
	return func(s *authService) { s.now = now }
}

func NewAuthService(
	repo repository.UsuarioRepository,
	bitacora BitacoraService,
	issuer *token.Issuer,
	hasher PasswordHasher,
	opts ...AuthOption,
) AuthService {
	s := &authService{repo: repo, bitacora: bitacora, issuer: issuer, hasher: hasher, now: utcNow}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ── Login ─────────────────────────────────────────────────────────────────────
// The user row is locked for the whole attempt so concurrent attempts on the
// same account serialize on the failure counter. A rejected attempt still
// commits the counter change; the domain error is returned after commit.

func (s *authService) Login(ctx context.Context, req dto.LoginRequest, actor dto.Actor) (*dto.LoginResponse, error) {
	now := s.now()
	identificador := strings.TrimSpace(req.Username)

	var (
		user    *model.Usuario
		rechazo *apierror.Error
		motivo  string
	)
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		u, err := s.repo.FindForLoginTx(tx, identificador)
		if err != nil {
			if repository.IsNotFound(err) {
				rechazo, motivo = apierror.InvalidCredentials(), "usuario no encontrado"
				return nil
			}
			return err
		}
		user = u

		estado := u.Bloqueo()
		if estado.Bloqueado(now) {
			rechazo, motivo = apierror.AccountLocked(estado.MinutosRestantes(now)), "cuenta bloqueada"
			return nil
		}

		if err := s.hasher.Compare(u.Contrasena, req.Password); err != nil {
			estado.RegistrarFallo(now)
			u.AplicarBloqueo(estado)
			rechazo, motivo = apierror.InvalidCredentials(), "contraseña incorrecta"
			return s.repo.UpdateTx(tx, u)
		}

		if !u.IsActive || u.IsDeleted {
			rechazo, motivo = apierror.AccountDisabled(), "usuario inactivo o eliminado"
			return nil
		}

		estado.RegistrarExito()
		u.AplicarBloqueo(estado)
		u.LastLogin = &now
		return s.repo.UpdateTx(tx, u)
	})
	if err != nil {
		return nil, err
	}

	entrada := Entrada{
		Accion:   model.AccionLoginFallido,
		Entidad:  model.EntidadUsuario,
		Detalles: map[string]any{"username": identificador},
	}
	if user != nil {
		entrada.UsuarioID = &user.UUID
		entrada.EntidadID = user.UUID.String()
	}

	if rechazo != nil {
		entrada.MensajeError = motivo
		if user != nil {
			entrada.Detalles["intentos_fallidos"] = user.IntentosLoginFallidos
		}
		auditar(ctx, s.bitacora, actor, entrada)
		return nil, rechazo
	}

	raw, _, err := s.issuer.Issue(user.Username, user.UUID.String())
	if err != nil {
		return nil, err
	}

	entrada.Accion = model.AccionLoginExitoso
	entrada.Exitoso = true
	auditar(ctx, s.bitacora, actor, entrada)

	return &dto.LoginResponse{
		AccessToken: raw,
		TokenType:   "bearer",
		ExpiresIn:   int(s.issuer.TTL().Seconds()),
		User:        usuarioResponse(user),
	}, nil
}

// ── Authorization ─────────────────────────────────────────────────────────────

func (s *authService) Autorizar(ctx context.Context, rawToken string) (*model.Usuario, error) {
	claims, err := s.issuer.Parse(rawToken)
	if err != nil {
		if errors.Is(err, token.ErrMissingSubject) {
			return nil, apierror.Unauthenticated("Token sin usuario")
		}
		return nil, apierror.Unauthenticated("Token invalido o expirado")
	}

	u, err := s.repo.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.Unauthenticated("Usuario no encontrado")
		}
		return nil, err
	}
	if !u.IsActive || u.IsDeleted {
		return nil, apierror.Forbidden("Usuario inactivo o eliminado")
	}
	if estado := u.Bloqueo(); estado.Bloqueado(s.now()) {
		return nil, apierror.ForbiddenLocked(*estado.BloqueadoHasta)
	}
	return u, nil
}

// ── Registration ──────────────────────────────────────────────────────────────

func (s *authService) Registrar(ctx context.Context, req dto.RegistroRequest, actor dto.Actor) (*dto.UsuarioResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	usernameTomado, emailTomado, err := s.repo.ExisteUsernameOEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if usernameTomado {
		return nil, apierror.Conflict("El nombre de usuario ya existe")
	}
	if emailTomado {
		return nil, apierror.Conflict("El email ya esta registrado")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	u := &model.Usuario{
		UUID:       uuid.New(),
		Nombre:     strings.TrimSpace(req.Nombre),
		Apellido:   strings.TrimSpace(req.Apellido),
		Username:   username,
		Email:      email,
		Contrasena: hash,
		IsActive:   true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apierror.Conflict("El nombre de usuario o email ya existe")
		}
		return nil, err
	}

	auditar(ctx, s.bitacora, actor, Entrada{
		UsuarioID: &u.UUID,
		Accion:    model.AccionRegistroUsuario,
		Entidad:   model.EntidadUsuario,
		EntidadID: u.UUID.String(),
		Detalles:  map[string]any{"username": u.Username, "email": u.Email},
		Exitoso:   true,
	})

	resp := usuarioResponse(u)
	return &resp, nil
}

func (s *authService) Me(u *model.Usuario) dto.UsuarioResponse {
	return usuarioResponse(u)
}

// Logout only records the event; tokens are not revoked server-side.
func (s *authService) Logout(ctx context.Context, actor dto.Actor) {
	e := Entrada{Accion: model.AccionLogout, Entidad: model.EntidadUsuario, Exitoso: true}
	if actor.UsuarioID != nil {
		e.EntidadID = actor.UsuarioID.String()
	}
	auditar(ctx, s.bitacora, actor, e)
}

func usuarioResponse(u *model.Usuario) dto.UsuarioResponse {
	return dto.UsuarioResponse{
		UUIDUsuario: u.UUID.String(),
		Nombre:      u.Nombre,
		Apellido:    u.Apellido,
		Username:    u.Username,
		Email:       u.Email,
		IsActive:    u.IsActive,
		LastLogin:   u.LastLogin,
		CreatedOn:   u.CreatedOn,
	}
}
