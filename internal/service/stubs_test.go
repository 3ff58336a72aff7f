package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MioNatsuki/sistema-emision/internal/model"
	"github.com/MioNatsuki/sistema-emision/internal/service"
)

// ── In-memory Repository Stubs ────────────────────────────────────────────────
// DB() returns nil on every stub so services run their transactions inline.

type stubUsuarioRepo struct {
	users []*model.Usuario
}

func (r *stubUsuarioRepo) DB() *gorm.DB { return nil }

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	cp := *u
	r.users = append(r.users, &cp)
	return nil
}

func (r *stubUsuarioRepo) FindByUUID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	for _, u := range r.users {
		if u.UUID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) ExisteUsernameOEmail(_ context.Context, username, email string) (bool, bool, error) {
	var un, em bool
	for _, u := range r.users {
		un = un || u.Username == username
		em = em || strings.EqualFold(u.Email, email)
	}
	return un, em, nil
}

func (r *stubUsuarioRepo) FindForLoginTx(_ *gorm.DB, ident string) (*model.Usuario, error) {
	for _, u := range r.users {
		if u.Username == ident {
			cp := *u
			return &cp, nil
		}
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Email, ident) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) UpdateTx(_ *gorm.DB, u *model.Usuario) error {
	for i, cur := range r.users {
		if cur.UUID == u.UUID {
			cp := *u
			r.users[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) get(username string) *model.Usuario {
	for _, u := range r.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

type stubPadronRepo struct {
	padrones []model.Padron
}

func newStubPadronRepo(nombres ...string) *stubPadronRepo {
	r := &stubPadronRepo{}
	for _, n := range nombres {
		r.padrones = append(r.padrones, model.Padron{UUID: uuid.New(), NombrePadron: n})
	}
	return r
}

func (r *stubPadronRepo) List(_ context.Context) ([]model.Padron, error) {
	var out []model.Padron
	for _, p := range r.padrones {
		if !p.IsDeleted {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubPadronRepo) FindByUUID(_ context.Context, id uuid.UUID) (*model.Padron, error) {
	for _, p := range r.padrones {
		if p.UUID == id && !p.IsDeleted {
			cp := p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPadronRepo) byName(nombre string) model.Padron {
	for _, p := range r.padrones {
		if p.NombrePadron == nombre {
			return p
		}
	}
	panic("padron no sembrado: " + nombre)
}

func (r *stubPadronRepo) nombre(id uuid.UUID) *string {
	for _, p := range r.padrones {
		if p.UUID == id {
			n := p.NombrePadron
			return &n
		}
	}
	return nil
}

type stubProyectoRepo struct {
	proyectos []*model.Proyecto
	padrones  *stubPadronRepo
	updateErr error
}

func (r *stubProyectoRepo) DB() *gorm.DB { return nil }

func (r *stubProyectoRepo) find(id uuid.UUID) *model.Proyecto {
	for _, p := range r.proyectos {
		if p.UUID == id && !p.IsDeleted {
			return p
		}
	}
	return nil
}

func (r *stubProyectoRepo) FindByUUID(_ context.Context, id uuid.UUID) (*model.Proyecto, error) {
	p := r.find(id)
	if p == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProyectoRepo) FindDetalle(ctx context.Context, id uuid.UUID) (*model.ProyectoDetalle, error) {
	p, err := r.FindByUUID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.ProyectoDetalle{Proyecto: *p, NombrePadron: r.padrones.nombre(p.UUIDPadron)}, nil
}

func (r *stubProyectoRepo) ListDetalle(_ context.Context) ([]model.ProyectoDetalle, error) {
	var out []model.ProyectoDetalle
	for _, p := range r.proyectos {
		if !p.IsDeleted {
			out = append(out, model.ProyectoDetalle{Proyecto: *p, NombrePadron: r.padrones.nombre(p.UUIDPadron)})
		}
	}
	return out, nil
}

func (r *stubProyectoRepo) CreateTx(_ *gorm.DB, p *model.Proyecto) error {
	cp := *p
	r.proyectos = append(r.proyectos, &cp)
	return nil
}

func (r *stubProyectoRepo) FindForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Proyecto, error) {
	return r.FindByUUID(context.Background(), id)
}

func (r *stubProyectoRepo) ExisteNombreTx(_ *gorm.DB, nombre string, excluir *uuid.UUID) (bool, error) {
	for _, p := range r.proyectos {
		if p.IsDeleted || p.NombreProyecto != nombre {
			continue
		}
		if excluir != nil && p.UUID == *excluir {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (r *stubProyectoRepo) UpdateTx(_ *gorm.DB, p *model.Proyecto) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	for i, cur := range r.proyectos {
		if cur.UUID == p.UUID {
			cp := *p
			r.proyectos[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubProyectoRepo) seed(nombre string, padron uuid.UUID) *model.Proyecto {
	p := &model.Proyecto{UUID: uuid.New(), NombreProyecto: nombre, UUIDPadron: padron}
	r.proyectos = append(r.proyectos, p)
	return p
}

type stubPlantillaRepo struct {
	plantillas []*model.Plantilla
	proyectos  *stubProyectoRepo
	padrones   *stubPadronRepo
	detalles   int
}

func (r *stubPlantillaRepo) DB() *gorm.DB { return nil }

func (r *stubPlantillaRepo) detalle(p *model.Plantilla) model.PlantillaDetalle {
	d := model.PlantillaDetalle{Plantilla: *p, NombrePadron: r.padrones.nombre(p.UUIDPadron)}
	for _, pr := range r.proyectos.proyectos {
		if pr.UUID == p.UUIDProyecto {
			n := pr.NombreProyecto
			d.NombreProyecto = &n
		}
	}
	return d
}

func (r *stubPlantillaRepo) FindDetalle(_ context.Context, id uuid.UUID) (*model.PlantillaDetalle, error) {
	r.detalles++
	for _, p := range r.plantillas {
		if p.UUID == id && !p.IsDeleted {
			d := r.detalle(p)
			return &d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPlantillaRepo) ListDetalleByProyecto(_ context.Context, proyectoID uuid.UUID) ([]model.PlantillaDetalle, error) {
	var out []model.PlantillaDetalle
	for _, p := range r.plantillas {
		if p.UUIDProyecto == proyectoID && !p.IsDeleted {
			out = append(out, r.detalle(p))
		}
	}
	return out, nil
}

func (r *stubPlantillaRepo) CreateTx(_ *gorm.DB, p *model.Plantilla) error {
	cp := *p
	r.plantillas = append(r.plantillas, &cp)
	return nil
}

func (r *stubPlantillaRepo) FindForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Plantilla, error) {
	for _, p := range r.plantillas {
		if p.UUID == id && !p.IsDeleted {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPlantillaRepo) ExisteNombreTx(_ *gorm.DB, proyectoID uuid.UUID, nombre string, excluir *uuid.UUID) (bool, error) {
	for _, p := range r.plantillas {
		if p.IsDeleted || p.UUIDProyecto != proyectoID || p.NombrePlantilla != nombre {
			continue
		}
		if excluir != nil && p.UUID == *excluir {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (r *stubPlantillaRepo) UpdateTx(_ *gorm.DB, p *model.Plantilla) error {
	for i, cur := range r.plantillas {
		if cur.UUID == p.UUID {
			cp := *p
			r.plantillas[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubPlantillaRepo) raw(id uuid.UUID) *model.Plantilla {
	for _, p := range r.plantillas {
		if p.UUID == id {
			return p
		}
	}
	return nil
}

type stubDatosRepo struct {
	columnas     map[string][]model.ColumnaPadron
	filas        map[string]map[string]any
	llamadasCols int
	err          error
}

func (r *stubDatosRepo) Columnas(_ context.Context, tabla string) ([]model.ColumnaPadron, error) {
	r.llamadasCols++
	if r.err != nil {
		return nil, r.err
	}
	return r.columnas[tabla], nil
}

func (r *stubDatosRepo) RegistroAleatorio(_ context.Context, tabla string, _ uuid.UUID) (map[string]any, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.filas[tabla], nil
}

type stubCache struct {
	items map[string][]model.ColumnaPadron
}

func (c *stubCache) Get(_ context.Context, padron string) ([]model.ColumnaPadron, bool) {
	v, ok := c.items[padron]
	return v, ok
}

func (c *stubCache) Set(_ context.Context, padron string, cols []model.ColumnaPadron) {
	if c.items == nil {
		c.items = map[string][]model.ColumnaPadron{}
	}
	c.items[padron] = cols
}

// ── Audit stubs ───────────────────────────────────────────────────────────────

type stubBitacora struct {
	mu       sync.Mutex
	entradas []service.Entrada
	err      error
}

func (b *stubBitacora) Registrar(_ context.Context, e service.Entrada) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entradas = append(b.entradas, e)
	return b.err
}

func (b *stubBitacora) acciones() []string {
	out := make([]string, len(b.entradas))
	for i, e := range b.entradas {
		out[i] = e.Accion
	}
	return out
}

func (b *stubBitacora) contar(accion string) int {
	n := 0
	for _, e := range b.entradas {
		if e.Accion == accion {
			n++
		}
	}
	return n
}

type stubBitacoraRepo struct {
	filas []*model.Bitacora
	err   error
}

func (r *stubBitacoraRepo) Create(_ context.Context, b *model.Bitacora) error {
	if r.err != nil {
		return r.err
	}
	r.filas = append(r.filas, b)
	return nil
}

// ── File store stub ───────────────────────────────────────────────────────────

type stubFileStore struct {
	files   map[string][]byte
	saveErr error
}

func newStubFileStore() *stubFileStore {
	return &stubFileStore{files: map[string][]byte{}}
}

func (s *stubFileStore) Save(_ context.Context, key string, r io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	s.files[key] = buf.Bytes()
	return "mem://" + key, nil
}

func (s *stubFileStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.files[key]
	return ok, nil
}

func (s *stubFileStore) Remove(_ context.Context, key string) error {
	if _, ok := s.files[key]; !ok {
		return errors.New("no existe")
	}
	delete(s.files, key)
	return nil
}

func (s *stubFileStore) keys() []string {
	out := make([]string, 0, len(s.files))
	for k := range s.files {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
