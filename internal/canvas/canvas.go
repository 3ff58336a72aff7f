// Package canvas models the layout of a plantilla: an ordered list of
// positioned elements plus optional page-wide settings. Coordinates and sizes
// are in centimetres from the top-left corner of the page.
package canvas

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"dario.cat/mergo"
)

// Tipo is the discriminator of an element.
type Tipo string

const (
	TipoTextoPlano   Tipo = "texto_plano"
	TipoCampoBD      Tipo = "campo_bd"
	TipoImagen       Tipo = "imagen"
	TipoCodigoBarras Tipo = "codigo_barras"
)

// Element is one of *TextoPlano, *CampoBD, *Imagen or *CodigoBarras.
// The set is closed: the marker method is unexported.
type Element interface {
	Tipo() Tipo
	ElementoID() string
	Limites() Marco
	elemento()
}

// Marco holds the fields shared by every element.
type Marco struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Ancho float64 `json:"ancho"`
	Alto  float64 `json:"alto"`
}

func (m Marco) ElementoID() string { return m.ID }
func (m Marco) Limites() Marco     { return m }
func (Marco) elemento()            {}

// Estilo is the text style of texto_plano and campo_bd elements.
type Estilo struct {
	Fuente     string `json:"fuente"`
	Tamano     int    `json:"tamano"`
	Negrita    bool   `json:"negrita"`
	Italica    bool   `json:"italica"`
	Color      string `json:"color"`
	Alineacion string `json:"alineacion"`
}

func EstiloPorDefecto() Estilo {
	return Estilo{Fuente: "Calibri", Tamano: 11, Color: "#000000", Alineacion: "left"}
}

type TextoPlano struct {
	Marco
	Contenido string `json:"contenido"`
	Estilo    Estilo `json:"estilo"`
}

type CampoBD struct {
	Marco
	CampoNombre string  `json:"campo_nombre"`
	Etiqueta    *string `json:"etiqueta,omitempty"`
	Estilo      Estilo  `json:"estilo"`
}

type Imagen struct {
	Marco
	RutaImagen      string `json:"ruta_imagen"`
	MantenerAspecto bool   `json:"mantener_aspecto"`
}

type CodigoBarras struct {
	Marco
	CampoNombre string         `json:"campo_nombre"`
	Estilo      map[string]any `json:"estilo,omitempty"`
}

func (TextoPlano) Tipo() Tipo   { return TipoTextoPlano }
func (CampoBD) Tipo() Tipo      { return TipoCampoBD }
func (Imagen) Tipo() Tipo       { return TipoImagen }
func (CodigoBarras) Tipo() Tipo { return TipoCodigoBarras }

// ConfiguracionGlobal holds page-wide settings. Nil margins take the default
// of 1 cm; an explicit 0 is kept.
type ConfiguracionGlobal struct {
	MargenSuperior  *float64 `json:"margen_superior"`
	MargenInferior  *float64 `json:"margen_inferior"`
	MargenIzquierdo *float64 `json:"margen_izquierdo"`
	MargenDerecho   *float64 `json:"margen_derecho"`
	ColorFondo      string   `json:"color_fondo"`
}

func ConfiguracionPorDefecto() ConfiguracionGlobal {
	m := func() *float64 { v := 1.0; return &v }
	return ConfiguracionGlobal{
		MargenSuperior:  m(),
		MargenInferior:  m(),
		MargenIzquierdo: m(),
		MargenDerecho:   m(),
		ColorFondo:      "#FFFFFF",
	}
}

func (g *ConfiguracionGlobal) completar() error {
	return mergo.Merge(g, ConfiguracionPorDefecto(), mergo.WithoutDereference)
}

// Config is the canvas_config document stored with a plantilla.
type Config struct {
	Elementos []Element
	Global    *ConfiguracionGlobal
}

// Globales returns the page settings with defaults applied.
func (c Config) Globales() ConfiguracionGlobal {
	g := ConfiguracionPorDefecto()
	if c.Global != nil {
		g = *c.Global
		_ = g.completar()
	}
	return g
}

type configJSON struct {
	Elementos []json.RawMessage    `json:"elementos"`
	Global    *ConfiguracionGlobal `json:"configuracion_global,omitempty"`
}

func (c Config) MarshalJSON() ([]byte, error) {
	out := configJSON{Elementos: make([]json.RawMessage, 0, len(c.Elementos)), Global: c.Global}
	for i, el := range c.Elementos {
		b, err := marshalElement(el)
		if err != nil {
			return nil, fmt.Errorf("elementos[%d]: %w", i, err)
		}
		out.Elementos = append(out.Elementos, b)
	}
	return json.Marshal(out)
}

func marshalElement(el Element) ([]byte, error) {
	switch e := el.(type) {
	case *TextoPlano:
		return json.Marshal(struct {
			Tipo Tipo `json:"tipo"`
			*TextoPlano
		}{e.Tipo(), e})
	case *CampoBD:
		return json.Marshal(struct {
			Tipo Tipo `json:"tipo"`
			*CampoBD
		}{e.Tipo(), e})
	case *Imagen:
		return json.Marshal(struct {
			Tipo Tipo `json:"tipo"`
			*Imagen
		}{e.Tipo(), e})
	case *CodigoBarras:
		return json.Marshal(struct {
			Tipo Tipo `json:"tipo"`
			*CodigoBarras
		}{e.Tipo(), e})
	case nil:
		return nil, errors.New("elemento nulo")
	default:
		return nil, fmt.Errorf("tipo de elemento no soportado %T", el)
	}
}

// UnmarshalJSON parses and validates a canvas document.
func (c *Config) UnmarshalJSON(b []byte) error {
	parsed, err := Parse(b)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// GormDataType stores the document as JSONB.
func (Config) GormDataType() string { return "jsonb" }

func (c Config) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *Config) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*c = Config{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("canvas: no se puede leer %T", src)
	}
	return c.UnmarshalJSON(raw)
}
