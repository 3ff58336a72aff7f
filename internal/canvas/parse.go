package canvas

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/MioNatsuki/sistema-emision/internal/apierror"
)

// Campo is the field path prefix used in validation errors.
const Campo = "canvas_config"

const (
	msgRequerido    = "campo requerido"
	msgTipoInvalido = "tipo de dato invalido"
)

type elementoJSON struct {
	ID              *string         `json:"id"`
	Tipo            *string         `json:"tipo"`
	X               *float64        `json:"x"`
	Y               *float64        `json:"y"`
	Ancho           *float64        `json:"ancho"`
	Alto            *float64        `json:"alto"`
	Contenido       *string         `json:"contenido"`
	Estilo          json.RawMessage `json:"estilo"`
	CampoNombre     *string         `json:"campo_nombre"`
	Etiqueta        *string         `json:"etiqueta"`
	RutaImagen      *string         `json:"ruta_imagen"`
	MantenerAspecto *bool           `json:"mantener_aspecto"`
}

// Parse decodes a canvas document, fills style and page defaults, and
// validates it. Errors are *apierror.Error of kind Validation.
func Parse(raw []byte) (Config, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return Config{}, apierror.Validation(Campo, "debe ser un objeto JSON")
	}

	var doc struct {
		Elementos *[]json.RawMessage `json:"elementos"`
		Global    json.RawMessage    `json:"configuracion_global"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Config{}, apierror.Validation(Campo+".elementos", "debe ser una lista")
	}
	if doc.Elementos == nil {
		return Config{}, apierror.Validation(Campo+".elementos", msgRequerido)
	}

	var cfg Config
	if len(doc.Global) > 0 && !bytes.Equal(doc.Global, []byte("null")) {
		g := &ConfiguracionGlobal{}
		if err := json.Unmarshal(doc.Global, g); err != nil {
			return Config{}, apierror.Validation(Campo+".configuracion_global", msgTipoInvalido)
		}
		if err := g.completar(); err != nil {
			return Config{}, err
		}
		cfg.Global = g
	}

	cfg.Elementos = make([]Element, 0, len(*doc.Elementos))
	for i, item := range *doc.Elementos {
		el, err := parseElement(i, item)
		if err != nil {
			return Config{}, err
		}
		cfg.Elementos = append(cfg.Elementos, el)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func ruta(i int, campo string) string {
	return fmt.Sprintf("%s.elementos[%d].%s", Campo, i, campo)
}

func parseElement(i int, raw json.RawMessage) (Element, error) {
	var in elementoJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) && te.Field != "" {
			return nil, apierror.Validation(ruta(i, te.Field), msgTipoInvalido)
		}
		return nil, apierror.Validation(fmt.Sprintf("%s.elementos[%d]", Campo, i), "debe ser un objeto")
	}

	if in.ID == nil {
		return nil, apierror.Validation(ruta(i, "id"), msgRequerido)
	}
	if in.Tipo == nil {
		return nil, apierror.Validation(ruta(i, "tipo"), msgRequerido)
	}
	for _, c := range []struct {
		nombre string
		v      *float64
	}{{"x", in.X}, {"y", in.Y}, {"ancho", in.Ancho}, {"alto", in.Alto}} {
		if c.v == nil {
			return nil, apierror.Validation(ruta(i, c.nombre), msgRequerido)
		}
	}
	m := Marco{ID: *in.ID, X: *in.X, Y: *in.Y, Ancho: *in.Ancho, Alto: *in.Alto}

	switch Tipo(*in.Tipo) {
	case TipoTextoPlano:
		if in.Contenido == nil {
			return nil, apierror.Validation(ruta(i, "contenido"), msgRequerido)
		}
		estilo, err := parseEstilo(i, in.Estilo)
		if err != nil {
			return nil, err
		}
		return &TextoPlano{Marco: m, Contenido: *in.Contenido, Estilo: estilo}, nil

	case TipoCampoBD:
		if in.CampoNombre == nil {
			return nil, apierror.Validation(ruta(i, "campo_nombre"), msgRequerido)
		}
		estilo, err := parseEstilo(i, in.Estilo)
		if err != nil {
			return nil, err
		}
		return &CampoBD{Marco: m, CampoNombre: *in.CampoNombre, Etiqueta: in.Etiqueta, Estilo: estilo}, nil

	case TipoImagen:
		if in.RutaImagen == nil {
			return nil, apierror.Validation(ruta(i, "ruta_imagen"), msgRequerido)
		}
		aspecto := true
		if in.MantenerAspecto != nil {
			aspecto = *in.MantenerAspecto
		}
		return &Imagen{Marco: m, RutaImagen: *in.RutaImagen, MantenerAspecto: aspecto}, nil

	case TipoCodigoBarras:
		if in.CampoNombre == nil {
			return nil, apierror.Validation(ruta(i, "campo_nombre"), msgRequerido)
		}
		var estilo map[string]any
		if len(in.Estilo) > 0 && !bytes.Equal(in.Estilo, []byte("null")) {
			if err := json.Unmarshal(in.Estilo, &estilo); err != nil {
				return nil, apierror.Validation(ruta(i, "estilo"), msgTipoInvalido)
			}
		}
		return &CodigoBarras{Marco: m, CampoNombre: *in.CampoNombre, Estilo: estilo}, nil

	default:
		return nil, apierror.Validation(ruta(i, "tipo"),
			"debe ser texto_plano, campo_bd, imagen o codigo_barras")
	}
}

func parseEstilo(i int, raw json.RawMessage) (Estilo, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Estilo{}, apierror.Validation(ruta(i, "estilo"), msgRequerido)
	}
	// Keys present in raw win, including zero values.
	e := EstiloPorDefecto()
	if err := json.Unmarshal(raw, &e); err != nil {
		return Estilo{}, apierror.Validation(ruta(i, "estilo"), msgTipoInvalido)
	}
	return e, nil
}

// Validate checks element ids, bounds and variants. Coordinates outside the
// page and negative values are allowed, as are empty campo_nombre and
// ruta_imagen strings.
func (c Config) Validate() error {
	vistos := make(map[string]int, len(c.Elementos))
	for i, el := range c.Elementos {
		if el == nil {
			return apierror.Validation(fmt.Sprintf("%s.elementos[%d]", Campo, i), "elemento nulo")
		}
		id := el.ElementoID()
		if id == "" {
			return apierror.Validation(ruta(i, "id"), "no puede estar vacio")
		}
		if prev, dup := vistos[id]; dup {
			return apierror.Validation(ruta(i, "id"),
				fmt.Sprintf("id %q duplicado (elementos[%d])", id, prev))
		}
		vistos[id] = i

		b := el.Limites()
		for _, coord := range []struct {
			nombre string
			v      float64
		}{{"x", b.X}, {"y", b.Y}, {"ancho", b.Ancho}, {"alto", b.Alto}} {
			if math.IsNaN(coord.v) || math.IsInf(coord.v, 0) {
				return apierror.Validation(ruta(i, coord.nombre), "debe ser un numero finito")
			}
		}

		switch el.(type) {
		case *TextoPlano, *CampoBD, *Imagen, *CodigoBarras:
		default:
			return apierror.Validation(ruta(i, "tipo"), fmt.Sprintf("tipo %T no soportado", el))
		}
	}
	return nil
}
