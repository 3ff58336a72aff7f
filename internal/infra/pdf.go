package infra

// pdf.go renders a plantilla over one register row with go-pdf/fpdf.
// The page has the canvas size in centimetres and every element is drawn in
// its own box; nothing flows between elements.

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/MioNatsuki/sistema-emision/internal/canvas"
	"github.com/MioNatsuki/sistema-emision/internal/model"
)

// ImagenResolver maps ruta_imagen to a readable local file, or "" when the
// image is not available.
type ImagenResolver func(ruta string) string

// RenderPlantillaPDF writes a one-page PDF of p filled with datos to w.
func RenderPlantillaPDF(w io.Writer, p *model.Plantilla, datos map[string]any, imagenes ImagenResolver) error {
	ancho := p.AnchoCanvas.InexactFloat64()
	alto := p.AltoCanvas.InexactFloat64()
	if ancho <= 0 || alto <= 0 {
		return fmt.Errorf("pdf: dimensiones invalidas %vx%v", ancho, alto)
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "cm",
		Size:           fpdf.SizeType{Wd: ancho, Ht: alto},
	})
	g := p.CanvasConfig.Globales()
	pdf.SetMargins(*g.MargenIzquierdo, *g.MargenSuperior, *g.MargenDerecho)
	pdf.SetAutoPageBreak(false, *g.MargenInferior)
	pdf.SetTitle(p.NombrePlantilla, true)
	pdf.AddPage()

	// ── Background ───────────────────────────────────────────────────────────
	if r, gr, b, ok := hexColor(g.ColorFondo); ok && !(r == 255 && gr == 255 && b == 255) {
		pdf.SetFillColor(r, gr, b)
		pdf.Rect(0, 0, ancho, alto, "F")
	}

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, el := range p.CanvasConfig.Elementos {
		m := el.Limites()
		switch e := el.(type) {
		case *canvas.TextoPlano:
			drawTexto(pdf, m, e.Estilo, tr(e.Contenido))

		case *canvas.CampoBD:
			texto := valorCampo(datos, e.CampoNombre)
			if e.Etiqueta != nil && *e.Etiqueta != "" {
				texto = *e.Etiqueta + " " + texto
			}
			drawTexto(pdf, m, e.Estilo, tr(texto))

		case *canvas.Imagen:
			drawImagen(pdf, m, e, imagenes)

		case *canvas.CodigoBarras:
			pdf.SetDrawColor(0, 0, 0)
			pdf.Rect(m.X, m.Y, m.Ancho, m.Alto, "D")
			pdf.SetFont("Courier", "", 10)
			pdf.SetTextColor(0, 0, 0)
			pdf.SetXY(m.X, m.Y)
			pdf.CellFormat(m.Ancho, m.Alto, tr(valorCampo(datos, e.CampoNombre)), "", 0, "CM", false, 0, "")

		default:
			return fmt.Errorf("pdf: elemento %T no soportado", el)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write: %w", err)
	}
	return nil
}

func drawTexto(pdf *fpdf.Fpdf, m canvas.Marco, e canvas.Estilo, texto string) {
	style := ""
	if e.Negrita {
		style += "B"
	}
	if e.Italica {
		style += "I"
	}
	pdf.SetFont(familia(e.Fuente), style, float64(e.Tamano))
	r, g, b, _ := hexColor(e.Color)
	pdf.SetTextColor(r, g, b)

	align := "L"
	switch e.Alineacion {
	case "center":
		align = "C"
	case "right":
		align = "R"
	case "justify":
		align = "J"
	}

	// A zero tamano keeps the current font size.
	_, lineHt := pdf.GetFontSize()
	lineHt *= 1.2
	pdf.SetXY(m.X, m.Y)
	pdf.MultiCell(m.Ancho, lineHt, texto, "", align, false)
}

func drawImagen(pdf *fpdf.Fpdf, m canvas.Marco, e *canvas.Imagen, imagenes ImagenResolver) {
	path := ""
	if imagenes != nil {
		path = imagenes(e.RutaImagen)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if path == "" || (ext != ".png" && ext != ".jpg" && ext != ".jpeg") {
		placeholder(pdf, m, "imagen")
		return
	}
	if _, err := os.Stat(path); err != nil {
		placeholder(pdf, m, "imagen")
		return
	}

	opts := fpdf.ImageOptions{ReadDpi: true}
	info := pdf.RegisterImageOptions(path, opts)
	if info == nil || pdf.Err() {
		pdf.ClearError()
		placeholder(pdf, m, "imagen")
		return
	}

	w, h := m.Ancho, m.Alto
	if e.MantenerAspecto {
		iw, ih := info.Extent()
		if iw > 0 && ih > 0 {
			scale := math.Min(m.Ancho/iw, m.Alto/ih)
			w, h = iw*scale, ih*scale
		}
	}
	pdf.ImageOptions(path, m.X, m.Y, w, h, false, opts, 0, "")
}

func placeholder(pdf *fpdf.Fpdf, m canvas.Marco, label string) {
	pdf.SetDrawColor(160, 160, 160)
	pdf.Rect(m.X, m.Y, m.Ancho, m.Alto, "D")
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(160, 160, 160)
	pdf.SetXY(m.X, m.Y)
	pdf.CellFormat(m.Ancho, m.Alto, label, "", 0, "CM", false, 0, "")
}

// valorCampo renders a register value; missing fields show as {campo}.
func valorCampo(datos map[string]any, campo string) string {
	v, ok := datos[campo]
	if !ok {
		return "{" + campo + "}"
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// familia maps a font name onto one of the PDF core fonts.
func familia(fuente string) string {
	f := strings.ToLower(fuente)
	switch {
	case strings.Contains(f, "times"), strings.Contains(f, "georgia"), strings.Contains(f, "serif") && !strings.Contains(f, "sans"):
		return "Times"
	case strings.Contains(f, "courier"), strings.Contains(f, "mono"):
		return "Courier"
	default:
		return "Helvetica"
	}
}

// hexColor parses #RRGGBB or #RGB. Invalid input yields black and ok=false.
func hexColor(s string) (r, g, b int, ok bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}
