// Package render produces certificate artifacts.
//
// The renderer draws onto a fixed 1200x900 canvas using the embedded Go
// fonts and encodes the result as PNG. Rendering is pure computation over
// an in-memory image: the same inputs always produce the same bytes, so a
// re-render after a transient downstream failure is harmless.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ContentType is the MIME type of every artifact this package produces.
const ContentType = "image/png"

const (
	canvasWidth  = 1200
	canvasHeight = 900
	marginX      = 80

	titleBaseline   = 210
	presentBaseline = 300
	nameBaseline    = 410
	captionBaseline = canvasHeight - 56

	fontDPI = 72
)

var (
	background = color.RGBA{R: 251, G: 250, B: 246, A: 255}
	ink        = color.RGBA{R: 51, G: 65, B: 85, A: 255}
	nameInk    = color.RGBA{R: 15, G: 23, B: 42, A: 255}
	borderInk  = color.RGBA{R: 176, G: 141, B: 87, A: 255}
)

// Certificate carries everything burned into the artifact.
type Certificate struct {
	IssuanceID string
	Name       string
	Program    string
	IssuedAt   time.Time
}

// PNG renders certificate images. The parsed fonts are shared across
// calls; rasterization state is per call, so Render is safe for
// concurrent use. Construct with NewPNG.
type PNG struct {
	regular *opentype.Font
	bold    *opentype.Font
	italic  *opentype.Font
}

// ContentType reports the MIME type of rendered artifacts.
func (p *PNG) ContentType() string {
	return ContentType
}

// NewPNG parses the embedded fonts and returns a ready renderer.
func NewPNG() (*PNG, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	italic, err := opentype.Parse(goitalic.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse italic font: %w", err)
	}
	return &PNG{regular: regular, bold: bold, italic: italic}, nil
}

// Render draws the certificate and returns the encoded PNG bytes.
//
// Layout is fixed: title and connective lines centered in the upper half,
// the recipient name emphasized below the title, the program under it,
// the issuance identifier small at the bottom-left and the long-form
// issue date at the bottom-right. Long names and programs wrap within
// the margins; they are never truncated and never cause an error.
func (p *PNG) Render(cert Certificate) ([]byte, error) {
	faces, err := p.newFaces()
	if err != nil {
		return nil, fmt.Errorf("build font faces: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, canvasWidth, canvasHeight))
	fill(img, img.Bounds(), background)
	drawBorder(img)

	drawCentered(img, faces.title, ink, "Certificate of Completion", titleBaseline)
	drawCentered(img, faces.body, ink, "This certificate is proudly presented to", presentBaseline)

	maxLine := fixed.I(canvasWidth - 2*marginX)
	y := nameBaseline
	for _, line := range wrap(faces.name, cert.Name, maxLine) {
		drawCentered(img, faces.name, nameInk, line, y)
		y += faces.name.Metrics().Height.Ceil()
	}

	y += 36
	drawCentered(img, faces.body, ink, "for successfully completing", y)
	y += 58
	for _, line := range wrap(faces.program, cert.Program, maxLine) {
		drawCentered(img, faces.program, ink, line, y)
		y += faces.program.Metrics().Height.Ceil()
	}

	drawText(img, faces.caption, ink, "Certificate ID: "+cert.IssuanceID, marginX-20, captionBaseline)
	date := cert.IssuedAt.Format("January 2, 2006")
	dateWidth := font.MeasureString(faces.caption, date).Ceil()
	drawText(img, faces.caption, ink, date, canvasWidth-(marginX-20)-dateWidth, captionBaseline)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

type faceSet struct {
	title   font.Face
	name    font.Face
	program font.Face
	body    font.Face
	caption font.Face
}

func (p *PNG) newFaces() (*faceSet, error) {
	title, err := newFace(p.bold, 46)
	if err != nil {
		return nil, err
	}
	name, err := newFace(p.bold, 60)
	if err != nil {
		return nil, err
	}
	program, err := newFace(p.italic, 30)
	if err != nil {
		return nil, err
	}
	body, err := newFace(p.regular, 20)
	if err != nil {
		return nil, err
	}
	caption, err := newFace(p.regular, 14)
	if err != nil {
		return nil, err
	}
	return &faceSet{title: title, name: name, program: program, body: body, caption: caption}, nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     fontDPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("face at %.0fpt: %w", size, err)
	}
	return face, nil
}

// wrap splits text into lines no wider than max, breaking on word
// boundaries. A single word wider than max keeps its own line and clips
// at the canvas edge rather than failing.
func wrap(face font.Face, text string, max fixed.Int26_6) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	lines := make([]string, 0, 1)
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if font.MeasureString(face, candidate) > max {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	return append(lines, current)
}

func drawCentered(img draw.Image, face font.Face, c color.Color, s string, baseline int) {
	width := font.MeasureString(face, s)
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: (fixed.I(canvasWidth) - width) / 2, Y: fixed.I(baseline)},
	}
	d.DrawString(s)
}

func drawText(img draw.Image, face font.Face, c color.Color, s string, x, baseline int) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

func drawBorder(img *image.RGBA) {
	outer := image.Rect(40, 40, canvasWidth-40, canvasHeight-40)
	strokeRect(img, outer, 3)
	strokeRect(img, outer.Inset(12), 1)
}

func strokeRect(img *image.RGBA, r image.Rectangle, width int) {
	fill(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width), borderInk)
	fill(img, image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y), borderInk)
	fill(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y), borderInk)
	fill(img, image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y), borderInk)
}

func fill(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}
