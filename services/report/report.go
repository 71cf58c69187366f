package report

import (
	"bytes"
	"errors"
	"io/fs"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"

	"rigcheck/services/checklist"
)

// Page geometry in millimetres (A4 portrait).
const (
	pageMargin    = 12.0
	pageWidth     = 210.0
	contentWidth  = pageWidth - 2*pageMargin
	infoCardH     = 46.0
	remarksBoxH   = 22.0
	loadingBoxH   = 34.0
	signatureRowH = 30.0
)

const (
	fontBody = "Helvetica"
	// ZapfDingbats glyphs used for pass/fail marks.
	glyphPass = "4"
	glyphFail = "8"
)

// Config wires the renderer's collaborators. Assets may hold
// "icons/<name>.png" and "watermark.png"; missing entries degrade silently.
type Config struct {
	Inspectors checklist.InspectorDirectory
	Assets     fs.FS
	Logger     zerolog.Logger
}

// Renderer lays out a checklist as a single fixed A4 page.
type Renderer struct {
	cfg Config
}

// New returns a Renderer for the provided configuration.
func New(cfg Config) *Renderer {
	if cfg.Inspectors == nil {
		cfg.Inspectors = checklist.InspectorDirectory{}
	}
	return &Renderer{cfg: cfg}
}

// Render produces the PDF bytes for one checklist. Visual degradation (missing
// icons, watermark, signatures) is preferred over failure; only document
// assembly errors are returned.
func (r *Renderer) Render(c checklist.Checklist) ([]byte, error) {
	if r == nil {
		return nil, errors.New("nil renderer")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.AddPage()

	r.drawHeader(pdf, c)
	r.drawInfoCard(pdf, c)
	r.drawEquipment(pdf, c)
	r.drawLoadingBoxes(pdf, c)
	r.drawSignatures(pdf, c)
	// Watermark goes on last so it stays visible above all other content.
	r.drawWatermark(pdf)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// assetBytes reads a named asset, returning nil when the asset is unavailable.
func (r *Renderer) assetBytes(name string) []byte {
	if r.cfg.Assets == nil {
		return nil
	}
	data, err := fs.ReadFile(r.cfg.Assets, name)
	if err != nil {
		r.cfg.Logger.Debug().Str("asset", name).Msg("asset unavailable, skipping")
		return nil
	}
	return data
}
