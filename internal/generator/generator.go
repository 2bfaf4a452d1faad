// Package generator runs the quotation pipeline: fill the template, render
// it, append the annexes and stamp the footer.
package generator

import (
	"context"
	"time"

	"go-quotepdf/internal/htmltpl"
	"go-quotepdf/internal/pdf"
	"go-quotepdf/internal/quotation"
	"go-quotepdf/internal/render"
	"go-quotepdf/internal/utils"

	"go.uber.org/zap"
)

// TimestampLayout is the dd/mm/yyyy hh:mm:ss form of the footer timestamp.
const TimestampLayout = "02/01/2006 15:04:05"

// Document is a finished quotation PDF.
type Document struct {
	Label    string
	Filename string
	Data     []byte
	Pages    int
}

// Generator produces quotation documents. It holds no per-request state and
// is safe for concurrent use.
type Generator struct {
	Template    *htmltpl.Renderer
	Renderer    render.Renderer
	AnnexPaths  []string
	GeneratedBy string
	Location    *time.Location
	Now         func() time.Time
	Log         *zap.Logger
}

func (g *Generator) now() time.Time {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	t := now()
	if g.Location != nil {
		t = t.In(g.Location)
	}
	return t
}

// HTML returns the filled template for q.
func (g *Generator) HTML(q quotation.Quotation) (string, error) {
	return g.Template.Render(q, g.now())
}

// Generate builds the full document for q. Nothing is returned unless every
// stage succeeds.
func (g *Generator) Generate(ctx context.Context, q quotation.Quotation) (*Document, error) {
	log := g.Log.With(zap.String("label", q.Label))

	html, err := g.HTML(q)
	if err != nil {
		return nil, err
	}
	log.Debug("template filled", zap.Int("items", len(q.Items)), zap.Int("html_bytes", len(html)))

	main, err := g.Renderer.Render(ctx, html)
	if err != nil {
		return nil, err
	}

	annexes := pdf.LoadAnnexes(g.AnnexPaths, log)
	merged, err := pdf.Merge(main, annexes)
	if err != nil {
		return nil, err
	}
	log.Debug("annexes merged", zap.Int("annexes", len(annexes)))

	stamped, err := pdf.StampFooter(merged, pdf.Footer{
		GeneratedAt: g.now().Format(TimestampLayout),
		GeneratedBy: g.GeneratedBy,
	})
	if err != nil {
		return nil, err
	}
	pages, err := pdf.PageCount(stamped)
	if err != nil {
		return nil, err
	}

	return &Document{
		Label:    q.Label,
		Filename: Filename(q.Label),
		Data:     stamped,
		Pages:    pages,
	}, nil
}

// Filename is the download name for a quote label, safe for a
// Content-Disposition header.
func Filename(label string) string {
	return utils.SanitizeFilename(label) + ".pdf"
}
