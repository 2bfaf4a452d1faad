// Package htmltpl fills the quotation HTML template.
//
// The template and logo are read from disk on every call so edits to either
// take effect without a restart. Placeholders are written {{TOKEN}} and every
// occurrence is replaced in a single pass.
package htmltpl

import (
	"encoding/base64"
	"html"
	"os"
	"strings"
	"time"

	"go-quotepdf/internal/apperr"
	"go-quotepdf/internal/quotation"
)

// EmptyRow is substituted for the table rows when a quotation has no items.
const EmptyRow = `<tr><td colspan="9" class="center">Sin ensayos</td></tr>`

// DateLayout is the dd/mm/yyyy form used for the issue date.
const DateLayout = "02/01/2006"

// Renderer fills the template at TemplatePath with a quotation.
type Renderer struct {
	TemplatePath string
	LogoPath     string
	Money        quotation.MoneyFormat
}

// New returns a Renderer using the Colombian money format.
func New(templatePath, logoPath string) *Renderer {
	return &Renderer{
		TemplatePath: templatePath,
		LogoPath:     logoPath,
		Money:        quotation.ColombianFormat,
	}
}

// Render returns the filled HTML for q, dated today.
func (r *Renderer) Render(q quotation.Quotation, today time.Time) (string, error) {
	tpl, err := os.ReadFile(r.TemplatePath)
	if err != nil {
		return "", apperr.Internal("reading template "+r.TemplatePath, err).WithOp("htmltpl.Render")
	}
	logo, err := os.ReadFile(r.LogoPath)
	if err != nil {
		return "", apperr.Internal("reading logo "+r.LogoPath, err).WithOp("htmltpl.Render")
	}
	return r.replacer(q, today, LogoDataURI(logo)).Replace(string(tpl)), nil
}

// LogoDataURI embeds an SVG document as a base64 data URI.
func LogoDataURI(svg []byte) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(svg)
}

func (r *Renderer) replacer(q quotation.Quotation, today time.Time, logo string) *strings.Replacer {
	t := q.Totals()

	rows := quotation.BuildRows(q.Items, q.MoneySymbol, r.Money)
	if rows == "" {
		rows = EmptyRow
	}

	esc := html.EscapeString

	pairs := []string{
		"LOGO_DATA_URI", logo,
		"COT_LABEL", esc(q.Label),
		"FECHA_HOY", esc(today.Format(DateLayout)),
		"ORGANIZACION", esc(q.Organization),
		"FIRSTNAME", esc(q.FirstName),
		"LASTNAME", esc(q.LastName),
		"EMAIL", esc(q.Email),
		"DIRECCION", esc(q.Address),
		"TELEFONO", esc(q.Phone),
		"CIUDAD", esc(q.City),
		"TABLE_ROWS", rows,
		"SUBTOTAL", esc(r.Money.Money(q.MoneySymbol, t.Subtotal)),
		"DESCUENTO", esc(r.Money.Money(q.MoneySymbol, t.Discount)),
		"IVA", esc(r.Money.Money(q.MoneySymbol, t.Tax)),
		"TOTAL", esc(r.Money.Money(q.MoneySymbol, t.Total)),
		"MONEDA", esc(q.Currency),
		"ACR_INFO", esc(q.ACRInfo),
		"OBSERVACIONES", esc(q.Observations),
		"EXTRA_TEXT", esc(q.ExtraText),
		"FOOTER_LEFT", esc(q.FooterLeft),
		"FOOTER_RIGHT", esc(q.FooterRight),
		"COMPANY_TOP", esc(q.CompanyTop),
		"DOC_CODE", esc(q.DocCode),
	}
	for i := 0; i < len(pairs); i += 2 {
		pairs[i] = "{{" + pairs[i] + "}}"
	}
	return strings.NewReplacer(pairs...)
}
