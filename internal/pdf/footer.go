package pdf

import (
	"bytes"
	"fmt"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Footer geometry in points: 9pt Helvetica, 18pt above the bottom edge and
// 40pt in from the sides.
const (
	footerFont     = "Helvetica"
	footerPoints   = 9
	footerInset    = 40
	footerBaseline = 18
	// pdfcpu sets the text 3pt above the bottom of its bounding box.
	footerTextPad = 3
)

// Footer holds the text shared by every page.
type Footer struct {
	GeneratedAt string
	GeneratedBy string
}

// PageLabel is the right-hand footer text for page i of n.
func PageLabel(i, n int) string {
	return fmt.Sprintf("Página %d de %d", i, n)
}

// Texts returns the left, center and right footer strings for page i of n.
func (f Footer) Texts(i, n int) [3]string {
	return [3]string{f.GeneratedAt, f.GeneratedBy, PageLabel(i, n)}
}

var footerSlots = [3]struct {
	position string
	dx       int
}{
	{"bl", footerInset},
	{"bc", 0},
	{"br", -footerInset},
}

func footerDesc(position string, dx int) string {
	return fmt.Sprintf(
		"fontname:%s, points:%d, scalefactor:1 abs, position:%s, offset:%d %d, rotation:0, opacity:1, fillcolor:#000000",
		footerFont, footerPoints, position, dx, footerBaseline-footerTextPad,
	)
}

// watermarks builds the three stamps for each of n pages. Empty texts are
// left out.
func (f Footer) watermarks(n int) (map[int][]*model.Watermark, error) {
	m := make(map[int][]*model.Watermark, n)
	for i := 1; i <= n; i++ {
		for slot, text := range f.Texts(i, n) {
			if text == "" {
				continue
			}
			s := footerSlots[slot]
			wm, err := pdfapi.TextWatermark(text, footerDesc(s.position, s.dx), true, false, types.POINTS)
			if err != nil {
				return nil, err
			}
			m[i] = append(m[i], wm)
		}
	}
	return m, nil
}

// StampFooter draws the footer on every page of doc in one pass.
func StampFooter(doc []byte, f Footer) ([]byte, error) {
	n, err := PageCount(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStamp, err)
	}
	m, err := f.watermarks(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStamp, err)
	}

	var out bytes.Buffer
	config := model.NewDefaultConfiguration()
	if err := pdfapi.AddWatermarksSliceMap(bytes.NewReader(doc), &out, m, config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStamp, err)
	}
	return out.Bytes(), nil
}
