// Package pdf assembles the final quotation document.
//
// Functions:
//   - LoadAnnexes: reads the configured annex files, skipping any that are
//     missing or unreadable.
//   - Merge: appends annex pages after the rendered quotation.
//   - StampFooter: writes the timestamp, generator label and page counter
//     at the bottom of every page.
//   - PageCount: returns the number of pages in a document.
//
// All functions work on in-memory documents; nothing is written to disk.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

// Sentinel errors for document assembly.
var (
	ErrMerge = errors.New("merging PDFs failed")
	ErrStamp = errors.New("stamping footer failed")
	ErrPages = errors.New("counting pages failed")
)

// Annex is a supplementary PDF appended after the quotation.
type Annex struct {
	Path string
	Data []byte
}

// LoadAnnexes reads paths in order. A path that does not exist, or that
// disappears or fails between the existence check and the read, is skipped.
func LoadAnnexes(paths []string, log *zap.Logger) []Annex {
	annexes := make([]Annex, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			log.Debug("annex not found, skipping", zap.String("path", p), zap.Error(err))
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			log.Warn("annex unreadable, skipping", zap.String("path", p), zap.Error(err))
			continue
		}
		annexes = append(annexes, Annex{Path: p, Data: data})
	}
	return annexes
}

// Merge returns main followed by every page of each annex, in order. With
// no annexes main is returned as is.
func Merge(main []byte, annexes []Annex) ([]byte, error) {
	if len(annexes) == 0 {
		return main, nil
	}
	rsc := make([]io.ReadSeeker, 0, len(annexes)+1)
	rsc = append(rsc, bytes.NewReader(main))
	for _, a := range annexes {
		rsc = append(rsc, bytes.NewReader(a.Data))
	}

	var out bytes.Buffer
	config := model.NewDefaultConfiguration()
	if err := pdfapi.MergeRaw(rsc, &out, false, config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMerge, err)
	}
	return out.Bytes(), nil
}

// PageCount returns the number of pages in doc.
func PageCount(doc []byte) (int, error) {
	config := model.NewDefaultConfiguration()
	n, err := pdfapi.PageCount(bytes.NewReader(doc), config)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPages, err)
	}
	return n, nil
}
