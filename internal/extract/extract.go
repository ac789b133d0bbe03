// Package extract converts downloaded menu documents into plain text.
package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/oxmenu/internal/apperr"
)

// Extractor kinds accepted in configuration.
const (
	KindPDF       = "pdf"
	KindPDFToText = "pdftotext"
	KindText      = "text"
)

// Extractor decodes document bytes into text. Failures wrap
// apperr.ErrExtraction.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// New returns the extractor for kind. binary and timeout only apply to
// KindPDFToText.
func New(kind, binary string, timeout time.Duration) (Extractor, error) {
	switch kind {
	case KindPDF, "":
		return PDF{}, nil
	case KindPDFToText:
		return NewCommand(binary, timeout), nil
	case KindText:
		return Text{}, nil
	default:
		return nil, fmt.Errorf("extract: unknown kind %q", kind)
	}
}

func failf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperr.ErrExtraction, fmt.Sprintf(format, args...))
}
