package extract

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// PDF extracts text in-process. Each text row becomes one line; a vertical
// gap wider than 1.5 rows becomes a blank line, which is how the menu
// separates days.
type PDF struct{}

// Extract implements Extractor.
func (PDF) Extract(_ context.Context, data []byte) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", failf("pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", failf("pdf: open: %v", err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", failf("pdf: page %d: %v", i, err)
		}
		writeRows(&b, rows)
	}

	out := b.String()
	if strings.TrimSpace(out) == "" {
		return "", failf("pdf: no text")
	}
	return out, nil
}

func writeRows(b *strings.Builder, rows pdf.Rows) {
	var prev int64
	for i, row := range rows {
		if len(row.Content) == 0 {
			continue
		}
		height := row.Content[0].FontSize
		if height <= 0 {
			height = 10
		}
		if i > 0 && float64(prev-row.Position) > 1.5*height {
			b.WriteString("\n")
		}
		prev = row.Position

		var line strings.Builder
		for j, t := range row.Content {
			if j > 0 && spaced(row.Content[j-1], t, height) {
				line.WriteByte(' ')
			}
			line.WriteString(t.S)
		}
		b.WriteString(line.String())
		b.WriteString("\n")
	}
}

// spaced reports whether two runs on one row are separate words positioned
// apart without a space glyph between them.
func spaced(prev, next pdf.Text, height float64) bool {
	if prev.S == "" || next.S == "" ||
		strings.HasSuffix(prev.S, " ") || strings.HasPrefix(next.S, " ") {
		return false
	}
	end := prev.X + prev.W
	if prev.W <= 0 {
		// Width unknown: assume generous glyphs so tight per-glyph runs stay joined.
		end = prev.X + float64(utf8.RuneCountInString(prev.S))*0.6*height + 0.3*height
	}
	return next.X > end+0.2*height
}

