package extract

import (
	"bytes"
	"context"
	"unicode/utf8"
)

// Text accepts documents that already are UTF-8 text.
type Text struct{}

// Extract implements Extractor.
func (Text) Extract(_ context.Context, data []byte) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", failf("empty document")
	}
	if !utf8.Valid(data) {
		return "", failf("document is not UTF-8 text")
	}
	return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), nil
}
