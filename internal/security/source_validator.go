package security

import (
	"bytes"
	"errors"
	"fmt"
)

// DefaultThresholdKB is the size above which sources are checked before parsing
const DefaultThresholdKB = 256

// ErrInvalidSource marks content that is not PHP source
var ErrInvalidSource = errors.New("invalid PHP source")

// SourceValidator checks large files before they reach the parser. A binary or
// mislabelled file would otherwise produce a huge error tree.
type SourceValidator struct {
	ValidationThreshold int64 // Files larger than this are validated first
	HeaderSize          int64 // Size of header to inspect
}

// NewSourceValidator creates a validator. A threshold of 0 validates every file.
func NewSourceValidator(thresholdKB int64) *SourceValidator {
	return &SourceValidator{
		ValidationThreshold: thresholdKB * 1024,
		HeaderSize:          64 * 1024,
	}
}

// Validate inspects the header of content. Errors wrap ErrInvalidSource.
func (sv *SourceValidator) Validate(content []byte) error {
	if int64(len(content)) <= sv.ValidationThreshold {
		return nil
	}

	header := content
	if int64(len(header)) > sv.HeaderSize {
		header = header[:sv.HeaderSize]
	}

	if kind, ok := magicKind(header); ok {
		return fmt.Errorf("%w: content is a %s file", ErrInvalidSource, kind)
	}
	if isBinaryData(header) {
		return fmt.Errorf("%w: content appears to be binary", ErrInvalidSource)
	}
	if !hasPHPMarkers(header) {
		return fmt.Errorf("%w: no PHP patterns found", ErrInvalidSource)
	}
	return nil
}

var magicBytes = []struct {
	kind  string
	magic []byte
}{
	{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	{"jpeg", []byte{0xFF, 0xD8, 0xFF}},
	{"gif", []byte{0x47, 0x49, 0x46, 0x38}},
	{"pdf", []byte{0x25, 0x50, 0x44, 0x46, 0x2D}},
	{"zip", []byte{0x50, 0x4B, 0x03, 0x04}},
	{"gzip", []byte{0x1F, 0x8B}},
	{"executable", []byte{0x7F, 0x45, 0x4C, 0x46}}, // ELF
	{"executable", []byte{0x4D, 0x5A}},             // PE
}

// magicKind reports a known binary signature at the start of header
func magicKind(header []byte) (string, bool) {
	for _, m := range magicBytes {
		if bytes.HasPrefix(header, m.magic) {
			return m.kind, true
		}
	}
	return "", false
}

// isBinaryData reports whether more than 30% of data are control characters
func isBinaryData(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	nonPrintable := 0
	for _, b := range data {
		// Control characters except tab, LF, VT, FF and CR; and DEL
		if b < 9 || (b > 13 && b < 32) || b == 127 {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(data)) > 0.3
}

var phpPatterns = [][]byte{
	[]byte("<?php"),
	[]byte("<?="),
	[]byte("<?PHP"),
}

func hasPHPMarkers(header []byte) bool {
	for _, pattern := range phpPatterns {
		if bytes.Contains(header, pattern) {
			return true
		}
	}
	return false
}
