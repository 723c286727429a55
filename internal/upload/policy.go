// Package upload decides which files may become documents.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/folio/internal/apperr"
)

// DefaultMaxBytes caps a single upload.
const DefaultMaxBytes int64 = 20 << 20

// DefaultAccept lists the file patterns accepted when none are configured.
var DefaultAccept = []string{"**/*.pdf", "**/*.ppt", "**/*.pptx"}

// Rejection reasons, both wrapped together with apperr.ErrValidation.
var (
	ErrTooLarge    = errors.New("file too large")
	ErrUnsupported = errors.New("unsupported file type")
)

// Policy holds the accepted name patterns and the size limit.
type Policy struct {
	// Accept holds doublestar patterns matched case-insensitively against
	// the file name.
	Accept   []string
	MaxBytes int64
}

// NewPolicy fills empty fields with the defaults.
func NewPolicy(accept []string, maxBytes int64) Policy {
	if len(accept) == 0 {
		accept = DefaultAccept
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return Policy{Accept: accept, MaxBytes: maxBytes}
}

// Validate checks the policy's own patterns.
func (p Policy) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Accept, validation.Required, validation.Each(validation.By(validPattern))),
		validation.Field(&p.MaxBytes, validation.Required, validation.Min(int64(1))),
	)
}

func validPattern(v any) error {
	pattern, _ := v.(string)
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid pattern %q", pattern)
	}
	return nil
}

// Check reports whether a file called name with size bytes may be uploaded.
// Rejections wrap apperr.ErrValidation and, where it applies, ErrTooLarge
// or ErrUnsupported.
func (p Policy) Check(name string, size int64) error {
	if err := validation.Validate(name, validation.Required); err != nil {
		return fmt.Errorf("file name: %s: %w", err.Error(), apperr.ErrValidation)
	}
	if err := validation.Validate(name, validation.By(p.accepts)); err != nil {
		return fmt.Errorf("%w %q: %w", ErrUnsupported, filepath.Ext(name), apperr.ErrValidation)
	}
	if size > p.MaxBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d: %w", ErrTooLarge, size, p.MaxBytes, apperr.ErrValidation)
	}
	return nil
}

func (p Policy) accepts(v any) error {
	name, _ := v.(string)
	base := strings.ToLower(filepath.ToSlash(name))
	for _, pattern := range p.Accept {
		if ok, _ := doublestar.Match(strings.ToLower(pattern), base); ok {
			return nil
		}
	}
	return ErrUnsupported
}

var (
	magicPDF = []byte("%PDF")
	magicOLE = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	magicZip = []byte("PK\x03\x04")
)

// Sniff infers the extension of data from its leading bytes: ".pdf" for
// PDF, ".ppt" for legacy Office (OLE) and ".pptx" for OOXML (zip).
func Sniff(data []byte) (string, bool) {
	switch {
	case bytes.HasPrefix(data, magicPDF):
		return ".pdf", true
	case bytes.HasPrefix(data, magicOLE):
		return ".ppt", true
	case bytes.HasPrefix(data, magicZip):
		return ".pptx", true
	default:
		return "", false
	}
}
