package upload

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	apperrors "tripdesk/internal/errors"
)

// Constraints bound what a single upload slot accepts.
type Constraints struct {
	MaxBytes     int64
	AllowedTypes []string
}

// DefaultConstraints mirrors the relay's server-side limits: 5 MiB and the
// image allow-list.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxBytes: 5 << 20,
		AllowedTypes: []string{
			"image/jpeg",
			"image/png",
			"image/webp",
			"image/gif",
		},
	}
}

// Validate runs the pre-flight checks before any network call: size against
// the byte ceiling, then MIME type against the allow-list. The type is
// sniffed from content; the client-declared header is not trusted.
func Validate(name string, size int64, head []byte, c Constraints) error {
	if size > c.MaxBytes {
		return fmt.Errorf("%w: %s is %d bytes, limit is %d", apperrors.ErrTooLarge, name, size, c.MaxBytes)
	}

	detected := mimetype.Detect(head)
	for _, allowed := range c.AllowedTypes {
		if detected.Is(allowed) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s detected as %s", apperrors.ErrUnsupportedType, name, detected.String())
}
