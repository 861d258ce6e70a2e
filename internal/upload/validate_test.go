package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "tripdesk/internal/errors"
)

var (
	jpegHead = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 500)...)
	pngHead  = append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 500)...)
	textHead = []byte("just some plain text, definitely not an image")
)

func TestValidate(t *testing.T) {
	constraints := DefaultConstraints()

	tests := []struct {
		name     string
		fileName string
		size     int64
		head     []byte
		expected error
	}{
		{"jpeg within limit accepted", "photo.jpg", 1 << 20, jpegHead, nil},
		{"png within limit accepted", "logo.png", 2 << 20, pngHead, nil},
		{"10MB jpeg rejected as too large", "huge.jpg", 10 << 20, jpegHead, apperrors.ErrTooLarge},
		{"one byte over the ceiling rejected", "edge.jpg", (5 << 20) + 1, jpegHead, apperrors.ErrTooLarge},
		{"exactly at the ceiling accepted", "edge.jpg", 5 << 20, jpegHead, nil},
		{"text file rejected as unsupported", "notes.txt", 100, textHead, apperrors.ErrUnsupportedType},
		{"mislabeled text rejected by sniffing", "fake.jpg", 100, textHead, apperrors.ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.fileName, tt.size, tt.head, constraints)
			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected)
			}
		})
	}
}

func TestValidate_SizeCheckedBeforeType(t *testing.T) {
	// An oversized file of an unsupported type reports TooLarge: the size
	// check runs first and no sniffing outcome overrides it.
	err := Validate("huge.txt", 10<<20, textHead, DefaultConstraints())
	assert.ErrorIs(t, err, apperrors.ErrTooLarge)
}
