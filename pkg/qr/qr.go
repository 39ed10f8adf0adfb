package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the pixel width of generated QR images.
const DefaultSize = 256

// Encoder renders QR payloads into PNG bytes.
type Encoder struct {
	size int
}

// NewEncoder builds an Encoder with the default image size.
func NewEncoder() *Encoder {
	return &Encoder{size: DefaultSize}
}

// Encode returns a PNG image encoding the given payload.
func (e *Encoder) Encode(payload string) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("qr payload is empty")
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, e.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
