package pages

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/heic"
)

// normalizeImage converts an uploaded image to PNG. JPEG, PNG, and GIF go
// through the standard decoders; HEIC/HEIF (common from phone cameras) uses
// a dedicated decoder since the standard image package cannot read it.
func normalizeImage(data []byte, contentType string) ([]byte, error) {
	mime := strings.ToLower(strings.TrimSpace(contentType))

	if mime == "image/png" && !looksHEIC(data) {
		return data, nil
	}

	var img image.Image
	var err error
	if looksHEIC(data) || strings.Contains(mime, "hei") {
		img, err = heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode HEIC image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// looksHEIC sniffs the ftyp box brands HEIC containers carry.
func looksHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}
