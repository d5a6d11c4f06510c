package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
)

// DefaultJPEGQuality is used by Save when the caller passes a quality of 0.
const DefaultJPEGQuality = 92

// EncodedImage is an image serialized for transport in a JSON response.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNGBase64 encodes img as PNG and returns it base64-encoded.
func EncodePNGBase64(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	bounds := img.Bounds()
	return &EncodedImage{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// EncoderForPath picks an encoder from the file extension of path.
// JPEG quality is clamped to 1..100; 0 selects DefaultJPEGQuality.
func EncoderForPath(path string, quality int) (imgio.Encoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return imgio.PNGEncoder(), nil
	case ".jpg", ".jpeg":
		if quality == 0 {
			quality = DefaultJPEGQuality
		}
		return imgio.JPEGEncoder(min(max(quality, 1), 100)), nil
	case ".bmp":
		return imgio.BMPEncoder(), nil
	}
	return nil, fmt.Errorf("unsupported output format: %q", filepath.Ext(path))
}

// Save writes img to path in the format implied by its extension.
func Save(img image.Image, path string, quality int) error {
	enc, err := EncoderForPath(path, quality)
	if err != nil {
		return err
	}
	if pb, ok := img.(*PixelBuffer); ok {
		// Encoders have fast paths for NRGBA.
		img = pb.ToNRGBA()
	}
	if err := imgio.Save(path, img, enc); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
