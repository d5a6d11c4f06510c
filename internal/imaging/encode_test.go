package imaging

import (
	"bytes"
	"encoding/base64"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/color-transfer/internal/colorspace"
)

func TestEncodePNGBase64(t *testing.T) {
	pb, _ := NewPixelBuffer(6, 4)
	for i := range pb.Pix {
		pb.Pix[i] = colorspace.PackARGB(255, 10, 20, 30)
	}

	enc, err := EncodePNGBase64(pb)
	if err != nil {
		t.Fatalf("EncodePNGBase64 failed: %v", err)
	}
	if enc.Width != 6 || enc.Height != 4 || enc.MimeType != "image/png" {
		t.Errorf("unexpected result: %dx%d %s", enc.Width, enc.Height, enc.MimeType)
	}

	raw, err := base64.StdEncoding.DecodeString(enc.ImageBase64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	if got := color.NRGBAModel.Convert(img.At(3, 2)).(color.NRGBA); got != (color.NRGBA{10, 20, 30, 255}) {
		t.Errorf("pixel (3,2): got %v", got)
	}
}

func TestEncoderForPath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"out.png", false},
		{"out.JPG", false},
		{"out.jpeg", false},
		{"out.bmp", false},
		{"out.webp", true},
		{"out", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			enc, err := EncoderForPath(tt.path, 0)
			if (err != nil) != tt.wantErr {
				t.Fatalf("EncoderForPath(%q): err = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if !tt.wantErr && enc == nil {
				t.Error("expected an encoder")
			}
		})
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	pb, _ := NewPixelBuffer(8, 8)
	for i := range pb.Pix {
		pb.Pix[i] = colorspace.PackARGB(255, 200, 100, 50)
	}

	for _, name := range []string{"out.png", "out.jpg"} {
		path := filepath.Join(dir, name)
		if err := Save(pb, path, 90); err != nil {
			t.Fatalf("Save(%s) failed: %v", name, err)
		}

		img, err := NewFileLoader().Load(path)
		if err != nil {
			t.Fatalf("failed to reload %s: %v", name, err)
		}
		if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 8 {
			t.Errorf("%s: expected 8x8, got %v", name, img.Bounds())
		}
	}

	if err := Save(pb, filepath.Join(dir, "out.txt"), 0); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if _, err := os.Stat(filepath.Join(dir, "out.txt")); !os.IsNotExist(err) {
		t.Error("no file should be written for an unsupported extension")
	}
}
