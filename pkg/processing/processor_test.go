package processing

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// createTestImage creates a simple gradient image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			img.Set(x, y, color.RGBA{r, g, 128, 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestValidateFileExtension(t *testing.T) {
	valid := []string{"label.jpg", "label.JPEG", "a/b/label.png", "x.jpeg"}
	for _, name := range valid {
		if err := ValidateFileExtension(name); err != nil {
			t.Errorf("%s should be accepted: %v", name, err)
		}
	}

	invalid := []string{"label.gif", "label.webp", "label", "label.pdf"}
	for _, name := range invalid {
		if err := ValidateFileExtension(name); !errors.Is(err, ErrUnsupportedFile) {
			t.Errorf("%s should be rejected, got %v", name, err)
		}
	}
}

func TestDecodeImage(t *testing.T) {
	p := NewProcessor()

	img, err := p.DecodeImage(encodePNG(t, createTestImage(40, 30)))
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Errorf("Unexpected bounds %v", img.Bounds())
	}

	if _, err := p.DecodeImage([]byte("definitely not an image")); err == nil {
		t.Error("Garbage should fail to decode")
	}
	if _, err := p.DecodeImage(nil); err == nil {
		t.Error("Empty input should fail to decode")
	}
}

func TestPrepareImageForModel(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(400, 200)

	tests := []struct {
		format string
		mime   string
	}{
		{FormatJPEG, "image/jpeg"},
		{FormatPNG, "image/png"},
		{FormatWebP, "image/webp"},
		{"", "image/jpeg"},
	}

	for _, test := range tests {
		enc, err := p.PrepareImageForModel(img, test.format, 100, 80)
		if err != nil {
			t.Fatalf("PrepareImageForModel(%q) failed: %v", test.format, err)
		}
		if enc.MimeType != test.mime {
			t.Errorf("Format %q: expected %s, got %s", test.format, test.mime, enc.MimeType)
		}
		if len(enc.Data) == 0 {
			t.Errorf("Format %q produced no data", test.format)
		}

		decoded, err := p.DecodeImage(enc.Data)
		if err != nil {
			t.Fatalf("Re-decoding %q failed: %v", test.format, err)
		}
		if decoded.Bounds().Dx() != 100 || decoded.Bounds().Dy() != 50 {
			t.Errorf("Format %q: expected 100x50, got %v", test.format, decoded.Bounds())
		}
	}
}

func TestPrepareImageKeepsSmallImages(t *testing.T) {
	p := NewProcessor()
	enc, err := p.PrepareImageForModel(createTestImage(60, 90), FormatJPEG, 1536, 85)
	if err != nil {
		t.Fatalf("PrepareImageForModel failed: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(enc.Data))
	if err != nil {
		t.Fatalf("jpeg decode: %v", err)
	}
	if img.Bounds().Dx() != 60 || img.Bounds().Dy() != 90 {
		t.Errorf("Small image should not be resized, got %v", img.Bounds())
	}
}

func TestLoadImageSmart(t *testing.T) {
	p := NewProcessor()
	data := encodePNG(t, createTestImage(10, 10))

	path := filepath.Join(t.TempDir(), "label.png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := p.LoadImageSmart(path)
	if err != nil {
		t.Fatalf("LoadImageSmart(file) failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("File bytes differ")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/text" {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("hi"))
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	got, err = p.LoadImageSmart(srv.URL + "/label.png")
	if err != nil {
		t.Fatalf("LoadImageSmart(url) failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("URL bytes differ")
	}

	if _, err := p.LoadImageSmart(srv.URL + "/text"); err == nil {
		t.Error("Non-image content type should fail")
	}
	if _, err := p.LoadImageSmart(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Missing file should fail")
	}
}
