package processing

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/ckd-scanner/pkg/types"
)

// Send formats accepted by PrepareImageForModel
const (
	FormatJPEG = "jpg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// UploadExtensions are the file types accepted from users
var UploadExtensions = []string{"jpg", "jpeg", "png"}

// ErrUnsupportedFile is returned by ValidateFileExtension
var ErrUnsupportedFile = errors.New("file type not allowed")

// Processor handles image decoding and re-encoding for the vision model
type Processor struct {
	httpClient *http.Client
}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ValidateFileExtension accepts only the upload extensions (case-insensitive)
func ValidateFileExtension(filename string) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return fmt.Errorf("%w: file extension missing", ErrUnsupportedFile)
	}
	for _, allowed := range UploadExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: .%s (allowed: %s)", ErrUnsupportedFile, ext, strings.Join(UploadExtensions, ", "))
}

// DecodeImage decodes raw bytes into an image. Decoding failure is the only
// validation performed on uploads.
func (p *Processor) DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image: empty input")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}

	// Try WebP decode
	if img, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
		return img, nil
	}

	return nil, fmt.Errorf("failed to decode image: %w", err)
}

// LoadImageFromURL downloads raw image bytes from a URL
func (p *Processor) LoadImageFromURL(imageURL string) ([]byte, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	req, err := http.NewRequest(http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", "CKD-Scanner/1.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %v", err)
	}
	return data, nil
}

// LoadImageSmart reads raw image bytes from either a file path or URL
func (p *Processor) LoadImageSmart(source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.LoadImageFromURL(source)
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	return data, nil
}

// PrepareImageForModel downscales the long side to maxDim (0 keeps the
// original size) and encodes the image in the requested format
func (p *Processor) PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (types.EncodedImage, error) {
	if maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}
	if quality < 1 || quality > 100 {
		quality = 85
	}

	var buf bytes.Buffer
	var mimeType string
	switch strings.ToLower(format) {
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return types.EncodedImage{}, err
		}
		mimeType = "image/png"
	case FormatWebP:
		if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
			return types.EncodedImage{}, err
		}
		mimeType = "image/webp"
	default: // jpg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return types.EncodedImage{}, err
		}
		mimeType = "image/jpeg"
	}

	return types.EncodedImage{MimeType: mimeType, Data: buf.Bytes()}, nil
}
