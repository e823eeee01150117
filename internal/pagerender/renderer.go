package pagerender

import (
    "bytes"
    "encoding/base64"
    "fmt"
    "image"
    "image/draw"
    "image/jpeg"
    _ "image/png"
    "os"

    "github.com/gen2brain/go-fitz"
    "github.com/rs/zerolog/log"
)

// ColorMode defines the color mode for rendering
type ColorMode string

const (
    ColorRGB  ColorMode = "rgb"
    ColorGray ColorMode = "gray"
)

// Options controls how source pages are rasterized for vision extraction.
type Options struct {
    DPI     int
    Quality int
    Color   ColorMode
}

// DefaultOptions returns rendering defaults tuned for question extraction:
// grayscale is enough for printed papers and keeps payloads small.
func DefaultOptions() Options {
    return Options{DPI: 150, Quality: 80, Color: ColorGray}
}

// RenderPDFPage renders one PDF page as JPEG (in-memory).
// Returns JPEG bytes, width, height, error. pageNum is 1-based.
func RenderPDFPage(pdfPath string, pageNum int, opts Options) ([]byte, int, int, error) {
    doc, err := fitz.New(pdfPath)
    if err != nil {
        return nil, 0, 0, fmt.Errorf("failed to open PDF: %w", err)
    }
    defer doc.Close()

    // go-fitz uses 0-based indexing
    img, err := doc.ImageDPI(pageNum-1, float64(opts.DPI))
    if err != nil {
        return nil, 0, 0, fmt.Errorf("failed to render page %d: %w", pageNum, err)
    }

    return encodeJPEG(img, pageNum, opts)
}

// RenderImageFile loads a standalone image source (JPEG or PNG) and
// re-encodes it as JPEG with the requested color mode, so single-image
// uploads flow through the same extraction path as PDF pages.
func RenderImageFile(imagePath string, opts Options) ([]byte, int, int, error) {
    f, err := os.Open(imagePath)
    if err != nil {
        return nil, 0, 0, fmt.Errorf("failed to open image: %w", err)
    }
    defer f.Close()

    img, format, err := image.Decode(f)
    if err != nil {
        return nil, 0, 0, fmt.Errorf("failed to decode image: %w", err)
    }
    log.Debug().Str("format", format).Str("file", imagePath).Msg("decoded source image")

    return encodeJPEG(img, 1, opts)
}

func encodeJPEG(img image.Image, pageNum int, opts Options) ([]byte, int, int, error) {
    bounds := img.Bounds()
    width := bounds.Dx()
    height := bounds.Dy()

    var finalImg image.Image
    if opts.Color == ColorGray {
        grayImg := image.NewGray(bounds)
        draw.Draw(grayImg, bounds, img, image.Point{}, draw.Src)
        finalImg = grayImg
    } else {
        finalImg = img
    }

    var buf bytes.Buffer
    if err := jpeg.Encode(&buf, finalImg, &jpeg.Options{Quality: opts.Quality}); err != nil {
        return nil, 0, 0, fmt.Errorf("failed to encode JPEG: %w", err)
    }

    jpegBytes := buf.Bytes()

    log.Debug().
        Int("page", pageNum).
        Int("width", width).
        Int("height", height).
        Int("jpeg_size", len(jpegBytes)).
        Int("quality", opts.Quality).
        Str("color", string(opts.Color)).
        Msg("rendered page as JPEG")

    return jpegBytes, width, height, nil
}

// EncodeToBase64 converts binary data to base64 string
func EncodeToBase64(data []byte) string {
    return base64.StdEncoding.EncodeToString(data)
}

// DecodeFromBase64 converts base64 string back to binary data
func DecodeFromBase64(b64 string) ([]byte, error) {
    return base64.StdEncoding.DecodeString(b64)
}

// GetImageDimensions extracts dimensions from JPEG bytes
func GetImageDimensions(jpegBytes []byte) (width, height int, err error) {
    img, err := jpeg.Decode(bytes.NewReader(jpegBytes))
    if err != nil {
        return 0, 0, fmt.Errorf("failed to decode JPEG: %w", err)
    }

    bounds := img.Bounds()
    return bounds.Dx(), bounds.Dy(), nil
}
