package pagerender

import (
    "bytes"
    "image"
    "image/color"
    "image/png"
    "os"
    "path/filepath"
    "testing"
)

func writeTestPNG(t *testing.T, w, h int) string {
    t.Helper()
    img := image.NewRGBA(image.Rect(0, 0, w, h))
    for x := 0; x < w; x++ {
        for y := 0; y < h; y++ {
            img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
        }
    }
    path := filepath.Join(t.TempDir(), "page.png")
    f, err := os.Create(path)
    if err != nil {
        t.Fatal(err)
    }
    defer f.Close()
    if err := png.Encode(f, img); err != nil {
        t.Fatal(err)
    }
    return path
}

func TestRenderImageFile(t *testing.T) {
    path := writeTestPNG(t, 120, 80)

    jpegBytes, w, h, err := RenderImageFile(path, DefaultOptions())
    if err != nil {
        t.Fatalf("RenderImageFile: %v", err)
    }
    if w != 120 || h != 80 {
        t.Errorf("dimensions: got %dx%d, want 120x80", w, h)
    }
    if len(jpegBytes) == 0 {
        t.Fatal("empty JPEG output")
    }
    if !bytes.HasPrefix(jpegBytes, []byte{0xFF, 0xD8}) {
        t.Error("output is not a JPEG")
    }

    gw, gh, err := GetImageDimensions(jpegBytes)
    if err != nil {
        t.Fatalf("GetImageDimensions: %v", err)
    }
    if gw != 120 || gh != 80 {
        t.Errorf("decoded dimensions: got %dx%d", gw, gh)
    }
}

func TestRenderImageFile_ColorModes(t *testing.T) {
    path := writeTestPNG(t, 16, 16)

    grayBytes, _, _, err := RenderImageFile(path, Options{DPI: 150, Quality: 80, Color: ColorGray})
    if err != nil {
        t.Fatal(err)
    }
    rgbBytes, _, _, err := RenderImageFile(path, Options{DPI: 150, Quality: 80, Color: ColorRGB})
    if err != nil {
        t.Fatal(err)
    }
    if len(grayBytes) == 0 || len(rgbBytes) == 0 {
        t.Fatal("empty output")
    }
}

func TestBase64RoundTrip(t *testing.T) {
    data := []byte{0xFF, 0xD8, 0x01, 0x02, 0x03}
    enc := EncodeToBase64(data)
    dec, err := DecodeFromBase64(enc)
    if err != nil {
        t.Fatalf("DecodeFromBase64: %v", err)
    }
    if !bytes.Equal(dec, data) {
        t.Error("round trip mismatch")
    }
}

func TestRenderImageFile_MissingFile(t *testing.T) {
    if _, _, _, err := RenderImageFile(filepath.Join(t.TempDir(), "nope.png"), DefaultOptions()); err == nil {
        t.Error("missing file must error")
    }
}
