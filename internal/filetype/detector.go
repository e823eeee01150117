package filetype

import (
    "fmt"
    "strings"

    "github.com/gabriel-vasile/mimetype"
    "github.com/rs/zerolog/log"
)

// SourceKind classifies an uploaded exam source.
type SourceKind string

const (
    KindPDF         SourceKind = "pdf"
    KindImage       SourceKind = "image"
    KindUnsupported SourceKind = "unsupported"
)

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
    MIMEType    string
    Extension   string
    Kind        SourceKind
    Supported   bool
    Description string
}

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
    return &Detector{}
}

// Detect detects the actual file type using magic bytes, not filename.
// Exam sources are either PDFs or page photographs; everything else is
// rejected before it reaches the extraction queue.
func (d *Detector) Detect(filePath string) (*FileTypeInfo, error) {
    mtype, err := mimetype.DetectFile(filePath)
    if err != nil {
        return nil, fmt.Errorf("failed to detect file type: %w", err)
    }

    mimeType := mtype.String()
    extension := mtype.Extension()

    log.Debug().Str("mime", mimeType).Str("ext", extension).Str("file", filePath).Msg("detected file type")

    info := &FileTypeInfo{
        MIMEType:  mimeType,
        Extension: extension,
    }
    d.classify(info)

    return info, nil
}

func (d *Detector) classify(info *FileTypeInfo) {
    switch {
    case info.MIMEType == "application/pdf":
        info.Kind = KindPDF
        info.Supported = true
        info.Description = "PDF document"

    case info.MIMEType == "image/jpeg":
        info.Kind = KindImage
        info.Supported = true
        info.Description = "JPEG image"

    case info.MIMEType == "image/png":
        info.Kind = KindImage
        info.Supported = true
        info.Description = "PNG image"

    case info.MIMEType == "image/webp":
        info.Kind = KindImage
        info.Supported = true
        info.Description = "WebP image"

    case strings.HasPrefix(info.MIMEType, "image/tiff"):
        info.Kind = KindImage
        info.Supported = true
        info.Description = "TIFF image"

    default:
        info.Kind = KindUnsupported
        info.Supported = false
        info.Description = fmt.Sprintf("Unsupported file type: %s", info.MIMEType)
    }
}
