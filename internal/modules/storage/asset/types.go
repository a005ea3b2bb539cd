package asset

import (
	"slices"
	"strings"
)

// FileType is the coarse class an upload is filed under.
type FileType string

const (
	TypeImage FileType = "images"
	TypeVideo FileType = "videos"
	TypePDF   FileType = "pdf"
	TypeOther FileType = "others"
)

var (
	imageMimes = []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp", "image/svg+xml"}
	videoMimes = []string{"video/mp4", "video/mpeg", "video/quicktime", "video/x-msvideo", "video/webm", "video/ogg"}
	pdfMimes   = []string{"application/pdf"}

	allowedExtensions = []string{
		"jpg", "jpeg", "png", "gif", "webp", "svg",
		"mp4", "mpeg", "mov", "avi", "webm", "ogg",
		"pdf",
	}
)

// AllowedExtensions lists the accepted file extensions without dots.
func AllowedExtensions() []string { return slices.Clone(allowedExtensions) }

// AllowedMimes lists every accepted MIME type.
func AllowedMimes() []string {
	return slices.Concat(imageMimes, videoMimes, pdfMimes)
}

func normalizeMime(m string) string {
	m = strings.ToLower(strings.TrimSpace(m))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	return m
}

// Classify maps a MIME type onto its FileType.
func Classify(mimeType string) FileType {
	m := normalizeMime(mimeType)
	switch {
	case slices.Contains(imageMimes, m):
		return TypeImage
	case slices.Contains(videoMimes, m):
		return TypeVideo
	case slices.Contains(pdfMimes, m):
		return TypePDF
	}
	return TypeOther
}

// Upload is one untrusted file handed to the pipeline.
type Upload struct {
	Data         []byte
	DeclaredName string
	MimeType     string
	// Folder is the destination hint. Name is used when Folder is empty.
	Folder string
	// Name replaces the stored base name; the declared extension is kept.
	Name string
}

// Stored describes what Ingest wrote.
type Stored struct {
	Path     string
	FileName string
	Type     FileType
	Size     int64
	// Degraded is set when the image transform failed and the original bytes were kept.
	Degraded bool
}
