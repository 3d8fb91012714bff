package constants

import "strings"

// Document formats, stored in documents.format.
const (
	FormatPDF   = "PDF"
	FormatImage = "IMAGE"
	FormatText  = "TXT"
)

// FileTypes holds the allowed values for the documents.format column.
var FileTypes = []string{FormatPDF, FormatImage, FormatText}

// AllowedExtensions holds the file extensions accepted for upload.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"txt":  {},
}

// MaxUploadBytes is the upload size limit (10 MiB).
const MaxUploadBytes int64 = 10 << 20

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether ext (with or without the dot) may be uploaded.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// MapExtToFormat maps a file extension to its document format. ok is false
// for extensions that are not accepted.
func MapExtToFormat(ext string) (string, bool) {
	switch NormalizeExt(ext) {
	case "pdf":
		return FormatPDF, true
	case "jpg", "jpeg", "png":
		return FormatImage, true
	case "txt":
		return FormatText, true
	default:
		return "", false
	}
}
