package constants

import "strings"

// FileFormat tags a manuscript or template upload with its extraction
// variant. The caller selects the format by extension before the core
// ever sees bytes.
type FileFormat string

const (
	FormatPDF         FileFormat = "PDF"
	FormatDOCX        FileFormat = "DOCX"
	FormatSpreadsheet FileFormat = "SPREADSHEET"
)

// AllowedExtensions holds the allowed file extensions for manuscript and
// template uploads.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"xls":  {},
	"xlsx": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// FormatForExt maps a (possibly dotted, mixed-case) extension to its
// extraction format.
func FormatForExt(ext string) (FileFormat, bool) {
	switch NormalizeExt(ext) {
	case "pdf":
		return FormatPDF, true
	case "docx":
		return FormatDOCX, true
	case "xls", "xlsx":
		return FormatSpreadsheet, true
	}
	return "", false
}
