package files

import (
	"strings"

	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

// Classify maps a declared MIME type onto a file category. It never fails:
// an empty or unrecognised type is UNKNOWN.
func Classify(contentType string) types.FileCategory {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case ct == "":
		return types.FileCategoryUnknown
	case strings.HasPrefix(ct, "image/"):
		return types.FileCategoryImage
	case strings.Contains(ct, "pdf"):
		return types.FileCategoryPDF
	case strings.Contains(ct, "msword"),
		strings.Contains(ct, "wordprocessingml"),
		strings.Contains(ct, "opendocument.text"):
		return types.FileCategoryWord
	}
	return types.FileCategoryUnknown
}
