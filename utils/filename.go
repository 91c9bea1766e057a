package utils

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UniqueFilename inserts token between the stem and the extension of original.
// The stem ends at the first dot and the extension is the last dot-separated
// segment, so "my.photo.png" becomes "my<token>.png".
func UniqueFilename(original, token string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}

	parts := strings.Split(base, ".")
	stem := parts[0]
	if len(parts) == 1 || parts[len(parts)-1] == "" {
		return stem + token
	}
	return stem + token + "." + parts[len(parts)-1]
}

// NewUploadName derives a collision-free stored name for an uploaded file.
func NewUploadName(original string) string {
	return UniqueFilename(original, uuid.NewString())
}
