package asset

import (
	"math"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	dashRuns    = regexp.MustCompile(`-+`)
)

// SanitizeFileName replaces characters outside [A-Za-z0-9._-] with "-",
// collapses dash runs and trims leading and trailing dashes and dots.
func SanitizeFileName(name string) string {
	name = unsafeChars.ReplaceAllString(name, "-")
	name = dashRuns.ReplaceAllString(name, "-")
	return strings.Trim(name, "-.")
}

// sanitizeFolder sanitizes each segment and drops the ones left empty,
// which also removes "." and ".." segments.
func sanitizeFolder(folder string) string {
	parts := strings.Split(strings.ReplaceAll(folder, "\\", "/"), "/")
	out := parts[:0]
	for _, part := range parts {
		if s := SanitizeFileName(part); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "/")
}

// extension returns the lowercased extension of name without the dot.
func extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(strings.TrimSpace(name)), "."))
}

// timeName returns a time-ordered unique base name.
func timeName(now time.Time) string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return strconv.FormatInt(now.UnixNano(), 10)
}

// destination derives the folder and sanitized file name for an upload.
func destination(up Upload, ext string, now time.Time) (string, string) {
	folder := up.Folder
	if strings.TrimSpace(folder) == "" {
		folder = up.Name
	}
	folder = sanitizeFolder(folder)

	var name string
	if base := strings.TrimSpace(up.Name); base != "" {
		base = path.Base(strings.ReplaceAll(base, "\\", "/"))
		name = strings.TrimSuffix(base, path.Ext(base)) + "." + ext
	} else {
		name = timeName(now) + "." + ext
	}
	name = SanitizeFileName(name)
	if name == "" || name == ext {
		name = SanitizeFileName(timeName(now) + "." + ext)
	}
	return folder, name
}

var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatBytes renders n with 1024 steps, rounding to precision decimals and
// dropping trailing zeros ("1.5 KB", "100 B").
func FormatBytes(n int64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}
	scale := math.Pow(10, float64(precision))
	v = math.Round(v*scale) / scale
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + byteUnits[i]
}
