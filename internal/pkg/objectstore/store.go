// Package objectstore abstracts the durable blob store behind uploads.
// Paths are slash separated and relative to the store root.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/mx-space/publisher/internal/pkg/apperr"
)

var (
	ErrStorage                 = apperr.ErrStorage
	ErrNotFound                = fmt.Errorf("object %w", apperr.ErrNotFound)
	ErrInvalidPath             = errors.New("invalid object path")
	ErrTemporaryURLUnsupported = errors.New("temporary urls not supported by this store")
)

type Store interface {
	Exists(ctx context.Context, p string) (bool, error)
	Get(ctx context.Context, p string) ([]byte, error)
	// Put writes r to folder/name and returns the logical path.
	Put(ctx context.Context, folder, name string, r io.Reader) (string, error)
	// Delete removes paths. Missing paths are ignored.
	Delete(ctx context.Context, paths ...string) error
	URL(p string) string
	TemporaryURL(ctx context.Context, p string, ttl time.Duration) (string, error)
	Files(ctx context.Context, folder string, recursive bool) ([]string, error)
	Directories(ctx context.Context, folder string, recursive bool) ([]string, error)
	Size(ctx context.Context, p string) (int64, error)
}

// CleanPath normalizes an object path and rejects escapes from the root.
func CleanPath(p string) (string, error) {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if p == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	if strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidPath, p)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q leaves the root", ErrInvalidPath, p)
		}
	}
	cleaned := path.Clean(p)
	if cleaned == "." {
		return "", fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	return cleaned, nil
}

// CleanFolder is CleanPath that also accepts the root ("").
func CleanFolder(folder string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(folder), "/")
	if trimmed == "" || trimmed == "." {
		return "", nil
	}
	if strings.HasPrefix(strings.TrimSpace(folder), "/") {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidPath, folder)
	}
	return CleanPath(trimmed)
}

// Join builds folder/name from already cleaned parts. name must be a single segment.
func Join(folder, name string) (string, error) {
	f, err := CleanFolder(folder)
	if err != nil {
		return "", err
	}
	n := strings.TrimSpace(name)
	if n == "" || n == "." || strings.ContainsAny(n, "/\\") || n == ".." {
		return "", fmt.Errorf("%w: bad name %q", ErrInvalidPath, name)
	}
	if f == "" {
		return n, nil
	}
	return f + "/" + n, nil
}

// parentDirs lists every ancestor directory of p below base, shallowest first.
func parentDirs(base, p string) []string {
	rel := strings.TrimPrefix(p, prefixOf(base))
	parts := strings.Split(rel, "/")
	if len(parts) < 2 {
		return nil
	}
	out := make([]string, 0, len(parts)-1)
	cur := base
	for _, part := range parts[:len(parts)-1] {
		if cur == "" {
			cur = part
		} else {
			cur = cur + "/" + part
		}
		out = append(out, cur)
	}
	return out
}

func prefixOf(folder string) string {
	if folder == "" {
		return ""
	}
	return folder + "/"
}

// ctxReader aborts a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
