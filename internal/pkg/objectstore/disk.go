package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

const tempPrefix = ".upload-"

// Disk stores objects below a local root directory.
type Disk struct {
	root    string
	baseURL string
	logger  *zap.Logger
}

type DiskOption func(*Disk)

func WithDiskLogger(logger *zap.Logger) DiskOption {
	return func(d *Disk) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDisk creates root if needed. publicBaseURL prefixes URL results.
func NewDisk(root, publicBaseURL string, opts ...DiskOption) (*Disk, error) {
	abs, err := filepath.Abs(strings.TrimSpace(root))
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	d := &Disk{root: abs, baseURL: strings.TrimRight(publicBaseURL, "/"), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.Named("DiskStore")
	return d, nil
}

func (d *Disk) Root() string { return d.root }

func (d *Disk) abs(p string) (string, string, error) {
	cleaned, err := CleanPath(p)
	if err != nil {
		return "", "", err
	}
	return cleaned, filepath.Join(d.root, filepath.FromSlash(cleaned)), nil
}

func (d *Disk) Exists(_ context.Context, p string) (bool, error) {
	_, full, err := d.abs(p)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w: %w", p, ErrStorage, err)
	}
	return !info.IsDir(), nil
}

func (d *Disk) Get(_ context.Context, p string) ([]byte, error) {
	_, full, err := d.abs(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", p, ErrStorage, err)
	}
	return data, nil
}

// Put streams into a temp file beside the target and renames it into place,
// so readers never observe a partial object.
func (d *Disk) Put(ctx context.Context, folder, name string, r io.Reader) (string, error) {
	logical, err := Join(folder, name)
	if err != nil {
		return "", err
	}
	full := filepath.Join(d.root, filepath.FromSlash(logical))
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w: %w", folder, ErrStorage, err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return "", fmt.Errorf("create temp: %w: %w", ErrStorage, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, ctxReader{ctx: ctx, r: r}); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write %s: %w: %w", logical, ErrStorage, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("sync %s: %w: %w", logical, ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w: %w", logical, ErrStorage, err)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("write %s: %w: %w", logical, ErrStorage, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		return "", fmt.Errorf("rename %s: %w: %w", logical, ErrStorage, err)
	}
	committed = true
	return logical, nil
}

func (d *Disk) Delete(_ context.Context, paths ...string) error {
	var errs []error
	for _, p := range paths {
		_, full, err := d.abs(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
			d.logger.Warn("delete object failed", zap.String("path", p), zap.Error(err))
			errs = append(errs, fmt.Errorf("delete %s: %w: %w", p, ErrStorage, err))
		}
	}
	return errors.Join(errs...)
}

func (d *Disk) URL(p string) string {
	cleaned, err := CleanPath(p)
	if err != nil {
		return ""
	}
	if d.baseURL == "" {
		return "/" + cleaned
	}
	return d.baseURL + "/" + cleaned
}

func (d *Disk) TemporaryURL(context.Context, string, time.Duration) (string, error) {
	return "", ErrTemporaryURLUnsupported
}

func (d *Disk) Size(_ context.Context, p string) (int64, error) {
	_, full, err := d.abs(p)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w: %w", p, ErrStorage, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory: %w", p, ErrNotFound)
	}
	return info.Size(), nil
}

func (d *Disk) Files(ctx context.Context, folder string, recursive bool) ([]string, error) {
	return d.list(ctx, folder, recursive, false)
}

func (d *Disk) Directories(ctx context.Context, folder string, recursive bool) ([]string, error) {
	return d.list(ctx, folder, recursive, true)
}

func (d *Disk) list(ctx context.Context, folder string, recursive, dirs bool) ([]string, error) {
	base, err := CleanFolder(folder)
	if err != nil {
		return nil, err
	}
	start := filepath.Join(d.root, filepath.FromSlash(base))
	out := []string{}

	err = filepath.WalkDir(start, func(full string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) && full == start {
				return fs.SkipAll
			}
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if full == start {
			return nil
		}
		rel, err := filepath.Rel(d.root, full)
		if err != nil {
			return err
		}
		logical := filepath.ToSlash(rel)
		if entry.IsDir() {
			if dirs {
				out = append(out, logical)
			}
			if !recursive {
				return fs.SkipDir
			}
			return nil
		}
		if !dirs && !strings.HasPrefix(entry.Name(), tempPrefix) {
			out = append(out, logical)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w: %w", folder, ErrStorage, err)
	}
	sort.Strings(out)
	return out, nil
}
