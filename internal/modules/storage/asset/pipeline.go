// Package asset validates, transforms and stores uploaded files and keeps
// their tenant-scoped media records.
package asset

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mx-space/publisher/internal/pkg/apperr"
	"github.com/mx-space/publisher/internal/pkg/imageproc"
	"github.com/mx-space/publisher/internal/pkg/objectstore"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTimeout     = 60 * time.Second
	folderSizeParallel = 8
)

type Pipeline struct {
	store       objectstore.Store
	transformer imageproc.Transformer
	logger      *zap.Logger
	maxBytes    int64
	timeout     time.Duration
	now         func() time.Time
}

type Option func(*Pipeline)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTransformer replaces the default 600x600 resizer.
func WithTransformer(t imageproc.Transformer) Option {
	return func(p *Pipeline) { p.transformer = t }
}

// WithMaxBytes rejects larger uploads. Zero disables the check.
func WithMaxBytes(n int64) Option {
	return func(p *Pipeline) { p.maxBytes = n }
}

// WithTimeout bounds the store write when the caller's context has no deadline.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

func NewPipeline(store objectstore.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:       store,
		transformer: imageproc.NewResizer(imageproc.DefaultMaxDimension, imageproc.DefaultQuality),
		logger:      zap.NewNop(),
		timeout:     DefaultTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("AssetPipeline")
	return p
}

func (p *Pipeline) Store() objectstore.Store { return p.store }

func rejection() *apperr.ValidationError {
	return &apperr.ValidationError{
		Field:   "file",
		Message: "file must be an image, video, or PDF",
		Allowed: AllowedExtensions(),
	}
}

// Validate checks the declared extension, the declared MIME type and the
// sniffed content against the allow-lists.
func (p *Pipeline) Validate(up Upload) error {
	if len(up.Data) == 0 {
		return &apperr.ValidationError{Field: "file", Message: "file is empty"}
	}
	if p.maxBytes > 0 && int64(len(up.Data)) > p.maxBytes {
		return &apperr.ValidationError{Field: "file", Message: "file exceeds " + FormatBytes(p.maxBytes, 2)}
	}
	if !slices.Contains(allowedExtensions, extension(up.DeclaredName)) {
		return rejection()
	}
	allowed := AllowedMimes()
	if !slices.Contains(allowed, normalizeMime(up.MimeType)) {
		return rejection()
	}
	detected := mimetype.Detect(up.Data)
	for m := detected; m != nil; m = m.Parent() {
		for _, a := range allowed {
			if m.Is(a) {
				return nil
			}
		}
	}
	return rejection()
}

// Ingest validates and stores up, returning its logical path.
func (p *Pipeline) Ingest(ctx context.Context, up Upload) (string, error) {
	stored, err := p.IngestFile(ctx, up)
	if err != nil {
		return "", err
	}
	return stored.Path, nil
}

// IngestFile is Ingest reporting what was written.
func (p *Pipeline) IngestFile(ctx context.Context, up Upload) (*Stored, error) {
	if err := p.Validate(up); err != nil {
		return nil, err
	}

	ext := extension(up.DeclaredName)
	typ := Classify(up.MimeType)
	folder, name := destination(up, ext, p.now())

	data := up.Data
	degraded := false
	if typ == TypeImage && ext != "svg" && p.transformer != nil {
		out, err := p.transformer.Fit(ctx, data, ext)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			degraded = true
			p.logger.Warn("TransformationDegraded: storing original bytes",
				zap.String("name", name),
				zap.String("ext", ext),
				zap.Error(err),
			)
		} else {
			data = out
		}
	}

	writeCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	logical, err := p.store.Put(writeCtx, folder, name, bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, apperr.ErrStorage) {
			return nil, err
		}
		return nil, apperr.Storage("store upload", err)
	}

	p.logger.Info("asset stored",
		zap.String("path", logical),
		zap.String("type", string(typ)),
		zap.Int("bytes", len(data)),
	)
	return &Stored{Path: logical, FileName: name, Type: typ, Size: int64(len(data)), Degraded: degraded}, nil
}

// Exists reports false for missing paths and on store errors.
func (p *Pipeline) Exists(ctx context.Context, path string) bool {
	ok, err := p.store.Exists(ctx, path)
	return err == nil && ok
}

func (p *Pipeline) Read(ctx context.Context, path string) ([]byte, bool) {
	data, err := p.store.Get(ctx, path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// URL returns the public URL of an existing object.
func (p *Pipeline) URL(ctx context.Context, path string) (string, bool) {
	if !p.Exists(ctx, path) {
		return "", false
	}
	return p.store.URL(path), true
}

// TemporaryURL swallows every failure, including backends that cannot sign.
func (p *Pipeline) TemporaryURL(ctx context.Context, path string, ttl time.Duration) (string, bool) {
	if !p.Exists(ctx, path) {
		return "", false
	}
	u, err := p.store.TemporaryURL(ctx, path, ttl)
	if err != nil {
		p.logger.Debug("temporary url unavailable", zap.String("path", path), zap.Error(err))
		return "", false
	}
	return u, true
}

// Delete removes an existing object. Missing objects report false.
func (p *Pipeline) Delete(ctx context.Context, path string) bool {
	if !p.Exists(ctx, path) {
		return false
	}
	if err := p.store.Delete(ctx, path); err != nil {
		p.logger.Warn("delete asset failed", zap.String("path", path), zap.Error(err))
		return false
	}
	return true
}

// DeleteMany attempts every path and reports whether all succeeded.
// Objects already removed stay removed.
func (p *Pipeline) DeleteMany(ctx context.Context, paths []string) bool {
	all := true
	for _, path := range paths {
		if !p.Delete(ctx, path) {
			all = false
		}
	}
	return all
}

// DeleteFolder removes the files of folder. An empty folder is a success.
func (p *Pipeline) DeleteFolder(ctx context.Context, folder string, recursive bool) bool {
	files, err := p.store.Files(ctx, folder, recursive)
	if err != nil {
		p.logger.Warn("list folder failed", zap.String("folder", folder), zap.Error(err))
		return false
	}
	if len(files) == 0 {
		return true
	}
	if err := p.store.Delete(ctx, files...); err != nil {
		p.logger.Warn("delete folder failed", zap.String("folder", folder), zap.Error(err))
		return false
	}
	return true
}

func (p *Pipeline) FileSize(ctx context.Context, path string) (int64, bool) {
	n, err := p.store.Size(ctx, path)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (p *Pipeline) FileSizeHuman(ctx context.Context, path string) (string, bool) {
	n, ok := p.FileSize(ctx, path)
	if !ok {
		return "", false
	}
	return FormatBytes(n, 2), true
}

// FolderSize sums the sizes of every file in folder with bounded concurrency.
func (p *Pipeline) FolderSize(ctx context.Context, folder string, recursive bool) (int64, error) {
	files, err := p.store.Files(ctx, folder, recursive)
	if err != nil {
		return 0, err
	}
	sizes := make([]int64, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(folderSizeParallel)
	for i, f := range files {
		g.Go(func() error {
			n, err := p.store.Size(gctx, f)
			if err != nil {
				return err
			}
			sizes[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	var total int64
	for _, n := range sizes {
		total += n
	}
	return total, nil
}

func (p *Pipeline) FolderSizeHuman(ctx context.Context, folder string, recursive bool) (string, error) {
	n, err := p.FolderSize(ctx, folder, recursive)
	if err != nil {
		return "", err
	}
	return FormatBytes(n, 2), nil
}

func (p *Pipeline) ListFiles(ctx context.Context, folder string, recursive bool) ([]string, error) {
	return p.store.Files(ctx, folder, recursive)
}

func (p *Pipeline) ListDirectories(ctx context.Context, folder string, recursive bool) ([]string, error) {
	return p.store.Directories(ctx, folder, recursive)
}
