// Package slug generates human readable identifiers that are unique per
// tenant and entity.
package slug

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mx-space/publisher/internal/pkg/apperr"
	"github.com/mx-space/publisher/internal/pkg/tenant"
	"go.uber.org/zap"
)

const (
	DefaultSeparator    = "-"
	DefaultSuffixLength = 12
	DefaultMaxAttempts  = 5
)

var (
	ErrEmptySource            = apperr.ErrEmptySlugSource
	ErrExhausted              = apperr.ErrSlugExhausted
	ErrSuffixStrategyRequired = errors.New("slug collision needs a suffix strategy")
)

// Scope identifies the uniqueness domain of a slug.
type Scope struct {
	Tenant tenant.ID
	Entity string // table name
	Column string // defaults to "slug"
	// ExcludeID skips the row being updated.
	ExcludeID uint64
}

func (s Scope) column() string {
	if s.Column == "" {
		return "slug"
	}
	return s.Column
}

// Checker returns the slugs already taken in scope that equal base or start
// with base followed by separator.
type Checker interface {
	Taken(ctx context.Context, scope Scope, base, separator string) ([]string, error)
}

type Config struct {
	Separator    string
	SuffixLength int
	MaxAttempts  int
	OnUpdate     bool
	// Suffix overrides the random suffix built from SuffixLength.
	Suffix SuffixFunc
}

// DefaultConfig mirrors the application defaults.
func DefaultConfig() Config {
	return Config{
		Separator:    DefaultSeparator,
		SuffixLength: DefaultSuffixLength,
		MaxAttempts:  DefaultMaxAttempts,
		OnUpdate:     true,
	}
}

type Generator struct {
	checker Checker
	cfg     Config
	suffix  SuffixFunc
	logger  *zap.Logger
}

type Option func(*Generator)

func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func NewGenerator(checker Checker, cfg Config, opts ...Option) *Generator {
	if cfg.Separator == "" {
		cfg.Separator = DefaultSeparator
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	g := &Generator{checker: checker, cfg: cfg, logger: zap.NewNop()}
	switch {
	case cfg.Suffix != nil:
		g.suffix = cfg.Suffix
	case cfg.SuffixLength > 0:
		g.suffix = RandomSuffix(cfg.SuffixLength)
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.Named("SlugGenerator")
	return g
}

func (g *Generator) Config() Config { return g.cfg }

// Generate returns a slug for source that is unused in scope at check time.
func (g *Generator) Generate(ctx context.Context, source string, scope Scope) (string, error) {
	return g.generate(ctx, source, scope, "")
}

func (g *Generator) generate(ctx context.Context, source string, scope Scope, avoid string) (string, error) {
	base, err := Normalize(source, g.cfg.Separator)
	if err != nil {
		return "", err
	}

	taken, err := g.checker.Taken(ctx, scope, base, g.cfg.Separator)
	if err != nil {
		return "", fmt.Errorf("check slug %q: %w", base, err)
	}
	if avoid != "" {
		taken = append(taken, avoid)
	}
	if !slices.Contains(taken, base) {
		return base, nil
	}
	if g.suffix == nil {
		return "", fmt.Errorf("slug %q collides: %w", base, ErrSuffixStrategyRequired)
	}

	for attempt := 0; attempt < g.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := g.suffix(base, g.cfg.Separator, taken)
		if candidate == avoid {
			continue
		}
		existing, err := g.checker.Taken(ctx, scope, candidate, g.cfg.Separator)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !slices.Contains(existing, candidate) {
			return candidate, nil
		}
		g.logger.Debug("slug candidate taken", zap.String("candidate", candidate), zap.Int("attempt", attempt+1))
		taken = append(taken, candidate)
	}
	return "", fmt.Errorf("slug %q after %d attempts: %w", base, g.cfg.MaxAttempts, ErrExhausted)
}

// Insert generates a slug and hands it to insert. The unique index is the
// authority: a duplicate-key failure regenerates once, skipping the slug
// that lost the race.
func (g *Generator) Insert(ctx context.Context, source string, scope Scope, insert func(slug string) error) (string, error) {
	candidate, err := g.Generate(ctx, source, scope)
	if err != nil {
		return "", err
	}
	err = insert(candidate)
	if err == nil {
		return candidate, nil
	}
	if !IsDuplicateKey(err) {
		return "", err
	}

	g.logger.Info("slug lost insert race, regenerating", zap.String("slug", candidate), zap.String("entity", scope.Entity))
	retry, err := g.generate(ctx, source, scope, candidate)
	if err != nil {
		return "", err
	}
	if err := insert(retry); err != nil {
		if IsDuplicateKey(err) {
			return "", fmt.Errorf("slug %q: %w: %w", retry, ErrExhausted, err)
		}
		return "", err
	}
	return retry, nil
}

// ShouldRegenerate reports whether a changed source must yield a new slug.
func (g *Generator) ShouldRegenerate(oldSource, newSource string) bool {
	return g.cfg.OnUpdate && oldSource != newSource
}
