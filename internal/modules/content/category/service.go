package category

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mx-space/publisher/internal/models"
	"github.com/mx-space/publisher/internal/pkg/apperr"
	"github.com/mx-space/publisher/internal/pkg/slug"
	"github.com/mx-space/publisher/internal/pkg/tenant"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound = fmt.Errorf("category %w", apperr.ErrNotFound)
	ErrTagNotFound      = fmt.Errorf("tag %w", apperr.ErrNotFound)
)

type CreateCategoryDTO struct {
	Name        string `json:"name"        binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type CreateTagDTO struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug"`
}

// Service keeps per-tenant categories and tags. Colliding slugs get a
// numeric counter ("news-2").
type Service struct {
	db      *gorm.DB
	slugCfg slug.Config
	slugs   *slug.Generator
	logger  *zap.Logger
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSlugConfig overrides separator and attempts. The suffix strategy is always the counter.
func WithSlugConfig(cfg slug.Config) Option {
	return func(s *Service) { s.slugCfg = cfg }
}

func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{db: db, slugCfg: slug.DefaultConfig(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("CategoryService")
	s.slugCfg.Suffix = slug.CounterSuffix()
	s.slugs = slug.NewGenerator(slug.NewGormChecker(db), s.slugCfg, slug.WithLogger(s.logger))
	return s
}

func slugSource(explicit, name string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	return name
}

func (s *Service) CreateCategory(ctx context.Context, ref tenant.Ref, dto *CreateCategoryDTO) (*models.CategoryModel, error) {
	if strings.TrimSpace(dto.Name) == "" {
		return nil, apperr.Validation("name", "name is required")
	}
	cat := &models.CategoryModel{Name: strings.TrimSpace(dto.Name), Description: dto.Description}
	tenant.Assign(ref, &cat.TenantID)
	scope := slug.Scope{Tenant: tenant.Resolve(ref), Entity: "categories"}

	_, err := s.slugs.Insert(ctx, slugSource(dto.Slug, dto.Name), scope, func(sl string) error {
		cat.ID = 0
		cat.Slug = sl
		return s.db.WithContext(ctx).Create(cat).Error
	})
	if err != nil {
		return nil, err
	}
	return cat, nil
}

func (s *Service) ListCategories(ctx context.Context, ref tenant.Ref) ([]models.CategoryModel, error) {
	cats := []models.CategoryModel{}
	return cats, s.db.WithContext(ctx).Scopes(tenant.Scope(ref)).Order("name ASC, id ASC").Find(&cats).Error
}

func (s *Service) CategoryBySlug(ctx context.Context, ref tenant.Ref, sl string) (*models.CategoryModel, error) {
	var cat models.CategoryModel
	err := s.db.WithContext(ctx).Scopes(tenant.Scope(ref)).Where("slug = ?", sl).First(&cat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	return &cat, err
}

func (s *Service) CreateTag(ctx context.Context, ref tenant.Ref, dto *CreateTagDTO) (*models.TagModel, error) {
	if strings.TrimSpace(dto.Name) == "" {
		return nil, apperr.Validation("name", "name is required")
	}
	tag := &models.TagModel{Name: strings.TrimSpace(dto.Name)}
	tenant.Assign(ref, &tag.TenantID)
	scope := slug.Scope{Tenant: tenant.Resolve(ref), Entity: "tags"}

	_, err := s.slugs.Insert(ctx, slugSource(dto.Slug, dto.Name), scope, func(sl string) error {
		tag.ID = 0
		tag.Slug = sl
		return s.db.WithContext(ctx).Create(tag).Error
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *Service) ListTags(ctx context.Context, ref tenant.Ref) ([]models.TagModel, error) {
	tags := []models.TagModel{}
	return tags, s.db.WithContext(ctx).Scopes(tenant.Scope(ref)).Order("name ASC, id ASC").Find(&tags).Error
}

// Categories loads the tenant's categories with the given ids. Any id the
// tenant does not own is a validation error, so foreign ids cannot be attached.
func (s *Service) Categories(ctx context.Context, ref tenant.Ref, ids []uint64) ([]models.CategoryModel, error) {
	ids = unique(ids)
	cats := []models.CategoryModel{}
	if len(ids) == 0 {
		return cats, nil
	}
	if err := s.db.WithContext(ctx).Scopes(tenant.Scope(ref)).Where("id IN ?", ids).Find(&cats).Error; err != nil {
		return nil, err
	}
	if len(cats) != len(ids) {
		return nil, apperr.Validation("category_ids", "unknown category in %v", ids)
	}
	return cats, nil
}

// Tags is Categories for tags.
func (s *Service) Tags(ctx context.Context, ref tenant.Ref, ids []uint64) ([]models.TagModel, error) {
	ids = unique(ids)
	tags := []models.TagModel{}
	if len(ids) == 0 {
		return tags, nil
	}
	if err := s.db.WithContext(ctx).Scopes(tenant.Scope(ref)).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		return nil, apperr.Validation("tag_ids", "unknown tag in %v", ids)
	}
	return tags, nil
}

func (s *Service) DeleteCategory(ctx context.Context, ref tenant.Ref, id uint64) error {
	return s.delete(ctx, ref, &models.CategoryModel{}, "post_categories", "category_id", id, ErrCategoryNotFound)
}

func (s *Service) DeleteTag(ctx context.Context, ref tenant.Ref, id uint64) error {
	return s.delete(ctx, ref, &models.TagModel{}, "post_tags", "tag_id", id, ErrTagNotFound)
}

// delete soft-deletes the row and detaches it from every post.
func (s *Service) delete(ctx context.Context, ref tenant.Ref, model interface{}, joinTable, joinColumn string, id uint64, notFound error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Scopes(tenant.Scope(ref)).Delete(model, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound
		}
		return tx.Exec("DELETE FROM "+joinTable+" WHERE "+joinColumn+" = ?", id).Error
	})
}

func unique(ids []uint64) []uint64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
