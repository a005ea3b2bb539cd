package post

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mx-space/publisher/internal/models"
	"github.com/mx-space/publisher/internal/modules/content/category"
	"github.com/mx-space/publisher/internal/modules/storage/asset"
	"github.com/mx-space/publisher/internal/pkg/apperr"
	"github.com/mx-space/publisher/internal/pkg/pagination"
	"github.com/mx-space/publisher/internal/pkg/response"
	"github.com/mx-space/publisher/internal/pkg/slug"
	"github.com/mx-space/publisher/internal/pkg/tenant"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const entity = "posts"

var editableColumns = []string{
	"title", "slug", "excerpt", "content", "status", "published_at", "scheduled_at",
	"meta_title", "meta_description", "featured_image", "is_pinned",
}

var ErrPostNotFound = fmt.Errorf("post %w", apperr.ErrNotFound)

// Service writes and reads tenant-owned posts.
type Service struct {
	db       *gorm.DB
	slugs    *slug.Generator
	taxonomy *category.Service
	library  *asset.Library
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLibrary cascades asset removal on post deletion.
func WithLibrary(l *asset.Library) Option {
	return func(s *Service) { s.library = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the post writer. slugs decides the collision strategy,
// normally a random suffix.
func NewService(db *gorm.DB, slugs *slug.Generator, taxonomy *category.Service, opts ...Option) *Service {
	s := &Service{db: db, slugs: slugs, taxonomy: taxonomy, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("PostService")
	return s
}

// Create validates the requested status, reserves a slug and stores the post
// with its categories and tags.
func (s *Service) Create(ctx context.Context, ref tenant.Ref, dto *CreatePostDTO) (*models.PostModel, error) {
	tid := tenant.Resolve(ref)
	if tid == 0 {
		return nil, apperr.Validation("tenant", "a tenant is required")
	}
	if strings.TrimSpace(dto.Title) == "" {
		return nil, apperr.Validation("title", "title is required")
	}
	now := s.now()

	post := &models.PostModel{
		AuthorID:        dto.AuthorID,
		Title:           strings.TrimSpace(dto.Title),
		Excerpt:         dto.Excerpt,
		Content:         dto.Content,
		Status:          dto.Status,
		PublishedAt:     dto.PublishedAt,
		ScheduledAt:     dto.ScheduledAt,
		MetaTitle:       dto.MetaTitle,
		MetaDescription: dto.MetaDescription,
		FeaturedImage:   dto.FeaturedImage,
		IsPinned:        dto.IsPinned,
	}
	tenant.Assign(tid, &post.TenantID)
	if post.Status == "" {
		post.Status = models.PostDraft
	}
	if post.Status == models.PostPublished && post.PublishedAt == nil {
		post.PublishedAt = &now
	}
	if err := checkStatus(post, now); err != nil {
		return nil, err
	}

	var err error
	if post.Categories, err = s.taxonomy.Categories(ctx, tid, dto.CategoryIDs); err != nil {
		return nil, err
	}
	if post.Tags, err = s.taxonomy.Tags(ctx, tid, dto.TagIDs); err != nil {
		return nil, err
	}

	source := dto.Slug
	if strings.TrimSpace(source) == "" {
		source = post.Title
	}
	_, err = s.slugs.Insert(ctx, source, slug.Scope{Tenant: tid, Entity: entity}, func(sl string) error {
		post.ID = 0
		post.Slug = sl
		return s.db.WithContext(ctx).Create(post).Error
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("post created", zap.Uint64("tenant_id", post.TenantID), zap.Uint64("id", post.ID), zap.String("slug", post.Slug))
	return post, nil
}

// Update applies dto. A title change regenerates the slug when the generator
// is configured to follow updates.
func (s *Service) Update(ctx context.Context, ref tenant.Ref, id uint64, dto *UpdatePostDTO) (*models.PostModel, error) {
	post, err := s.GetByID(ctx, ref, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	oldTitle := post.Title

	if dto.Title != nil {
		if strings.TrimSpace(*dto.Title) == "" {
			return nil, apperr.Validation("title", "title is required")
		}
		post.Title = strings.TrimSpace(*dto.Title)
	}
	if dto.Content != nil {
		post.Content = *dto.Content
	}
	if dto.Excerpt != nil {
		post.Excerpt = dto.Excerpt
	}
	if dto.MetaTitle != nil {
		post.MetaTitle = dto.MetaTitle
	}
	if dto.MetaDescription != nil {
		post.MetaDescription = dto.MetaDescription
	}
	if dto.FeaturedImage != nil {
		post.FeaturedImage = dto.FeaturedImage
	}
	if dto.IsPinned != nil {
		post.IsPinned = *dto.IsPinned
	}
	if dto.ScheduledAt != nil {
		post.ScheduledAt = dto.ScheduledAt
	}
	if dto.PublishedAt != nil {
		post.PublishedAt = dto.PublishedAt
	}
	if dto.Status != nil {
		if err := transition(post, *dto.Status, now); err != nil {
			return nil, err
		}
	} else if dto.ScheduledAt != nil || dto.PublishedAt != nil {
		if err := checkStatus(post, now); err != nil {
			return nil, err
		}
	}

	var cats []models.CategoryModel
	var tags []models.TagModel
	if dto.CategoryIDs != nil {
		if cats, err = s.taxonomy.Categories(ctx, ref, dto.CategoryIDs); err != nil {
			return nil, err
		}
	}
	if dto.TagIDs != nil {
		if tags, err = s.taxonomy.Tags(ctx, ref, dto.TagIDs); err != nil {
			return nil, err
		}
	}

	// Counters are owned by the view counter and never written back from here.
	save := func(tx *gorm.DB) error {
		return tx.WithContext(ctx).Model(post).Scopes(tenant.Scope(ref)).Select(editableColumns).Updates(post).Error
	}
	if s.slugs.ShouldRegenerate(oldTitle, post.Title) {
		scope := slug.Scope{Tenant: tenant.Resolve(ref), Entity: entity, ExcludeID: post.ID}
		_, err = s.slugs.Insert(ctx, post.Title, scope, func(sl string) error {
			post.Slug = sl
			return save(s.db)
		})
	} else {
		err = save(s.db)
	}
	if err != nil {
		return nil, err
	}

	if dto.CategoryIDs != nil || dto.TagIDs != nil {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if dto.CategoryIDs != nil {
				if err := replace(tx.Model(post).Association("Categories"), cats); err != nil {
					return err
				}
			}
			if dto.TagIDs != nil {
				return replace(tx.Model(post).Association("Tags"), tags)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("replace post taxonomy: %w", err)
		}
	}
	return s.GetByID(ctx, ref, post.ID)
}

// Publish moves a draft or scheduled post to published now.
func (s *Service) Publish(ctx context.Context, ref tenant.Ref, id uint64) (*models.PostModel, error) {
	status := models.PostPublished
	return s.Update(ctx, ref, id, &UpdatePostDTO{Status: &status})
}

// Schedule queues a draft for publication at at, which must be in the future.
func (s *Service) Schedule(ctx context.Context, ref tenant.Ref, id uint64, at time.Time) (*models.PostModel, error) {
	status := models.PostScheduled
	return s.Update(ctx, ref, id, &UpdatePostDTO{Status: &status, ScheduledAt: &at})
}

// PromoteDue publishes every scheduled post of the tenant whose time has
// come. published_at takes the scheduled time.
func (s *Service) PromoteDue(ctx context.Context, ref tenant.Ref, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.PostModel{}).
		Scopes(tenant.Scope(ref)).
		Where("status = ? AND scheduled_at <= ?", models.PostScheduled, now).
		Updates(map[string]interface{}{
			"status":       models.PostPublished,
			"published_at": gorm.Expr("scheduled_at"),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("promote scheduled posts: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.logger.Info("scheduled posts published", zap.Uint64("tenant_id", uint64(tenant.Resolve(ref))), zap.Int64("count", res.RowsAffected))
	}
	return res.RowsAffected, nil
}

// ListPublished pages through the tenant's visible posts, newest first.
func (s *Service) ListPublished(ctx context.Context, ref tenant.Ref, q pagination.Query) ([]models.PostModel, response.Pagination, error) {
	tx := s.db.WithContext(ctx).Model(&models.PostModel{}).
		Scopes(tenant.Scope(ref)).
		Where("status = ? AND published_at <= ?", models.PostPublished, s.now()).
		Order("published_at DESC, id DESC")
	posts := []models.PostModel{}
	pag, err := pagination.Paginate(tx, q, &posts)
	return posts, pag, err
}

func (s *Service) GetByID(ctx context.Context, ref tenant.Ref, id uint64) (*models.PostModel, error) {
	return s.first(ctx, ref, "id = ?", id)
}

// GetBySlug returns the post with the slug in any status.
func (s *Service) GetBySlug(ctx context.Context, ref tenant.Ref, sl string) (*models.PostModel, error) {
	return s.first(ctx, ref, "slug = ?", sl)
}

// GetPublishedBySlug hides drafts, scheduled posts and future publication dates.
func (s *Service) GetPublishedBySlug(ctx context.Context, ref tenant.Ref, sl string) (*models.PostModel, error) {
	post, err := s.GetBySlug(ctx, ref, sl)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostPublished || post.PublishedAt == nil || post.PublishedAt.After(s.now()) {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *Service) first(ctx context.Context, ref tenant.Ref, query string, arg interface{}) (*models.PostModel, error) {
	var post models.PostModel
	err := s.db.WithContext(ctx).
		Scopes(tenant.Scope(ref)).
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("categories.name ASC") }).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name ASC") }).
		Where(query, arg).
		First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Delete removes the post's assets, then soft-deletes the post. The slug
// stays reserved.
func (s *Service) Delete(ctx context.Context, ref tenant.Ref, id uint64) error {
	post, err := s.GetByID(ctx, ref, id)
	if err != nil {
		return err
	}
	if s.library != nil {
		removed, err := s.library.DeleteForPost(ctx, ref, post.ID)
		if err != nil {
			return err
		}
		s.logger.Debug("post assets removed", zap.Uint64("id", post.ID), zap.Int("count", removed))
	}
	res := s.db.WithContext(ctx).Scopes(tenant.Scope(ref)).Delete(&models.PostModel{}, post.ID)
	if res.Error != nil {
		return fmt.Errorf("delete post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func replace[T any](assoc *gorm.Association, values []T) error {
	if len(values) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(values)
}

func transition(post *models.PostModel, next models.PostStatus, now time.Time) error {
	if !next.Valid() {
		return statusError(models.ErrInvalidStatus, string(next))
	}
	if !post.Status.CanTransition(next) {
		return statusError(models.ErrInvalidTransition, fmt.Sprintf("%s to %s", post.Status, next))
	}
	if next == models.PostPublished && post.Status != models.PostPublished && post.PublishedAt == nil {
		post.PublishedAt = &now
	}
	post.Status = next
	return checkStatus(post, now)
}

func checkStatus(post *models.PostModel, now time.Time) error {
	if !post.Status.Valid() {
		return statusError(models.ErrInvalidStatus, string(post.Status))
	}
	if err := post.CheckTimestamps(now); err != nil {
		return statusError(err, string(post.Status))
	}
	return nil
}

// StatusError carries a state machine sentinel as a validation failure.
type StatusError struct {
	*apperr.ValidationError
	cause error
}

func (e *StatusError) Unwrap() []error { return []error{e.ValidationError, e.cause} }

func statusError(cause error, detail string) error {
	return &StatusError{
		ValidationError: apperr.Validation("status", "%v: %s", cause, detail),
		cause:           cause,
	}
}
