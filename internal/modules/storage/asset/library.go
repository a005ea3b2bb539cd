package asset

import (
	"context"
	"errors"
	"fmt"

	"github.com/mx-space/publisher/internal/models"
	"github.com/mx-space/publisher/internal/pkg/apperr"
	"github.com/mx-space/publisher/internal/pkg/tenant"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrMediaNotFound = fmt.Errorf("media %w", apperr.ErrNotFound)
	ErrPostNotFound  = fmt.Errorf("post %w", apperr.ErrNotFound)
	ErrTenantNeeded  = &apperr.ValidationError{Field: "tenant", Message: "a tenant is required to store media"}
)

// Library keeps tenant-scoped media rows for objects written by the pipeline.
type Library struct {
	db       *gorm.DB
	pipeline *Pipeline
	logger   *zap.Logger
}

func NewLibrary(db *gorm.DB, pipeline *Pipeline, logger *zap.Logger) *Library {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Library{db: db, pipeline: pipeline, logger: logger.Named("MediaLibrary")}
}

// WithDB returns a Library bound to db, typically a transaction.
func (l *Library) WithDB(db *gorm.DB) *Library {
	cp := *l
	cp.db = db
	return &cp
}

func (l *Library) Pipeline() *Pipeline { return l.pipeline }

// Upload ingests up and records it for the tenant, optionally attached to a
// post of the same tenant. A failed insert removes the stored object.
func (l *Library) Upload(ctx context.Context, ref tenant.Ref, postID *uint64, up Upload) (*models.MediaModel, error) {
	tid := tenant.Resolve(ref)
	if tid == 0 {
		return nil, ErrTenantNeeded
	}
	if postID != nil {
		var n int64
		err := l.db.WithContext(ctx).Model(&models.PostModel{}).
			Scopes(tenant.Scope(tid)).
			Where("id = ?", *postID).
			Count(&n).Error
		if err != nil {
			return nil, apperr.Storage("lookup post", err)
		}
		if n == 0 {
			return nil, ErrPostNotFound
		}
	}

	stored, err := l.pipeline.IngestFile(ctx, up)
	if err != nil {
		return nil, err
	}

	media := &models.MediaModel{
		TenantID:         uint64(tid),
		PostID:           postID,
		FileName:         stored.FileName,
		Path:             stored.Path,
		BackingStorePath: l.pipeline.Store().URL(stored.Path),
		FileSize:         stored.Size,
	}
	if err := l.db.WithContext(ctx).Create(media).Error; err != nil {
		if delErr := l.pipeline.Store().Delete(context.WithoutCancel(ctx), stored.Path); delErr != nil {
			l.logger.Error("orphaned object after failed insert", zap.String("path", stored.Path), zap.Error(delErr))
		}
		return nil, apperr.Storage("insert media", err)
	}
	return media, nil
}

// List returns the tenant's media, newest first. A nil postID lists everything.
func (l *Library) List(ctx context.Context, ref tenant.Ref, postID *uint64) ([]models.MediaModel, error) {
	q := l.db.WithContext(ctx).Scopes(tenant.Scope(ref)).Order("id DESC")
	if postID != nil {
		q = q.Where("post_id = ?", *postID)
	}
	items := []models.MediaModel{}
	if err := q.Find(&items).Error; err != nil {
		return nil, apperr.Storage("list media", err)
	}
	return items, nil
}

func (l *Library) Get(ctx context.Context, ref tenant.Ref, id uint64) (*models.MediaModel, error) {
	var media models.MediaModel
	err := l.db.WithContext(ctx).Scopes(tenant.Scope(ref)).Where("id = ?", id).First(&media).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMediaNotFound
	}
	if err != nil {
		return nil, apperr.Storage("get media", err)
	}
	return &media, nil
}

// Delete removes the object, then the row.
func (l *Library) Delete(ctx context.Context, ref tenant.Ref, id uint64) error {
	media, err := l.Get(ctx, ref, id)
	if err != nil {
		return err
	}
	if err := l.pipeline.Store().Delete(ctx, media.Path); err != nil {
		return err
	}
	if err := l.db.WithContext(ctx).Scopes(tenant.Scope(ref)).Delete(&models.MediaModel{}, media.ID).Error; err != nil {
		return apperr.Storage("delete media", err)
	}
	return nil
}

// DeleteForPost removes every asset attached to a post. Rows whose object
// could not be removed are kept so a later attempt can retry them.
func (l *Library) DeleteForPost(ctx context.Context, ref tenant.Ref, postID uint64) (int, error) {
	items, err := l.List(ctx, ref, &postID)
	if err != nil {
		return 0, err
	}
	removed := make([]uint64, 0, len(items))
	for _, m := range items {
		if err := l.pipeline.Store().Delete(ctx, m.Path); err != nil {
			l.logger.Warn("delete post asset failed", zap.Uint64("media_id", m.ID), zap.String("path", m.Path), zap.Error(err))
			continue
		}
		removed = append(removed, m.ID)
	}
	if len(removed) == 0 {
		return 0, nil
	}
	if err := l.db.WithContext(ctx).Scopes(tenant.Scope(ref)).Where("id IN ?", removed).Delete(&models.MediaModel{}).Error; err != nil {
		return 0, apperr.Storage("delete post media", err)
	}
	return len(removed), nil
}
