package post

import (
	"time"

	"github.com/mx-space/publisher/internal/models"
)

// CreatePostDTO is the request body for creating a post.
type CreatePostDTO struct {
	Title           string            `json:"title" binding:"required"`
	Slug            string            `json:"slug"`
	Content         string            `json:"content"`
	Excerpt         *string           `json:"excerpt"`
	Status          models.PostStatus `json:"status"`
	PublishedAt     *time.Time        `json:"published_at"`
	ScheduledAt     *time.Time        `json:"scheduled_at"`
	MetaTitle       *string           `json:"meta_title"`
	MetaDescription *string           `json:"meta_description"`
	FeaturedImage   *string           `json:"featured_image"`
	AuthorID        *uint64           `json:"author_id"`
	IsPinned        bool              `json:"is_pinned"`
	CategoryIDs     []uint64          `json:"category_ids"`
	TagIDs          []uint64          `json:"tag_ids"`
}

// UpdatePostDTO is the request body for updating a post (all fields optional).
// Nil slices leave associations untouched; empty slices clear them.
type UpdatePostDTO struct {
	Title           *string            `json:"title"`
	Content         *string            `json:"content"`
	Excerpt         *string            `json:"excerpt"`
	Status          *models.PostStatus `json:"status"`
	PublishedAt     *time.Time         `json:"published_at"`
	ScheduledAt     *time.Time         `json:"scheduled_at"`
	MetaTitle       *string            `json:"meta_title"`
	MetaDescription *string            `json:"meta_description"`
	FeaturedImage   *string            `json:"featured_image"`
	IsPinned        *bool              `json:"is_pinned"`
	CategoryIDs     []uint64           `json:"category_ids"`
	TagIDs          []uint64           `json:"tag_ids"`
}

// postResponse is the API response shape for a post.
type postResponse struct {
	ID              uint64                 `json:"id"`
	Slug            string                 `json:"slug"`
	Title           string                 `json:"title"`
	Excerpt         *string                `json:"excerpt"`
	Content         string                 `json:"content,omitempty"`
	Status          models.PostStatus      `json:"status"`
	PublishedAt     *time.Time             `json:"published_at"`
	MetaTitle       *string                `json:"meta_title"`
	MetaDescription *string                `json:"meta_description"`
	FeaturedImage   *string                `json:"featured_image"`
	ViewsTotal      int64                  `json:"views_total"`
	ViewsWeekly     int64                  `json:"views_weekly"`
	IsPinned        bool                   `json:"is_pinned"`
	Categories      []models.CategoryModel `json:"categories"`
	Tags            []models.TagModel      `json:"tags"`
	Created         time.Time              `json:"created"`
	Modified        *time.Time             `json:"modified"`
}

func toResponse(p *models.PostModel, withContent bool) postResponse {
	cats := p.Categories
	if cats == nil {
		cats = []models.CategoryModel{}
	}
	tags := p.Tags
	if tags == nil {
		tags = []models.TagModel{}
	}
	var modified *time.Time
	if !p.UpdatedAt.IsZero() {
		modifiedAt := p.UpdatedAt
		modified = &modifiedAt
	}
	resp := postResponse{
		ID:              p.ID,
		Slug:            p.Slug,
		Title:           p.Title,
		Excerpt:         p.Excerpt,
		Status:          p.Status,
		PublishedAt:     p.PublishedAt,
		MetaTitle:       p.MetaTitle,
		MetaDescription: p.MetaDescription,
		FeaturedImage:   p.FeaturedImage,
		ViewsTotal:      p.ViewsTotal,
		ViewsWeekly:     p.ViewsWeekly,
		IsPinned:        p.IsPinned,
		Categories:      cats,
		Tags:            tags,
		Created:         p.CreatedAt,
		Modified:        modified,
	}
	if withContent {
		resp.Content = p.Content
	}
	return resp
}

func toResponses(posts []models.PostModel) []postResponse {
	items := make([]postResponse, len(posts))
	for i := range posts {
		items[i] = toResponse(&posts[i], false)
	}
	return items
}
