package ranking

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/publisher/internal/middleware"
	"github.com/mx-space/publisher/internal/models"
	"github.com/mx-space/publisher/internal/pkg/pagination"
	"github.com/mx-space/publisher/internal/pkg/response"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	r := rg.Group("/rankings")
	r.GET("/latest", h.latest)
	r.GET("/popular", h.popular)
	r.GET("/trending", h.trending)
	r.GET("/pinned", h.pinned)
}

type entry struct {
	ID            uint64     `json:"id"`
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Excerpt       *string    `json:"excerpt"`
	FeaturedImage *string    `json:"featured_image"`
	PublishedAt   *time.Time `json:"published_at"`
	ViewsTotal    int64      `json:"views_total"`
	ViewsWeekly   int64      `json:"views_weekly"`
}

func toEntries(posts []models.PostModel) []entry {
	out := make([]entry, len(posts))
	for i, p := range posts {
		out[i] = entry{
			ID:            p.ID,
			Slug:          p.Slug,
			Title:         p.Title,
			Excerpt:       p.Excerpt,
			FeaturedImage: p.FeaturedImage,
			PublishedAt:   p.PublishedAt,
			ViewsTotal:    p.ViewsTotal,
			ViewsWeekly:   p.ViewsWeekly,
		}
	}
	return out
}

func (h *Handler) reply(c *gin.Context, posts []models.PostModel, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toEntries(posts))
}

// latest GET /rankings/latest?limit=
func (h *Handler) latest(c *gin.Context) {
	posts, err := h.engine.Latest(c.Request.Context(), middleware.CurrentTenant(c), pagination.LimitFromContext(c, DefaultLatestLimit))
	h.reply(c, posts, err)
}

// popular GET /rankings/popular?limit=
func (h *Handler) popular(c *gin.Context) {
	posts, err := h.engine.Popular(c.Request.Context(), middleware.CurrentTenant(c), pagination.LimitFromContext(c, DefaultPopularLimit))
	h.reply(c, posts, err)
}

// trending GET /rankings/trending?days=&limit=
func (h *Handler) trending(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "0"))
	if err != nil || days < 0 {
		response.BadRequest(c, "days must be a positive integer")
		return
	}
	posts, err := h.engine.Trending(c.Request.Context(), middleware.CurrentTenant(c), days, pagination.LimitFromContext(c, DefaultTrendingLimit))
	h.reply(c, posts, err)
}

// pinned GET /rankings/pinned?limit=
func (h *Handler) pinned(c *gin.Context) {
	posts, err := h.engine.Pinned(c.Request.Context(), middleware.CurrentTenant(c), pagination.LimitFromContext(c, DefaultLatestLimit))
	h.reply(c, posts, err)
}
