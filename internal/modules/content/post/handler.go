package post

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/publisher/internal/middleware"
	"github.com/mx-space/publisher/internal/modules/stats/views"
	"github.com/mx-space/publisher/internal/pkg/pagination"
	"github.com/mx-space/publisher/internal/pkg/response"
	"github.com/mx-space/publisher/internal/pkg/session"
	"go.uber.org/zap"
)

// Handler handles post HTTP requests.
type Handler struct {
	svc      *Service
	counter  *views.Counter
	sessions session.Store
	logger   *zap.Logger
}

func NewHandler(svc *Service, counter *views.Counter, sessions session.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, counter: counter, sessions: sessions, logger: logger.Named("PostHandler")}
}

// RegisterRoutes mounts post routes onto a tenant-bound router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	posts := rg.Group("/posts")
	posts.GET("", h.list)
	posts.GET("/:slug", h.read)
	posts.POST("", h.create)
	posts.PUT("/:id", h.update)
	posts.PATCH("/:id", h.update)
	posts.POST("/:id/publish", h.publish)
	posts.POST("/:id/schedule", h.schedule)
	posts.DELETE("/:id", h.delete)
}

func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

// list GET /posts
func (h *Handler) list(c *gin.Context) {
	posts, pag, err := h.svc.ListPublished(c.Request.Context(), middleware.CurrentTenant(c), pagination.FromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, toResponses(posts), pag)
}

// read GET /posts/:slug
// Counting failures never fail the read.
func (h *Handler) read(c *gin.Context) {
	ref := middleware.CurrentTenant(c)
	post, err := h.svc.GetPublishedBySlug(c.Request.Context(), ref, c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}

	if visit, ok := middleware.CurrentVisit(c, h.sessions, nil); ok && h.counter != nil {
		if err := h.counter.Record(c.Request.Context(), post, visit); err != nil && !errors.Is(err, views.ErrPostNotFound) {
			h.logger.Warn("record view failed", zap.Uint64("post_id", post.ID), zap.Error(err))
		}
	}
	response.OK(c, toResponse(post, true))
}

// create POST /posts
func (h *Handler) create(c *gin.Context) {
	var dto CreatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	post, err := h.svc.Create(c.Request.Context(), middleware.CurrentTenant(c), &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toResponse(post, true))
}

// update PUT /posts/:id
func (h *Handler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var dto UpdatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	post, err := h.svc.Update(c.Request.Context(), middleware.CurrentTenant(c), id, &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toResponse(post, true))
}

// publish POST /posts/:id/publish
func (h *Handler) publish(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	post, err := h.svc.Publish(c.Request.Context(), middleware.CurrentTenant(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toResponse(post, false))
}

type scheduleDTO struct {
	At time.Time `json:"at" binding:"required"`
}

// schedule POST /posts/:id/schedule
func (h *Handler) schedule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var dto scheduleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	post, err := h.svc.Schedule(c.Request.Context(), middleware.CurrentTenant(c), id, dto.At)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toResponse(post, false))
}

// delete DELETE /posts/:id
func (h *Handler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentTenant(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
