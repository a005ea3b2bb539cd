package category

import (
	"github.com/gin-gonic/gin"
	"github.com/mx-space/publisher/internal/middleware"
	"github.com/mx-space/publisher/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	cats := rg.Group("/categories")
	cats.GET("", h.listCategories)
	cats.POST("", h.createCategory)

	tags := rg.Group("/tags")
	tags.GET("", h.listTags)
	tags.POST("", h.createTag)
}

func (h *Handler) listCategories(c *gin.Context) {
	cats, err := h.svc.ListCategories(c.Request.Context(), middleware.CurrentTenant(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cats)
}

func (h *Handler) createCategory(c *gin.Context) {
	var dto CreateCategoryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cat, err := h.svc.CreateCategory(c.Request.Context(), middleware.CurrentTenant(c), &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cat)
}

func (h *Handler) listTags(c *gin.Context) {
	tags, err := h.svc.ListTags(c.Request.Context(), middleware.CurrentTenant(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tags)
}

func (h *Handler) createTag(c *gin.Context) {
	var dto CreateTagDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	tag, err := h.svc.CreateTag(c.Request.Context(), middleware.CurrentTenant(c), &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tag)
}
