package asset

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/publisher/internal/middleware"
	"github.com/mx-space/publisher/internal/models"
	"github.com/mx-space/publisher/internal/pkg/apperr"
	"github.com/mx-space/publisher/internal/pkg/response"
)

// multipartOverhead is allowed on top of the file limit for form fields and boundaries.
const multipartOverhead = 1 << 20

type Handler struct {
	library  *Library
	maxBytes int64
}

// NewHandler mounts the media library. maxBytes caps the request body; zero disables the cap.
func NewHandler(library *Library, maxBytes int64) *Handler {
	return &Handler{library: library, maxBytes: maxBytes}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	media := rg.Group("/media")
	media.GET("", h.list)
	media.POST("", h.upload)
	media.GET("/:id/url", h.temporaryURL)
	media.DELETE("/:id", h.delete)
}

type mediaResponse struct {
	ID       uint64    `json:"id"`
	PostID   *uint64   `json:"post_id"`
	FileName string    `json:"file_name"`
	Path     string    `json:"path"`
	URL      string    `json:"url"`
	Size     int64     `json:"size"`
	SizeText string    `json:"size_text"`
	Created  time.Time `json:"created"`
}

func toMediaResponse(m *models.MediaModel) mediaResponse {
	return mediaResponse{
		ID:       m.ID,
		PostID:   m.PostID,
		FileName: m.FileName,
		Path:     m.Path,
		URL:      m.BackingStorePath,
		Size:     m.FileSize,
		SizeText: FormatBytes(m.FileSize, 2),
		Created:  m.CreatedAt,
	}
}

func optionalID(raw string) (*uint64, bool) {
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, false
	}
	return &id, true
}

// list GET /media?post_id=
func (h *Handler) list(c *gin.Context) {
	postID, ok := optionalID(c.Query("post_id"))
	if !ok {
		response.BadRequest(c, "invalid post_id")
		return
	}
	items, err := h.library.List(c.Request.Context(), middleware.CurrentTenant(c), postID)
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]mediaResponse, len(items))
	for i := range items {
		out[i] = toMediaResponse(&items[i])
	}
	response.OK(c, out)
}

// upload POST /media (multipart: file, folder, name, post_id)
func (h *Handler) upload(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)
	}
	postID, ok := optionalID(c.PostForm("post_id"))
	if !ok {
		response.BadRequest(c, "invalid post_id")
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.Invalid(c, &apperr.ValidationError{Field: "file", Message: "file is required", Allowed: AllowedExtensions()})
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	media, err := h.library.Upload(c.Request.Context(), middleware.CurrentTenant(c), postID, Upload{
		Data:         data,
		DeclaredName: fh.Filename,
		MimeType:     fh.Header.Get("Content-Type"),
		Folder:       c.PostForm("folder"),
		Name:         c.PostForm("name"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toMediaResponse(media))
}

// temporaryURL GET /media/:id/url?ttl=seconds
func (h *Handler) temporaryURL(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid id")
		return
	}
	ttl, err := strconv.Atoi(c.DefaultQuery("ttl", "300"))
	if err != nil || ttl <= 0 {
		response.BadRequest(c, "invalid ttl")
		return
	}
	media, err := h.library.Get(c.Request.Context(), middleware.CurrentTenant(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	u, ok := h.library.Pipeline().TemporaryURL(c.Request.Context(), media.Path, time.Duration(ttl)*time.Second)
	if !ok {
		response.OK(c, gin.H{"url": media.BackingStorePath, "temporary": false})
		return
	}
	response.OK(c, gin.H{"url": u, "temporary": true})
}

// delete DELETE /media/:id
func (h *Handler) delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid id")
		return
	}
	if err := h.library.Delete(c.Request.Context(), middleware.CurrentTenant(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
