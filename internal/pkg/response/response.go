package response

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/publisher/internal/pkg/apperr"
)

// Pagination metadata returned with paginated responses.
type Pagination struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	TotalPage   int   `json:"total_page"`
	Size        int   `json:"size"`
	HasNextPage bool  `json:"has_next_page"`
}

// pagedResponse is the envelope for paginated list responses.
type pagedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// OK sends a 200 response. Arrays/slices are wrapped in {data: [...]}.
func OK(c *gin.Context, data interface{}) {
	if data != nil {
		v := reflect.ValueOf(data)
		if v.Kind() == reflect.Slice {
			c.JSON(http.StatusOK, gin.H{"data": data})
			return
		}
	}
	c.JSON(http.StatusOK, data)
}

// Paged sends a paginated response.
func Paged(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, pagedResponse{
		Data:       data,
		Pagination: pagination,
	})
}

// Created sends a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": 0, "code": status, "message": message})
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, message)
}

// Invalid sends a 400 naming the offending field and, for uploads, the accepted types.
func Invalid(c *gin.Context, ve *apperr.ValidationError) {
	body := gin.H{"ok": 0, "code": http.StatusBadRequest, "message": ve.Error(), "field": ve.Field}
	if len(ve.Allowed) > 0 {
		body["allowed"] = ve.Allowed
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context) {
	abort(c, http.StatusNotFound, "Not Found")
}

// NotFoundMsg sends a 404 error with a custom message.
func NotFoundMsg(c *gin.Context, message string) {
	abort(c, http.StatusNotFound, message)
}

// MethodNotAllowed sends a 405 error response.
func MethodNotAllowed(c *gin.Context) {
	abort(c, http.StatusMethodNotAllowed, "Method Not Allowed")
}

// InternalError sends a 500 error response.
func InternalError(c *gin.Context, err error) {
	abort(c, http.StatusInternalServerError, err.Error())
}

// Conflict sends a 409 error response.
func Conflict(c *gin.Context, message string) {
	abort(c, http.StatusConflict, message)
}

// Error maps the error taxonomy onto a status: validation 400, not found 404,
// exhausted slugs 409, everything else 500. Storage failures hide their cause.
func Error(c *gin.Context, err error) {
	if ve, ok := apperr.AsValidation(err); ok {
		Invalid(c, ve)
		return
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		NotFoundMsg(c, err.Error())
	case errors.Is(err, apperr.ErrSlugExhausted):
		Conflict(c, err.Error())
	case errors.Is(err, apperr.ErrStorage):
		_ = c.Error(err)
		InternalError(c, apperr.ErrStorage)
	default:
		InternalError(c, err)
	}
}
