package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mx-space/publisher/internal/modules/stats/views"
	"github.com/mx-space/publisher/internal/pkg/session"
)

const (
	DefaultVisitorCookie = "pub_sid"
	visitorKey           = "visitor_id"
	visitorMaxAge        = 365 * 24 * 60 * 60
)

var botKeywords = []string{"bot", "crawler", "spider", "headless", "wget", "curl", "python-requests", "go-http", "java/", "scrapy"}

// IsBotUA returns true if the User-Agent string indicates a bot/crawler.
func IsBotUA(ua string) bool {
	if strings.TrimSpace(ua) == "" {
		return true
	}
	lower := strings.ToLower(ua)
	for _, kw := range botKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Visitor issues a long-lived visitor cookie and remembers its id for
// CurrentVisit. Bots get no cookie.
func Visitor(cookie string, secure bool) gin.HandlerFunc {
	if cookie == "" {
		cookie = DefaultVisitorCookie
	}
	return func(c *gin.Context) {
		if IsBotUA(c.Request.UserAgent()) {
			c.Next()
			return
		}
		sid, err := c.Cookie(cookie)
		if _, parseErr := uuid.Parse(sid); err != nil || parseErr != nil {
			sid = uuid.NewString()
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     cookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   visitorMaxAge,
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Set(visitorKey, sid)
		c.Next()
	}
}

// CurrentVisit describes the request for the view counter. ok is false for
// bots and requests without a visitor session, which are not counted.
func CurrentVisit(c *gin.Context, store session.Store, now func() time.Time) (views.Visit, bool) {
	sid := c.GetString(visitorKey)
	if sid == "" || store == nil {
		return views.Visit{}, false
	}
	return views.Visit{
		SessionID: sid,
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referer:   c.Request.Referer(),
		Now:       now,
		Markers:   store.For(sid),
	}, true
}
