package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/publisher/internal/database/dbtest"
	"github.com/mx-space/publisher/internal/pkg/session"
	"github.com/mx-space/publisher/internal/pkg/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const browserUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"

func TestIsBotUA(t *testing.T) {
	assert.True(t, IsBotUA("Googlebot/2.1"))
	assert.True(t, IsBotUA("curl/8.0"))
	assert.True(t, IsBotUA(""))
	assert.False(t, IsBotUA(browserUA))
}

func TestResolveTenant(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := dbtest.Open(t)
	acme := dbtest.SeedTenant(t, db, "acme")

	r := gin.New()
	mw := ResolveTenant(tenant.NewLookup(db), zaptest.NewLogger(t))
	echo := func(c *gin.Context) { c.String(http.StatusOK, CurrentTenant(c).String()) }
	r.GET("/t/:tenant/ping", mw, echo)
	r.GET("/ping", mw, echo)

	cases := []struct {
		name   string
		path   string
		host   string
		status int
		body   string
	}{
		{"path slug", "/t/acme/ping", "whatever.test", http.StatusOK, acme.TenantID().String()},
		{"host domain", "/ping", "acme.example.com:8080", http.StatusOK, acme.TenantID().String()},
		{"unknown slug", "/t/nobody/ping", "acme.example.com", http.StatusNotFound, ""},
		{"unknown host", "/ping", "other.test", http.StatusNotFound, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.Host = tc.host
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, w.Body.String())
			}
		})
	}
}

func TestVisitor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := session.NewMemoryStore()
	var (
		counted bool
		sid     string
	)
	r := gin.New()
	r.Use(Visitor("", false))
	r.GET("/", func(c *gin.Context) {
		v, ok := CurrentVisit(c, store, nil)
		counted, sid = ok, v.SessionID
		c.Status(http.StatusNoContent)
	})

	t.Run("new browser gets a cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", browserUA)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.True(t, counted)
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, DefaultVisitorCookie, cookies[0].Name)
		assert.Equal(t, sid, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("returning browser keeps its id", func(t *testing.T) {
		const existing = "0190b5a4-8f3c-7c1e-9d2a-3b4c5d6e7f80"
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", browserUA)
		req.AddCookie(&http.Cookie{Name: DefaultVisitorCookie, Value: existing})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.True(t, counted)
		assert.Equal(t, existing, sid)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("forged cookie is replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", browserUA)
		req.AddCookie(&http.Cookie{Name: DefaultVisitorCookie, Value: "../../etc"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.True(t, counted)
		assert.NotEqual(t, "../../etc", sid)
	})

	t.Run("bots are not counted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", "Googlebot/2.1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.False(t, counted)
		assert.Empty(t, w.Result().Cookies())
	})
}
