package app

import (
	"github.com/gin-gonic/gin"
	"github.com/mx-space/publisher/internal/middleware"
	"github.com/mx-space/publisher/internal/modules/content/category"
	"github.com/mx-space/publisher/internal/modules/content/post"
	"github.com/mx-space/publisher/internal/modules/stats/ranking"
	"github.com/mx-space/publisher/internal/modules/storage/asset"
	"github.com/mx-space/publisher/internal/modules/system/health"
	"github.com/mx-space/publisher/internal/pkg/response"
)

func (a *App) registerRoutes() {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	health.RegisterRoutes(r, a.deps.DB, a.sched)

	handlers := []interface{ RegisterRoutes(*gin.RouterGroup) }{
		post.NewHandler(a.posts, a.counter, a.deps.Sessions, a.logger),
		category.NewHandler(a.terms),
		ranking.NewHandler(a.ranking),
		asset.NewHandler(a.library, maxUploadBytes(a.cfg)),
	}

	resolve := middleware.ResolveTenant(a.lookup, a.logger)
	// Tenants are addressed by their domain or by slug under /t/:tenant.
	byHost := r.Group("/api", resolve)
	bySlug := r.Group("/t/:"+middleware.TenantParam+"/api", resolve)
	for _, h := range handlers {
		h.RegisterRoutes(byHost)
		h.RegisterRoutes(bySlug)
	}
}
