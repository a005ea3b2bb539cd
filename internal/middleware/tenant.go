package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/mx-space/publisher/internal/pkg/response"
	"github.com/mx-space/publisher/internal/pkg/tenant"
	"go.uber.org/zap"
)

const tenantKey = "tenant_id"

// TenantParam is the optional path segment naming a tenant by slug.
const TenantParam = "tenant"

// ResolveTenant binds the request to one tenant, taken from the :tenant path
// slug when present and otherwise from the Host header. Unknown tenants get 404.
func ResolveTenant(lookup *tenant.Lookup, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var (
			id  tenant.ID
			err error
		)
		if slug := c.Param(TenantParam); slug != "" {
			id, err = lookup.BySlug(ctx, slug)
		} else {
			id, err = lookup.ByDomain(ctx, c.Request.Host)
		}
		if err != nil {
			log.Error("tenant lookup failed", zap.String("host", c.Request.Host), zap.Error(err))
			response.InternalError(c, err)
			return
		}
		if id == 0 {
			response.NotFoundMsg(c, "unknown tenant")
			return
		}
		c.Set(tenantKey, id)
		c.Next()
	}
}

// CurrentTenant returns the tenant bound by ResolveTenant, or 0.
func CurrentTenant(c *gin.Context) tenant.ID {
	if v, ok := c.Get(tenantKey); ok {
		if id, ok := v.(tenant.ID); ok {
			return id
		}
	}
	return 0
}
