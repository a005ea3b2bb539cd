// Package health reports database reachability and background job state.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/publisher/internal/pkg/cron"
	"gorm.io/gorm"
)

const pingTimeout = 2 * time.Second

func RegisterRoutes(rg gin.IRoutes, db *gorm.DB, sched *cron.Scheduler) {
	rg.GET("/healthz", func(c *gin.Context) {
		dbOK := ping(c.Request.Context(), db)

		status := "ok"
		code := http.StatusOK
		if !dbOK {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		body := gin.H{
			"status":   status,
			"database": dbOK,
		}
		if sched != nil {
			body["jobs"] = sched.States()
		}
		c.JSON(code, body)
	})
}

func ping(ctx context.Context, db *gorm.DB) bool {
	sqlDB, err := db.DB()
	if err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx) == nil
}
