// Package router assembles the gin engine from the application modules.
package router

import (
	"context"
	"net/http"
	"time"

	apphttp "fieldservice_backend/internal/http"
	"fieldservice_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const healthTimeout = 2 * time.Second

// New builds the engine: shared middleware, the health endpoint and every
// module's routes under /api/v1.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(app.Config)))
	if app.Logger != nil {
		engine.Use(httpkit.RequestLogger(app.Logger))
	}
	if app.Config != nil && app.Config.GetRateLimitRPS() > 0 {
		limiter := httpkit.NewIPRateLimiter(rate.Limit(app.Config.GetRateLimitRPS()), max(app.Config.GetRateLimitBurst(), 1), app.Logger)
		engine.Use(limiter.RateLimit())
	}

	engine.GET("/api/health", health(app.Health))

	v1 := engine.Group("/api/v1")
	ctx := &apphttp.RouterContext{
		Engine: engine,
		V1:     v1,
		Admin:  v1.Group("/admin"),
	}
	for _, m := range app.Modules {
		m.RegisterRoutes(ctx)
		if app.Logger != nil {
			app.Logger.Debug("module routes registered", "module", m.Name())
		}
	}

	return engine
}

func corsConfig(cfg apphttp.RouterConfig) cors.Config {
	c := cors.DefaultConfig()
	if cfg == nil || cfg.GetCORSAllowAll() {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.GetCORSOrigins()
		c.AllowCredentials = cfg.GetCORSAllowCreds()
	}
	c.AddAllowHeaders(httpkit.HeaderRequestID)
	c.AddExposeHeaders(httpkit.HeaderRequestID, "Content-Disposition")
	return c
}

func health(checker apphttp.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			if err := checker.Ping(ctx); err != nil {
				httpkit.Error(c, http.StatusServiceUnavailable, "record store unavailable", nil)
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
