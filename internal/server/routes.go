package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	aclHandler "github.com/wardenbot/warden/internal/server/handlers/acl"
	authHandler "github.com/wardenbot/warden/internal/server/handlers/auth"
	settingsHandler "github.com/wardenbot/warden/internal/server/handlers/settings"
	"github.com/wardenbot/warden/internal/server/middlewares"
	"github.com/wardenbot/warden/internal/version"
)

func SetupRoutes(config *Config, svc *Services) http.Handler {
	r := gin.New()

	aclH := aclHandler.New(svc.ACL)
	settingsH := settingsHandler.New(svc.Settings)
	authH := authHandler.New(svc.Auth)

	r.Use(middlewares.Logger())
	r.Use(gin.Recovery())
	r.Use(middlewares.GZIP())
	r.Use(middlewares.CORS(config.HTTP.AllowedOrigins))
	if config.HTTP.EnableHSTS {
		r.Use(middlewares.HSTS())
	}

	r.GET("/", IndexHandler)
	r.GET("/healthz", HealthHandler)
	r.GET("/version", VersionHandler)

	r.POST("/auth/token", authH.Token)
	r.POST("/auth/refresh", authH.Refresh)

	v1 := r.Group("/api/v1")
	v1.Use(middlewares.JWTAuth(svc.Auth))
	{
		v1.GET("/extensions", settingsH.ListExtensions)

		guild := v1.Group("/guilds/:guild")
		{
			// ACL rules
			guild.GET("/acl/rules", aclH.ListRules)
			guild.POST("/acl/rules", aclH.CreateRule)
			guild.PUT("/acl/rules/:id", aclH.UpdateRule)
			guild.DELETE("/acl/rules/:id", aclH.DeleteRule)
			guild.GET("/acl/export", aclH.Export)
			guild.POST("/acl/import", aclH.Import)
			guild.POST("/acl/can", aclH.Can)
			guild.POST("/acl/check", middlewares.RateLimiter(config.HTTP.CheckRateLimit), aclH.Check)

			// Guild settings
			guild.GET("/settings", settingsH.Get)
			guild.PUT("/settings", settingsH.Update)
			guild.GET("/settings/timezones", settingsH.ListTimezones)
			guild.PUT("/settings/timezones/:role", settingsH.SetTimezone)
			guild.DELETE("/settings/timezones/:role", settingsH.DeleteTimezone)
		}
	}

	return r
}

func IndexHandler(ctx *gin.Context) {
	ctx.String(http.StatusOK, version.DetailedWithApp())
}

func HealthHandler(ctx *gin.Context) {
	ctx.PureJSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Version,
	})
}

func VersionHandler(ctx *gin.Context) {
	ctx.PureJSON(http.StatusOK, gin.H{
		"app":      version.AppName,
		"version":  version.Version,
		"revision": version.Revision,
		"build":    version.BuildDate,
	})
}
