package middlewares

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the admin console (a separate origin in development) to call
// the API with its bearer token.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "Content-Length"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}

	if len(allowedOrigins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = allowedOrigins
	}

	return cors.New(config)
}
