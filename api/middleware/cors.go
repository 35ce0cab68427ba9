package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	appcfg "github.com/andeptrai/ocr-studio/config"
)

func CORS() gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type"}

	origins := appcfg.Get().Server.AllowOrigins
	if len(origins) == 1 && origins[0] == "*" {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}

	return cors.New(config)
}
