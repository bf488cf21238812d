package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	r.GET("/healthz", h.HandleHealth)

	api := r.Group("/api")
	{
		api.GET("/posts", h.HandleListPosts)
		api.POST("/posts", h.HandleCreatePost)
		api.GET("/posts/:id", h.HandleGetPost)
		api.PATCH("/posts/:id", h.HandleUpdatePost)
		api.DELETE("/posts/:id", h.HandleDeletePost)
		api.GET("/queue", h.HandleQueue)

		generate := api.Group("/generate", h.rateLimit())
		generate.POST("/text", h.HandleGenerateText)
		generate.POST("/image", h.HandleGenerateImage)
	}

	return r
}

func (h *Handler) HandleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *Handler) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.Limiter != nil && !h.Limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error:   codeRateLimited,
				Message: "too many generation requests, try again later",
			})
			return
		}
		c.Next()
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		h.Logger.Debug("Request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(started).String(),
			"clientIP", c.ClientIP())
	}
}
