package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"tiernow/internal/api/handlers"
	"tiernow/internal/api/middleware"
)

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// WebRouter wires the public web process: the site root mints a tierlist.
type WebRouter struct {
	redirectHandler *handlers.RedirectHandler
	rateLimiter     *middleware.RateLimiter // nil disables throttling
}

func NewWebRouter(redirectHandler *handlers.RedirectHandler, rateLimiter *middleware.RateLimiter) *WebRouter {
	return &WebRouter{
		redirectHandler: redirectHandler,
		rateLimiter:     rateLimiter,
	}
}

func (r *WebRouter) Setup(engine *gin.Engine) {
	engine.GET("/health", health)

	chain := []gin.HandlerFunc{middleware.NoStore()}
	if r.rateLimiter != nil {
		chain = append(chain, middleware.RateLimit(r.rateLimiter))
	}
	chain = append(chain, r.redirectHandler.NewTierlist)
	engine.GET("/", chain...)
}

// APIRouter wires the tierlist API process.
type APIRouter struct {
	tierlistHandler *handlers.TierlistHandler
	imageHandler    *handlers.ImageHandler
}

func NewAPIRouter(tierlistHandler *handlers.TierlistHandler, imageHandler *handlers.ImageHandler) *APIRouter {
	return &APIRouter{
		tierlistHandler: tierlistHandler,
		imageHandler:    imageHandler,
	}
}

func (r *APIRouter) Setup(engine *gin.Engine) {
	engine.GET("/health", health)

	engine.GET("/images/:key", r.imageHandler.GetImage)

	tierlists := engine.Group("/tierlist")
	{
		tierlists.POST("", r.tierlistHandler.CreateTierlist)
		tierlists.GET("/:uuid", r.tierlistHandler.GetTierlist)
		tierlists.POST("/:uuid/upload", r.imageHandler.UploadImage)
		tierlists.POST("/:uuid/move", r.tierlistHandler.MoveImage)
	}
}
