package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"tiernow/internal/services"
)

// RedirectHandler serves the web site root. Visiting it creates a tierlist
// and sends the browser to its page.
type RedirectHandler struct {
	redirectService *services.RedirectService
}

func NewRedirectHandler(redirectService *services.RedirectService) *RedirectHandler {
	return &RedirectHandler{redirectService: redirectService}
}

// NewTierlist handles GET /
//
// Go Learning Note — 307 vs 302/301:
// 307 Temporary Redirect tells the browser to repeat the same method at the
// new Location and not to remember the mapping. 301/308 are permanent and
// would be cached, so a second visit to "/" would skip the server and land on
// the first visitor's tierlist.
func (h *RedirectHandler) NewTierlist(c *gin.Context) {
	result, err := h.redirectService.NewTierlist(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not create a new tierlist, please try again"})
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, result.Location)
}
