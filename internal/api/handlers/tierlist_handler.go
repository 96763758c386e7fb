package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"tiernow/internal/services"
)

// TierlistHandler serves the tierlist resources of the API process.
type TierlistHandler struct {
	tierlistService *services.TierlistService
}

func NewTierlistHandler(tierlistService *services.TierlistService) *TierlistHandler {
	return &TierlistHandler{tierlistService: tierlistService}
}

// CreateTierlistRequest mirrors services.CreateTierlistRequest. Both fields
// are optional: a missing uuid is generated, a missing name defaults.
type CreateTierlistRequest struct {
	UUID string `json:"uuid"`
	Name string `json:"name" binding:"max=200"`
}

// CreateTierlist handles POST /tierlist
func (h *TierlistHandler) CreateTierlist(c *gin.Context) {
	var req CreateTierlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tl, err := h.tierlistService.CreateTierlist(c.Request.Context(), req.UUID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidUUID):
			c.JSON(http.StatusBadRequest, gin.H{"error": "uuid must be a canonical lowercase UUID"})
		case errors.Is(err, services.ErrTierlistExists):
			c.JSON(http.StatusConflict, gin.H{"error": "tierlist already exists"})
		default:
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create tierlist"})
		}
		return
	}

	c.JSON(http.StatusCreated, tl)
}

// GetTierlist handles GET /tierlist/:uuid
func (h *TierlistHandler) GetTierlist(c *gin.Context) {
	tl, err := h.tierlistService.GetTierlist(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		if errors.Is(err, services.ErrTierlistNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tierlist not found"})
			return
		}
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load tierlist"})
		return
	}

	c.JSON(http.StatusOK, tl)
}

// MoveImageRequest moves an image between tiers. A null or absent tier_id
// sends the image back to the unassigned pool.
type MoveImageRequest struct {
	ID     int64  `json:"id" binding:"required"`
	TierID *int64 `json:"tier_id"`
}

// MoveImage handles POST /tierlist/:uuid/move
func (h *TierlistHandler) MoveImage(c *gin.Context) {
	var req MoveImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	img, err := h.tierlistService.MoveImage(c.Request.Context(), c.Param("uuid"), req.ID, req.TierID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrImageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		case errors.Is(err, services.ErrTierNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "tier not found"})
		case errors.Is(err, services.ErrTierMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "tier belongs to another tierlist"})
		default:
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not move image"})
		}
		return
	}

	c.JSON(http.StatusOK, img)
}
