package repository

import (
	"context"
	"errors"

	"tiernow/internal/domain/entities"
)

var (
	ErrTierlistNotFound = errors.New("tierlist not found")
	ErrTierlistExists   = errors.New("tierlist already exists")
	ErrTierNotFound     = errors.New("tier not found")
	ErrImageNotFound    = errors.New("image not found")
)

// TierlistRepository persists tierlists together with their tiers and image
// metadata. Implementations: memory.TierlistRepository and
// sqlite.TierlistRepository.
type TierlistRepository interface {
	// Create stores tl and one tier per entities.DefaultTierNames, filling
	// tl.Tiers with the assigned tier IDs. Returns ErrTierlistExists when the
	// UUID is taken.
	Create(ctx context.Context, tl *entities.Tierlist) error
	// GetByUUID returns the tierlist and its tiers ordered by Order. Images
	// are not attached.
	GetByUUID(ctx context.Context, uuid string) (*entities.Tierlist, error)
	GetTier(ctx context.Context, id int64) (*entities.Tier, error)

	// CreateImage assigns img.ID and stores it.
	CreateImage(ctx context.Context, img *entities.Image) error
	GetImage(ctx context.Context, id int64) (*entities.Image, error)
	ListImages(ctx context.Context, tierlistUUID string) ([]*entities.Image, error)
	SetImageTier(ctx context.Context, imageID int64, tierID *int64) (*entities.Image, error)
}
