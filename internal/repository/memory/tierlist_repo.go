package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tiernow/internal/domain/entities"
	"tiernow/internal/repository"
)

// TierlistRepository stores tierlists, tiers and image metadata in maps.
// IDs for tiers and images come from per-repository counters, mirroring an
// autoincrement column.
//
// Stored values are copied on the way in and out so a caller mutating a
// returned *Tierlist cannot corrupt the repository behind the lock.
type TierlistRepository struct {
	mu        sync.RWMutex
	tierlists map[string]*entities.Tierlist
	tiers     map[int64]*entities.Tier
	images    map[int64]*entities.Image
	nextTier  int64
	nextImage int64
}

func NewTierlistRepository() *TierlistRepository {
	return &TierlistRepository{
		tierlists: make(map[string]*entities.Tierlist),
		tiers:     make(map[int64]*entities.Tier),
		images:    make(map[int64]*entities.Image),
	}
}

var _ repository.TierlistRepository = (*TierlistRepository)(nil)

func (r *TierlistRepository) Create(ctx context.Context, tl *entities.Tierlist) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tierlists[tl.UUID]; exists {
		return repository.ErrTierlistExists
	}

	tl.Tiers = make([]*entities.Tier, 0, len(entities.DefaultTierNames))
	for i, name := range entities.DefaultTierNames {
		r.nextTier++
		tier := &entities.Tier{
			ID:           r.nextTier,
			TierlistUUID: tl.UUID,
			Name:         name,
			Order:        int64(i),
		}
		r.tiers[tier.ID] = tier
		tl.Tiers = append(tl.Tiers, copyTier(tier))
	}

	stored := *tl
	stored.Tiers = nil
	stored.Unassigned = nil
	r.tierlists[tl.UUID] = &stored
	return nil
}

func (r *TierlistRepository) GetByUUID(ctx context.Context, uuid string) (*entities.Tierlist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.tierlists[uuid]
	if !exists {
		return nil, repository.ErrTierlistNotFound
	}

	tl := *stored
	tl.Tiers = []*entities.Tier{}
	for _, tier := range r.tiers {
		if tier.TierlistUUID == uuid {
			tl.Tiers = append(tl.Tiers, copyTier(tier))
		}
	}
	sort.Slice(tl.Tiers, func(i, j int) bool { return tl.Tiers[i].Order < tl.Tiers[j].Order })
	return &tl, nil
}

func (r *TierlistRepository) GetTier(ctx context.Context, id int64) (*entities.Tier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tier, exists := r.tiers[id]
	if !exists {
		return nil, repository.ErrTierNotFound
	}
	return copyTier(tier), nil
}

func (r *TierlistRepository) CreateImage(ctx context.Context, img *entities.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tierlists[img.TierlistUUID]; !exists {
		return repository.ErrTierlistNotFound
	}

	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now().UTC()
	}
	r.nextImage++
	img.ID = r.nextImage
	r.images[img.ID] = copyImage(img)
	return nil
}

func (r *TierlistRepository) GetImage(ctx context.Context, id int64) (*entities.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	img, exists := r.images[id]
	if !exists {
		return nil, repository.ErrImageNotFound
	}
	return copyImage(img), nil
}

// ListImages returns the tierlist's images in upload order.
func (r *TierlistRepository) ListImages(ctx context.Context, tierlistUUID string) ([]*entities.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	images := []*entities.Image{}
	for _, img := range r.images {
		if img.TierlistUUID == tierlistUUID {
			images = append(images, copyImage(img))
		}
	}
	sort.Slice(images, func(i, j int) bool { return images[i].ID < images[j].ID })
	return images, nil
}

func (r *TierlistRepository) SetImageTier(ctx context.Context, imageID int64, tierID *int64) (*entities.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	img, exists := r.images[imageID]
	if !exists {
		return nil, repository.ErrImageNotFound
	}
	if tierID != nil {
		if _, exists := r.tiers[*tierID]; !exists {
			return nil, repository.ErrTierNotFound
		}
	}

	img.Assign(tierID)
	return copyImage(img), nil
}

func copyTier(t *entities.Tier) *entities.Tier {
	c := *t
	c.Images = nil
	return &c
}

func copyImage(img *entities.Image) *entities.Image {
	c := *img
	c.Assign(img.TierID)
	return &c
}
