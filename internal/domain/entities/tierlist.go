package entities

import "time"

// DefaultTierlistName is the display name a tierlist gets when the creator
// does not choose one. The web redirector always sends it.
const DefaultTierlistName = "New Tierlist"

// DefaultTierNames are the tiers every new tierlist starts with, best first.
// A tier's Order is its index in this slice.
var DefaultTierNames = []string{"S", "A", "B", "C", "D"}

// Tierlist is the aggregate a visitor edits. Its UUID is chosen by the
// creator (normally the web redirector) so the creator can redirect to the
// tierlist's page without waiting to read the API's response.
//
// Go Learning Note — "omitempty" Struct Tag:
// Tiers and Unassigned are populated only when the tierlist is read back with
// its contents. The create response carries the default tiers but no images;
// "omitempty" on Unassigned keeps an empty list out of that JSON.
type Tierlist struct {
	UUID       string    `json:"uuid"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	Tiers      []*Tier   `json:"tiers"`
	Unassigned []*Image  `json:"unassigned,omitempty"`
}

// NewTierlist builds a tierlist with no tiers. Repositories attach the default
// tiers when they persist it, since tier IDs are assigned at that point.
func NewTierlist(uuid, name string) *Tierlist {
	if name == "" {
		name = DefaultTierlistName
	}
	return &Tierlist{
		UUID:      uuid,
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Tiers:     []*Tier{},
	}
}

// Tier is one ranked row of a tierlist.
type Tier struct {
	ID           int64    `json:"id"`
	TierlistUUID string   `json:"tierlist_uuid"`
	Name         string   `json:"name"`
	Order        int64    `json:"order"`
	Images       []*Image `json:"images,omitempty"`
}

// Image is the metadata of an uploaded picture. The bytes live in object
// storage under "images/" + FileKey.
//
// TierID is a pointer so JSON can express "not in any tier" as null. A nil
// TierID means the image sits in the unassigned pool.
type Image struct {
	ID           int64     `json:"id"`
	TierlistUUID string    `json:"tierlist_uuid"`
	FileKey      string    `json:"file_key"`
	ContentType  string    `json:"content_type"`
	TierID       *int64    `json:"tier_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Assign places the image into a tier, or back into the unassigned pool when
// tierID is nil.
func (i *Image) Assign(tierID *int64) {
	if tierID == nil {
		i.TierID = nil
		return
	}
	id := *tierID
	i.TierID = &id
}

// ObjectKey is the storage key of the image bytes.
func (i *Image) ObjectKey() string {
	return ImageObjectKey(i.FileKey)
}

// ImageObjectKey maps a file key ("<uuid>.png") to its storage key.
func ImageObjectKey(fileKey string) string {
	return "images/" + fileKey
}

// Arrange distributes images into their tiers and the unassigned pool. Images
// referencing a tier that is not part of this tierlist fall back to
// unassigned.
func (t *Tierlist) Arrange(images []*Image) {
	byID := make(map[int64]*Tier, len(t.Tiers))
	for _, tier := range t.Tiers {
		tier.Images = nil
		byID[tier.ID] = tier
	}
	t.Unassigned = nil

	for _, img := range images {
		if img.TierID != nil {
			if tier, ok := byID[*img.TierID]; ok {
				tier.Images = append(tier.Images, img)
				continue
			}
		}
		t.Unassigned = append(t.Unassigned, img)
	}
}
