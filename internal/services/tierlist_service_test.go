package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tiernow/internal/domain/entities"
	"tiernow/internal/repository/memory"
	"tiernow/internal/storage"
	"tiernow/pkg/utils"
)

func setupTierlistService() (*TierlistService, *memory.TierlistRepository, *storage.MemoryStore) {
	repo := memory.NewTierlistRepository()
	store := storage.NewMemoryStore()
	service := NewTierlistService(repo, store, utils.UUIDGenerator{}, testLogger())
	return service, repo, store
}

func uploadPNG(t *testing.T, service *TierlistService, tierlistUUID string) *entities.Image {
	t.Helper()
	img, err := service.UploadImage(context.Background(), UploadRequest{
		TierlistUUID: tierlistUUID,
		Filename:     "Cat.PNG",
		ContentType:  "image/png",
		Size:         4,
		Body:         strings.NewReader("meow"),
	})
	require.NoError(t, err)
	return img
}

func TestTierlistService_CreateTierlist_HonorsUUID(t *testing.T) {
	service, _, _ := setupTierlistService()
	id := utils.GenerateID()

	tl, err := service.CreateTierlist(context.Background(), id, "New Tierlist")
	require.NoError(t, err)
	assert.Equal(t, id, tl.UUID)
	assert.Equal(t, "New Tierlist", tl.Name)
	require.Len(t, tl.Tiers, 5)
	assert.Equal(t, "S", tl.Tiers[0].Name)
	assert.Equal(t, "D", tl.Tiers[4].Name)
}

func TestTierlistService_CreateTierlist_GeneratesUUID(t *testing.T) {
	service, _, _ := setupTierlistService()

	tl, err := service.CreateTierlist(context.Background(), "", "  ")
	require.NoError(t, err)
	assert.NoError(t, utils.ValidateID(tl.UUID))
	assert.Equal(t, entities.DefaultTierlistName, tl.Name)
}

func TestTierlistService_CreateTierlist_Errors(t *testing.T) {
	service, _, _ := setupTierlistService()
	ctx := context.Background()

	_, err := service.CreateTierlist(ctx, "not-a-uuid", "x")
	assert.ErrorIs(t, err, ErrInvalidUUID)

	id := utils.GenerateID()
	_, err = service.CreateTierlist(ctx, id, "x")
	require.NoError(t, err)
	_, err = service.CreateTierlist(ctx, id, "x")
	assert.ErrorIs(t, err, ErrTierlistExists)
}

func TestTierlistService_GetTierlist(t *testing.T) {
	service, _, _ := setupTierlistService()
	ctx := context.Background()

	tl, err := service.CreateTierlist(ctx, "", "")
	require.NoError(t, err)
	img := uploadPNG(t, service, tl.UUID)

	got, err := service.GetTierlist(ctx, tl.UUID)
	require.NoError(t, err)
	require.Len(t, got.Unassigned, 1)
	assert.Equal(t, img.ID, got.Unassigned[0].ID)

	_, err = service.GetTierlist(ctx, utils.GenerateID())
	assert.ErrorIs(t, err, ErrTierlistNotFound)

	_, err = service.GetTierlist(ctx, "../etc")
	assert.ErrorIs(t, err, ErrTierlistNotFound)
}

func TestTierlistService_UploadImage(t *testing.T) {
	service, repo, _ := setupTierlistService()
	ctx := context.Background()

	tl, err := service.CreateTierlist(ctx, "", "")
	require.NoError(t, err)
	img := uploadPNG(t, service, tl.UUID)

	assert.True(t, strings.HasSuffix(img.FileKey, ".png"))
	assert.NoError(t, utils.ValidateID(strings.TrimSuffix(img.FileKey, ".png")))
	assert.Equal(t, "image/png", img.ContentType)
	assert.Nil(t, img.TierID)

	stored, err := repo.GetImage(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, img.FileKey, stored.FileKey)

	rc, info, err := service.OpenImage(ctx, img.FileKey)
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "meow", string(data))
	assert.Equal(t, "image/png", info.ContentType)
}

func TestTierlistService_UploadImage_Rejections(t *testing.T) {
	service, _, store := setupTierlistService()
	ctx := context.Background()
	tl, err := service.CreateTierlist(ctx, "", "")
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     UploadRequest
		wantErr error
	}{
		{
			name:    "Unknown tierlist",
			req:     UploadRequest{TierlistUUID: utils.GenerateID(), Filename: "a.png", ContentType: "image/png"},
			wantErr: ErrTierlistNotFound,
		},
		{
			name:    "No extension",
			req:     UploadRequest{TierlistUUID: tl.UUID, Filename: "README", ContentType: "image/png"},
			wantErr: ErrMissingExtension,
		},
		{
			name:    "HTML upload",
			req:     UploadRequest{TierlistUUID: tl.UUID, Filename: "x.html", ContentType: "text/html"},
			wantErr: ErrNotAnImage,
		},
		{
			name:    "Octet stream with non-image extension",
			req:     UploadRequest{TierlistUUID: tl.UUID, Filename: "x.txt", ContentType: "application/octet-stream"},
			wantErr: ErrNotAnImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Body = strings.NewReader("data")
			_, err := service.UploadImage(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// nothing reached object storage
	_, _, err = store.Get(ctx, "images/x.html")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestTierlistService_UploadImage_SniffsFromExtension(t *testing.T) {
	service, _, _ := setupTierlistService()
	ctx := context.Background()
	tl, err := service.CreateTierlist(ctx, "", "")
	require.NoError(t, err)

	img, err := service.UploadImage(ctx, UploadRequest{
		TierlistUUID: tl.UUID,
		Filename:     "photo.jpg",
		ContentType:  "application/octet-stream",
		Size:         -1,
		Body:         strings.NewReader("jpeg"),
	})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.ContentType)
}

func TestTierlistService_OpenImage_BadKeys(t *testing.T) {
	service, _, _ := setupTierlistService()
	ctx := context.Background()

	for _, key := range []string{"", "../secret", "abc.png", utils.GenerateID(), utils.GenerateID() + ".png"} {
		_, _, err := service.OpenImage(ctx, key)
		assert.ErrorIs(t, err, storage.ErrObjectNotFound, "key %q", key)
	}
}

func TestTierlistService_MoveImage(t *testing.T) {
	service, _, _ := setupTierlistService()
	ctx := context.Background()

	tl, err := service.CreateTierlist(ctx, "", "")
	require.NoError(t, err)
	other, err := service.CreateTierlist(ctx, "", "")
	require.NoError(t, err)
	img := uploadPNG(t, service, tl.UUID)

	tierID := tl.Tiers[1].ID
	moved, err := service.MoveImage(ctx, tl.UUID, img.ID, &tierID)
	require.NoError(t, err)
	require.NotNil(t, moved.TierID)
	assert.Equal(t, tierID, *moved.TierID)

	got, err := service.GetTierlist(ctx, tl.UUID)
	require.NoError(t, err)
	require.Len(t, got.Tiers[1].Images, 1)
	assert.Empty(t, got.Unassigned)

	moved, err = service.MoveImage(ctx, tl.UUID, img.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, moved.TierID)

	foreignTier := other.Tiers[0].ID
	_, err = service.MoveImage(ctx, tl.UUID, img.ID, &foreignTier)
	assert.ErrorIs(t, err, ErrTierMismatch)

	_, err = service.MoveImage(ctx, other.UUID, img.ID, nil)
	assert.ErrorIs(t, err, ErrImageNotFound)

	missingTier := int64(9999)
	_, err = service.MoveImage(ctx, tl.UUID, img.ID, &missingTier)
	assert.ErrorIs(t, err, ErrTierNotFound)

	_, err = service.MoveImage(ctx, tl.UUID, 9999, nil)
	assert.ErrorIs(t, err, ErrImageNotFound)
}

// brokenImageRepo accepts tierlists but fails every image insert.
type brokenImageRepo struct {
	*memory.TierlistRepository
}

func (r brokenImageRepo) CreateImage(ctx context.Context, img *entities.Image) error {
	return errors.New("disk full")
}

func TestTierlistService_UploadImage_RemovesObjectWhenMetadataFails(t *testing.T) {
	repo := brokenImageRepo{memory.NewTierlistRepository()}
	store := storage.NewMemoryStore()
	tierlistID := utils.GenerateID()
	fileID := utils.GenerateID()
	service := NewTierlistService(repo, store, &sequenceIDs{ids: []string{fileID}}, testLogger())
	ctx := context.Background()

	_, err := service.CreateTierlist(ctx, tierlistID, "")
	require.NoError(t, err)

	_, err = service.UploadImage(ctx, UploadRequest{
		TierlistUUID: tierlistID,
		Filename:     "cat.png",
		ContentType:  "image/png",
		Size:         4,
		Body:         strings.NewReader("meow"),
	})
	assert.EqualError(t, err, "disk full")

	_, _, err = store.Get(ctx, entities.ImageObjectKey(fileID+".png"))
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}
