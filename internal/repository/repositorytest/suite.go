// Package repositorytest holds the behavior every TierlistRepository must
// share. Each implementation's tests call Run with a constructor.
package repositorytest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tiernow/internal/domain/entities"
	"tiernow/internal/repository"
	"tiernow/pkg/utils"
)

// Run exercises repo constructors produced by newRepo. Every subtest gets a
// fresh repository.
func Run(t *testing.T, newRepo func(t *testing.T) repository.TierlistRepository) {
	t.Run("CreateAssignsDefaultTiers", func(t *testing.T) { testCreate(t, newRepo(t)) })
	t.Run("CreateDuplicate", func(t *testing.T) { testCreateDuplicate(t, newRepo(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newRepo(t)) })
	t.Run("Images", func(t *testing.T) { testImages(t, newRepo(t)) })
	t.Run("ImageForMissingTierlist", func(t *testing.T) { testImageForMissingTierlist(t, newRepo(t)) })
	t.Run("SetImageTier", func(t *testing.T) { testSetImageTier(t, newRepo(t)) })
	t.Run("ConcurrentCreate", func(t *testing.T) { testConcurrentCreate(t, newRepo(t)) })
}

func createTierlist(t *testing.T, repo repository.TierlistRepository) *entities.Tierlist {
	t.Helper()
	tl := entities.NewTierlist(utils.GenerateID(), "")
	require.NoError(t, repo.Create(context.Background(), tl))
	return tl
}

func testCreate(t *testing.T, repo repository.TierlistRepository) {
	ctx := context.Background()
	tl := createTierlist(t, repo)

	require.Len(t, tl.Tiers, len(entities.DefaultTierNames))
	for i, tier := range tl.Tiers {
		assert.NotZero(t, tier.ID)
		assert.Equal(t, entities.DefaultTierNames[i], tier.Name)
		assert.Equal(t, int64(i), tier.Order)
		assert.Equal(t, tl.UUID, tier.TierlistUUID)
	}

	got, err := repo.GetByUUID(ctx, tl.UUID)
	require.NoError(t, err)
	assert.Equal(t, tl.UUID, got.UUID)
	assert.Equal(t, entities.DefaultTierlistName, got.Name)
	require.Len(t, got.Tiers, len(entities.DefaultTierNames))
	for i, tier := range got.Tiers {
		assert.Equal(t, tl.Tiers[i].ID, tier.ID)
		assert.Equal(t, int64(i), tier.Order)
	}

	tier, err := repo.GetTier(ctx, tl.Tiers[2].ID)
	require.NoError(t, err)
	assert.Equal(t, "B", tier.Name)
}

func testCreateDuplicate(t *testing.T, repo repository.TierlistRepository) {
	tl := createTierlist(t, repo)

	err := repo.Create(context.Background(), entities.NewTierlist(tl.UUID, "again"))
	assert.ErrorIs(t, err, repository.ErrTierlistExists)

	got, err := repo.GetByUUID(context.Background(), tl.UUID)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultTierlistName, got.Name)
	assert.Len(t, got.Tiers, len(entities.DefaultTierNames))
}

func testGetMissing(t *testing.T, repo repository.TierlistRepository) {
	ctx := context.Background()

	_, err := repo.GetByUUID(ctx, utils.GenerateID())
	assert.ErrorIs(t, err, repository.ErrTierlistNotFound)

	_, err = repo.GetTier(ctx, 4242)
	assert.ErrorIs(t, err, repository.ErrTierNotFound)

	_, err = repo.GetImage(ctx, 4242)
	assert.ErrorIs(t, err, repository.ErrImageNotFound)
}

func testImages(t *testing.T, repo repository.TierlistRepository) {
	ctx := context.Background()
	tl := createTierlist(t, repo)
	other := createTierlist(t, repo)

	first := &entities.Image{TierlistUUID: tl.UUID, FileKey: "a.png", ContentType: "image/png"}
	second := &entities.Image{TierlistUUID: tl.UUID, FileKey: "b.jpg", ContentType: "image/jpeg"}
	foreign := &entities.Image{TierlistUUID: other.UUID, FileKey: "c.gif", ContentType: "image/gif"}
	for _, img := range []*entities.Image{first, second, foreign} {
		require.NoError(t, repo.CreateImage(ctx, img))
		assert.NotZero(t, img.ID)
		assert.False(t, img.CreatedAt.IsZero())
	}
	assert.NotEqual(t, first.ID, second.ID)

	got, err := repo.GetImage(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "b.jpg", got.FileKey)
	assert.Equal(t, "image/jpeg", got.ContentType)
	assert.Nil(t, got.TierID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.WithinDuration(t, second.CreatedAt, got.CreatedAt, time.Second)

	images, err := repo.ListImages(ctx, tl.UUID)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, first.ID, images[0].ID)
	assert.Equal(t, second.ID, images[1].ID)

	images, err = repo.ListImages(ctx, utils.GenerateID())
	require.NoError(t, err)
	assert.Empty(t, images)
}

func testImageForMissingTierlist(t *testing.T, repo repository.TierlistRepository) {
	img := &entities.Image{TierlistUUID: utils.GenerateID(), FileKey: "a.png"}
	err := repo.CreateImage(context.Background(), img)
	assert.ErrorIs(t, err, repository.ErrTierlistNotFound)
}

func testSetImageTier(t *testing.T, repo repository.TierlistRepository) {
	ctx := context.Background()
	tl := createTierlist(t, repo)

	img := &entities.Image{TierlistUUID: tl.UUID, FileKey: "a.png", ContentType: "image/png"}
	require.NoError(t, repo.CreateImage(ctx, img))

	tierID := tl.Tiers[0].ID
	moved, err := repo.SetImageTier(ctx, img.ID, &tierID)
	require.NoError(t, err)
	require.NotNil(t, moved.TierID)
	assert.Equal(t, tierID, *moved.TierID)

	got, err := repo.GetImage(ctx, img.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TierID)
	assert.Equal(t, tierID, *got.TierID)

	moved, err = repo.SetImageTier(ctx, img.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, moved.TierID)

	missing := int64(4242)
	_, err = repo.SetImageTier(ctx, img.ID, &missing)
	assert.ErrorIs(t, err, repository.ErrTierNotFound)

	_, err = repo.SetImageTier(ctx, 4242, nil)
	assert.ErrorIs(t, err, repository.ErrImageNotFound)
}

func testConcurrentCreate(t *testing.T, repo repository.TierlistRepository) {
	ctx := context.Background()
	id := utils.GenerateID()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Create(ctx, entities.NewTierlist(id, ""))
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, repository.ErrTierlistExists)
	}
	assert.Equal(t, 1, created)

	got, err := repo.GetByUUID(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got.Tiers, len(entities.DefaultTierNames))
}
