package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tiernow/internal/domain/entities"
	"tiernow/internal/repository"
	"tiernow/internal/repository/repositorytest"
	"tiernow/pkg/utils"
)

func openTestRepo(t *testing.T) *TierlistRepository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "tiernow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestTierlistRepository(t *testing.T) {
	repositorytest.Run(t, func(t *testing.T) repository.TierlistRepository {
		return openTestRepo(t)
	})
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tiernow.db")
	ctx := context.Background()

	repo, err := Open(path)
	require.NoError(t, err)
	tl := entities.NewTierlist(utils.GenerateID(), "Persisted")
	require.NoError(t, repo.Create(ctx, tl))
	require.NoError(t, repo.Close())

	repo, err = Open(path)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.GetByUUID(ctx, tl.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Persisted", got.Name)
	assert.True(t, tl.CreatedAt.Equal(got.CreatedAt))
	assert.Len(t, got.Tiers, len(entities.DefaultTierNames))
}
