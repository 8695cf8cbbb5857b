package database

import (
	"context"
	"errors"
	"testing"

	"storefront_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSlugs struct {
	owners   map[string]gocql.UUID
	claimErr error
	released []string
}

func (f *fakeSlugs) Claim(_ context.Context, slug string, id gocql.UUID) (bool, error) {
	if f.claimErr != nil {
		return false, f.claimErr
	}
	owner, ok := f.owners[slug]
	if ok && owner != id {
		return false, nil
	}
	f.owners[slug] = id
	return true, nil
}

func (f *fakeSlugs) Release(_ context.Context, slug string, _ gocql.UUID) error {
	f.released = append(f.released, slug)
	return nil
}

func TestProductRepository_SlugAlreadyClaimed(t *testing.T) {
	holder := gocql.TimeUUID()
	slugs := &fakeSlugs{owners: map[string]gocql.UUID{"wool-coat": holder}}
	repo := &ProductRepository{slugs: slugs, log: zap.NewNop()}
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		err := repo.Create(ctx, &models.Product{Name: "Wool Coat", Slug: "wool-coat"})
		assert.ErrorIs(t, err, ErrSlugTaken)
		assert.Equal(t, holder, slugs.owners["wool-coat"])
	})

	t.Run("rename", func(t *testing.T) {
		p := &models.Product{ID: gocql.TimeUUID().String(), Name: "Wool Coat", Slug: "wool-coat"}
		err := repo.Update(ctx, p, "linen-shirt")
		assert.ErrorIs(t, err, ErrSlugTaken)
		assert.Empty(t, slugs.released)
	})

	t.Run("claim failure is returned as is", func(t *testing.T) {
		failing := &ProductRepository{slugs: &fakeSlugs{claimErr: errors.New("timeout"), owners: map[string]gocql.UUID{}}, log: zap.NewNop()}
		err := failing.Create(ctx, &models.Product{Slug: "tee"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrSlugTaken)
	})
}
