package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"wishlist-shopify-layer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) *FileSessionStore {
	t.Helper()
	return NewFileSessionStore(filepath.Join(t.TempDir(), "sessions", "sessions.json"))
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	installed := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Store(ctx, "example.myshopify.com", &domain.ShopSession{
		Shop:        "example.myshopify.com",
		AccessToken: "shpat_token",
		Scope:       "read_products",
		InstalledAt: installed,
	}))

	session, err := store.Get(ctx, "example.myshopify.com")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "shpat_token", session.AccessToken)
	assert.Equal(t, "read_products", session.Scope)
	assert.True(t, session.InstalledAt.Equal(installed))
	assert.False(t, session.UpdatedAt.IsZero())
}

func TestFileStoreGetMissing(t *testing.T) {
	store := newTestFileStore(t)

	session, err := store.Get(context.Background(), "unknown.myshopify.com")
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestFileStoreOverwrite(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "example.myshopify.com", &domain.ShopSession{
		Shop:        "example.myshopify.com",
		AccessToken: "first",
	}))
	require.NoError(t, store.Store(ctx, "example.myshopify.com", &domain.ShopSession{
		Shop:        "example.myshopify.com",
		AccessToken: "second",
	}))

	session, err := store.Get(ctx, "example.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "second", session.AccessToken)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFileStoreDelete(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "example.myshopify.com", &domain.ShopSession{
		Shop:        "example.myshopify.com",
		AccessToken: "shpat_token",
	}))
	require.NoError(t, store.Delete(ctx, "example.myshopify.com"))

	session, err := store.Get(ctx, "example.myshopify.com")
	require.NoError(t, err)
	assert.Nil(t, session)

	// Deleting a shop that was never stored is a no-op.
	require.NoError(t, store.Delete(ctx, "never-installed.myshopify.com"))
}

func TestFileStoreConcurrentWrites(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	shops := []string{
		"one.myshopify.com",
		"two.myshopify.com",
		"three.myshopify.com",
		"four.myshopify.com",
	}

	var wg sync.WaitGroup
	for _, shop := range shops {
		wg.Add(1)
		go func(shop string) {
			defer wg.Done()
			assert.NoError(t, store.Store(ctx, shop, &domain.ShopSession{
				Shop:        shop,
				AccessToken: "token-" + shop,
			}))
		}(shop)
	}
	wg.Wait()

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(shops))
	for _, shop := range shops {
		require.Contains(t, all, shop)
		assert.Equal(t, "token-"+shop, all[shop].AccessToken)
	}
}
