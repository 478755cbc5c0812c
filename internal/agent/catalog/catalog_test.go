package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmind-poc/server/internal/agent/model"
)

func TestSearchMatchesAnyToken(t *testing.T) {
	t.Parallel()

	c := NewInMemoryCatalog(nil)
	got, err := c.Search(context.Background(), "gaming laptop", 10)
	require.NoError(t, err)

	require.NotEmpty(t, got)
	for _, card := range got {
		assert.Equal(t, "laptops", card.Category)
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	t.Parallel()

	c := NewInMemoryCatalog(nil)
	got, err := c.Search(context.Background(), "laptop", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	c := NewInMemoryCatalog(nil)
	got, err := c.Search(context.Background(), "QUIETTONE", 5)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "QuietTone XM5", got[0].Name)
}

func TestSearchIgnoresShortTokens(t *testing.T) {
	t.Parallel()

	c := NewInMemoryCatalog(nil)

	// "a" and "an" alone would match every description
	got, err := c.Search(context.Background(), "a an", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchEmptyQuery(t *testing.T) {
	t.Parallel()

	c := NewInMemoryCatalog(nil)
	got, err := c.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchCustomInventory(t *testing.T) {
	t.Parallel()

	c := NewInMemoryCatalog([]model.ProductCard{
		{ID: "x1", Name: "Test Widget", Category: "widgets", Description: "a plain widget"},
	})
	got, err := c.Search(context.Background(), "widget", 10)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "x1", got[0].ID)
}
