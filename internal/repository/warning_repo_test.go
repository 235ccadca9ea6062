package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarningRepository(t *testing.T) {
	repo := NewWarningRepository(newTestDB(t))
	ctx := context.Background()

	count, err := repo.Add(ctx, &Warning{ChatID: -100, UserID: 1, Reason: "spam"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = repo.Add(ctx, &Warning{ChatID: -100, UserID: 1, Reason: "spam again"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Another pair keeps its own ledger.
	count, err = repo.Add(ctx, &Warning{ChatID: -200, UserID: 1, Reason: "flood"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = repo.Count(ctx, -100, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	cleared, err := repo.Clear(ctx, -100, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cleared)

	count, err = repo.Count(ctx, -100, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = repo.Count(ctx, -200, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "clearing one pair must not touch another")
}
