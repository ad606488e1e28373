package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorePutGetDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	n, err := store.Put(ctx, "attachments/tx-1/receipt.txt", "text/plain", strings.NewReader("paid"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	rc, err := store.Get(ctx, "attachments/tx-1/receipt.txt")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "paid", string(body))

	require.NoError(t, store.Delete(ctx, "attachments/tx-1/receipt.txt"))

	_, err = store.Get(ctx, "attachments/tx-1/receipt.txt")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "attachments/tx-1/receipt.txt"), ErrNotFound)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../escape.txt", "text/plain", strings.NewReader("x"))
	assert.Error(t, err)
}
