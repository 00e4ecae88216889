package artifact

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_SaveGetIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(0)
	data := []byte("hello")
	require.NoError(t, store.Save(ctx, "s1", "t1", data))

	data[0] = 'H'
	out, err := store.Get(ctx, "s1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))

	out[0] = 'x'
	out2, err := store.Get(ctx, "s1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out2))

	_, err = store.Get(ctx, "s2", "t1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, "s1", "t2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_Retention(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(2)
	require.NoError(t, store.Save(ctx, "s1", "t1", []byte("1")))
	require.NoError(t, store.Save(ctx, "s1", "t2", []byte("2")))
	require.NoError(t, store.Save(ctx, "s1", "t2", []byte("2b")))
	assert.Equal(t, []string{"t1", "t2"}, store.List("s1"))

	require.NoError(t, store.Save(ctx, "s1", "t3", []byte("3")))
	assert.Equal(t, []string{"t2", "t3"}, store.List("s1"))
	_, err := store.Get(ctx, "s1", "t1")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := store.Get(ctx, "s1", "t2")
	require.NoError(t, err)
	assert.Equal(t, "2b", string(got))

	store.DeleteSession("s1")
	assert.Empty(t, store.List("s1"))
}

func TestInMemoryStore_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewInMemoryStore(0)
	assert.ErrorIs(t, store.Save(ctx, "s1", "t1", nil), context.Canceled)
}

func TestInMemoryStore_Concurrency(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(100)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("t%d", i)
			assert.NoError(t, store.Save(ctx, "s1", id, []byte(id)))
			_, err := store.Get(ctx, "s1", id)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Len(t, store.List("s1"), 50)
}
