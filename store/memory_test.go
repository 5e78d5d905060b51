package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetSet(t *testing.T) {
	s := NewMemoryStore()

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("k1", "v1"))

	v, ok, err := s.Get("k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", v)

	// 覆盖写入
	require.NoError(t, s.Set("k1", "v2"))
	v, _, _ = s.Get("k1")
	assert.Equal(t, "v2", v)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()

	require.NoError(t, s.Set("k1", "v1"))
	require.NoError(t, s.Delete("k1"))

	_, ok, err := s.Get("k1")
	require.NoError(t, err)
	assert.False(t, ok)

	// 删除不存在的键不报错
	assert.NoError(t, s.Delete("missing"))
}

func TestMemoryStoreKeys(t *testing.T) {
	s := NewMemoryStore()

	require.NoError(t, s.Set("ratelimit:u1", "a"))
	require.NoError(t, s.Set("ratelimit:u2", "b"))
	require.NoError(t, s.Set("reco_cache:u1:h1", "c"))

	keys, err := s.Keys("ratelimit:")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.ElementsMatch(t, []string{"ratelimit:u1", "ratelimit:u2"}, keys)

	keys, err = s.Keys("nothing:")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n)
			_ = s.Set(key, "v")
			_, _, _ = s.Get(key)
			_, _ = s.Keys("k")
		}(i)
	}
	wg.Wait()

	keys, err := s.Keys("k")
	require.NoError(t, err)
	assert.Len(t, keys, 50)
}
