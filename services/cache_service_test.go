package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai_book_recommend/models"
	"ai_book_recommend/store"
)

func newTestCache(t *testing.T) (*RecommendationCache, *time.Time, store.Store) {
	t.Helper()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base

	st := store.NewMemoryStore()
	c := NewRecommendationCache(st, newTestConfig())
	c.nowFunc = func() time.Time { return now }
	return c, &now, st
}

func sampleRecommendations() []models.Recommendation {
	return []models.Recommendation{
		{Title: "Dune", Author: "Frank Herbert", Reason: "史诗级科幻", Score: 90, Source: models.SourceAI},
		{Title: "Mistborn", Author: "Brandon Sanderson", Reason: "魔法体系严密", Score: 85, Source: models.SourceAI},
	}
}

func TestContentHashOrderIndependent(t *testing.T) {
	a := []models.RatedBook{
		{ID: 1, Rating: 5},
		{ID: 2, Rating: 4},
		{ID: 3, Rating: 5},
	}
	b := []models.RatedBook{
		{ID: 3, Rating: 5},
		{ID: 1, Rating: 5},
		{ID: 2, Rating: 4},
	}

	// 同一组书不同顺序得到相同的键
	assert.Equal(t, ContentHash(a), ContentHash(b))
}

func TestContentHashChangesWithRating(t *testing.T) {
	a := []models.RatedBook{{ID: 1, Rating: 5}}
	b := []models.RatedBook{{ID: 1, Rating: 4}}

	assert.NotEqual(t, ContentHash(a), ContentHash(b))
}

func TestCacheSaveAndLookup(t *testing.T) {
	c, _, _ := newTestCache(t)

	require.NoError(t, c.Save("u1", "hash1", sampleRecommendations(), models.SourceAI))

	entry, hit := c.Lookup("u1", "hash1")
	require.True(t, hit)
	assert.Equal(t, models.SourceAI, entry.Source)
	assert.Len(t, entry.Recommendations, 2)
	assert.Equal(t, "Dune", entry.Recommendations[0].Title)
}

func TestCacheMissOnDifferentKey(t *testing.T) {
	c, _, _ := newTestCache(t)

	require.NoError(t, c.Save("u1", "hash1", sampleRecommendations(), models.SourceAI))

	_, hit := c.Lookup("u1", "hash2")
	assert.False(t, hit)
	_, hit = c.Lookup("u2", "hash1")
	assert.False(t, hit)
}

func TestCacheExpiryDeletesEntry(t *testing.T) {
	c, now, st := newTestCache(t)

	require.NoError(t, c.Save("u1", "hash1", sampleRecommendations(), models.SourceAI))

	// TTL恰好到期时条目视为不存在
	*now = now.Add(time.Hour)
	_, hit := c.Lookup("u1", "hash1")
	assert.False(t, hit)

	// 过期条目查询时顺手删除
	_, ok, err := st.Get("reco_cache:u1:hash1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheJustBeforeExpiryStillHits(t *testing.T) {
	c, now, _ := newTestCache(t)

	require.NoError(t, c.Save("u1", "hash1", sampleRecommendations(), models.SourceAI))

	*now = now.Add(time.Hour - time.Second)
	_, hit := c.Lookup("u1", "hash1")
	assert.True(t, hit)
}

func TestCacheOverwriteResetsTTL(t *testing.T) {
	c, now, _ := newTestCache(t)

	require.NoError(t, c.Save("u1", "hash1", sampleRecommendations(), models.SourceAI))

	// 50分钟后覆盖写入，有效期从新的创建时刻重新起算
	*now = now.Add(50 * time.Minute)
	fresh := []models.Recommendation{{Title: "Project Hail Mary", Author: "Andy Weir", Score: 88}}
	require.NoError(t, c.Save("u1", "hash1", fresh, models.SourceFallback))

	*now = now.Add(50 * time.Minute)
	entry, hit := c.Lookup("u1", "hash1")
	require.True(t, hit)
	assert.Equal(t, models.SourceFallback, entry.Source)
	assert.Equal(t, "Project Hail Mary", entry.Recommendations[0].Title)
}

func TestCacheCorruptEntryTreatedAsMiss(t *testing.T) {
	c, _, st := newTestCache(t)

	require.NoError(t, st.Set("reco_cache:u1:hash1", "not json"))

	_, hit := c.Lookup("u1", "hash1")
	assert.False(t, hit)

	// 损坏条目被删除
	_, ok, err := st.Get("reco_cache:u1:hash1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCachePruneExpired(t *testing.T) {
	c, now, _ := newTestCache(t)

	require.NoError(t, c.Save("u1", "old", sampleRecommendations(), models.SourceAI))
	*now = now.Add(30 * time.Minute)
	require.NoError(t, c.Save("u1", "fresh", sampleRecommendations(), models.SourceAI))
	*now = now.Add(45 * time.Minute)

	removed, err := c.PruneExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, hit := c.Lookup("u1", "fresh")
	assert.True(t, hit)
	_, hit = c.Lookup("u1", "old")
	assert.False(t, hit)
}
