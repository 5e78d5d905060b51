package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"ai_book_recommend/config"
	"ai_book_recommend/logger"
	"ai_book_recommend/models"
	"ai_book_recommend/store"
	"ai_book_recommend/utils"
)

const cacheKeyPrefix = "reco_cache:"

// RecommendationCache 推荐结果缓存
// 键为(用户ID, 书单内容哈希)，有效期从创建时刻起算，过期视为不存在并删除
type RecommendationCache struct {
	store store.Store
	ttl   time.Duration

	// nowFunc 允许测试注入时钟
	nowFunc func() time.Time
}

// NewRecommendationCache 创建推荐缓存，TTL来自配置
func NewRecommendationCache(st store.Store, cfg *config.Config) *RecommendationCache {
	return &RecommendationCache{
		store:   st,
		ttl:     time.Duration(cfg.Cache.TTLSec) * time.Second,
		nowFunc: time.Now,
	}
}

// ContentHash 计算书单的内容哈希：(id, rating)对排序后摘要
// 与书单顺序无关：同一组书不同顺序得到相同的键
func ContentHash(books []models.RatedBook) string {
	pairs := make([]string, 0, len(books))
	for _, b := range books {
		pairs = append(pairs, fmt.Sprintf("%d:%d", b.ID, b.Rating))
	}
	sort.Strings(pairs)
	return utils.CalculateMD5(strings.Join(pairs, "|"))
}

// Lookup 查询缓存，过期条目按不存在处理并顺手删除
// 读取或解析失败按未命中处理，不向上抛错
func (c *RecommendationCache) Lookup(uid, hash string) (*models.CacheEntry, bool) {
	key := c.key(uid, hash)

	raw, ok, err := c.store.Get(key)
	if err != nil {
		logger.Warn("读取推荐缓存失败", "uid", uid, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var entry models.CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		logger.Warn("解析推荐缓存失败，删除该条目", "uid", uid, "error", err)
		_ = c.store.Delete(key)
		return nil, false
	}

	if c.nowFunc().Sub(entry.CreatedAt) >= c.ttl {
		_ = c.store.Delete(key)
		return nil, false
	}

	return &entry, true
}

// Save 写入缓存，同键的旧条目无条件覆盖
func (c *RecommendationCache) Save(uid, hash string, recommendations []models.Recommendation, source string) error {
	entry := models.CacheEntry{
		Recommendations: recommendations,
		Source:          source,
		CreatedAt:       c.nowFunc(),
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.store.Set(c.key(uid, hash), string(raw))
}

// PruneExpired 清理所有过期的缓存条目，返回删除数量，供定时任务调用
func (c *RecommendationCache) PruneExpired() (int, error) {
	keys, err := c.store.Keys(cacheKeyPrefix)
	if err != nil {
		return 0, err
	}

	removed := 0
	now := c.nowFunc()
	for _, key := range keys {
		raw, ok, err := c.store.Get(key)
		if err != nil || !ok {
			continue
		}

		var entry models.CacheEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil || now.Sub(entry.CreatedAt) >= c.ttl {
			if err := c.store.Delete(key); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func (c *RecommendationCache) key(uid, hash string) string {
	return cacheKeyPrefix + uid + ":" + hash
}
