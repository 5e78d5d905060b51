package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai_book_recommend/store"
)

func newTestLimiter(t *testing.T) (*RateLimiter, *time.Time) {
	t.Helper()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base

	l := NewRateLimiter(store.NewMemoryStore(), newTestConfig())
	l.nowFunc = func() time.Time { return now }
	return l, &now
}

func TestRateLimiterFirstRequestAllowed(t *testing.T) {
	l, _ := newTestLimiter(t)

	assert.NoError(t, l.Check("u1"))
}

func TestRateLimiterCooldown(t *testing.T) {
	l, now := newTestLimiter(t)

	require.NoError(t, l.Record("u1"))

	// 冷却期300秒，1分钟后检查应拒绝，剩余240秒
	*now = now.Add(time.Minute)
	err := l.Check("u1")

	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, ReasonCooldown, rle.Reason)
	assert.Equal(t, 240, rle.RetryAfterSec)

	// 冷却期过后放行
	*now = now.Add(5 * time.Minute)
	assert.NoError(t, l.Check("u1"))
}

func TestRateLimiterHourlyWindow(t *testing.T) {
	l, now := newTestLimiter(t)

	// 每小时上限2次：t0和t0+10min各记录一次
	require.NoError(t, l.Record("u1"))
	*now = now.Add(10 * time.Minute)
	require.NoError(t, l.Record("u1"))

	// t0+20min检查：冷却期已过但窗口内已有2条，等最早一条滑出还需40分钟
	*now = now.Add(10 * time.Minute)
	err := l.Check("u1")

	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, ReasonHourlyLimit, rle.Reason)
	assert.Equal(t, 2400, rle.RetryAfterSec)

	// t0+61min：最早一条已滑出窗口
	*now = now.Add(41 * time.Minute)
	assert.NoError(t, l.Check("u1"))
}

func TestRateLimiterDailyCap(t *testing.T) {
	l, now := newTestLimiter(t)

	// 间隔31分钟记录5次，小时窗口内始终不超过2条
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Record("u1"))
		*now = now.Add(31 * time.Minute)
	}

	err := l.Check("u1")

	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, ReasonDailyLimit, rle.Reason)
	// 日配额不给出重试时间，需等自然重置
	assert.Equal(t, 0, rle.RetryAfterSec)

	// 24小时滚动重置后放行
	*now = now.Add(25 * time.Hour)
	assert.NoError(t, l.Check("u1"))
}

func TestRateLimiterCheckDoesNotConsume(t *testing.T) {
	l, now := newTestLimiter(t)

	require.NoError(t, l.Record("u1"))
	*now = now.Add(6 * time.Minute)

	// 连续检查多次不消耗配额
	for i := 0; i < 10; i++ {
		assert.NoError(t, l.Check("u1"))
	}

	status, err := l.Status("u1")
	require.NoError(t, err)
	assert.Equal(t, 1, status.HourlyUsed)
	assert.Equal(t, 1, status.DailyUsed)
}

func TestRateLimiterUsersIndependent(t *testing.T) {
	l, now := newTestLimiter(t)

	require.NoError(t, l.Record("u1"))
	*now = now.Add(time.Minute)

	// u1冷却中，u2不受影响
	assert.Error(t, l.Check("u1"))
	assert.NoError(t, l.Check("u2"))
}

func TestRateLimiterStoreFailureAllows(t *testing.T) {
	l, _ := newTestLimiter(t)
	l.store = &failingStore{err: errors.New("connection refused")}

	// 存储故障时放行，限流器失效不阻断业务
	assert.NoError(t, l.Check("u1"))
}

func TestRateLimiterStatus(t *testing.T) {
	l, now := newTestLimiter(t)

	status, err := l.Status("fresh")
	require.NoError(t, err)
	assert.Equal(t, 0, status.HourlyUsed)
	assert.Equal(t, 0, status.DailyUsed)
	assert.Equal(t, 2, status.HourlyLimit)
	assert.Equal(t, 5, status.DailyLimit)
	assert.False(t, status.InCooldown)

	require.NoError(t, l.Record("u1"))
	*now = now.Add(time.Minute)

	status, err = l.Status("u1")
	require.NoError(t, err)
	assert.Equal(t, 1, status.HourlyUsed)
	assert.Equal(t, 1, status.DailyUsed)
	assert.True(t, status.InCooldown)
	assert.Equal(t, 240, status.RetryAfterSec)
}

func TestRateLimiterPruneStale(t *testing.T) {
	l, now := newTestLimiter(t)

	require.NoError(t, l.Record("old"))
	*now = now.Add(49 * time.Hour)
	require.NoError(t, l.Record("active"))

	removed, err := l.PruneStale()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	// 活跃用户的状态保留
	status, err := l.Status("active")
	require.NoError(t, err)
	assert.Equal(t, 1, status.DailyUsed)
}

// failingStore 所有操作都返回固定错误的存储桩
type failingStore struct {
	err error
}

func (s *failingStore) Get(string) (string, bool, error) { return "", false, s.err }
func (s *failingStore) Set(string, string) error         { return s.err }
func (s *failingStore) Delete(string) error              { return s.err }
func (s *failingStore) Keys(string) ([]string, error)    { return nil, s.err }
