package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"ai_book_recommend/config"
	"ai_book_recommend/logger"
	"ai_book_recommend/models"
	"ai_book_recommend/store"
)

// 限流拒绝原因
const (
	ReasonCooldown    = "cooldown"     // 冷却期内
	ReasonHourlyLimit = "hourly_limit" // 小时配额用尽
	ReasonDailyLimit  = "daily_limit"  // 当日配额用尽
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimitError 限流拒绝，带机器可读原因和可计算时的重试等待秒数
type RateLimitError struct {
	Reason        string // cooldown / hourly_limit / daily_limit
	Message       string
	RetryAfterSec int // 0表示无法给出等待时间（日配额需等自然重置）
}

func (e *RateLimitError) Error() string {
	if e.RetryAfterSec > 0 {
		return fmt.Sprintf("%s: %s (retry after %ds)", e.Reason, e.Message, e.RetryAfterSec)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// RateLimiter 按用户的推荐生成限流器
// 三道闸门依次检查：冷却期、小时滑动窗口、日配额
// Check和Record分离：命中缓存的请求通过检查但不消耗配额
type RateLimiter struct {
	store       store.Store
	maxPerHour  int
	maxPerDay   int
	cooldown    time.Duration
	dailyWindow time.Duration

	// 串行化check-then-record，避免并发请求同时通过同一窗口
	mu sync.Mutex

	// nowFunc 允许测试注入时钟
	nowFunc func() time.Time
}

// NewRateLimiter 创建限流器，阈值来自配置
func NewRateLimiter(st store.Store, cfg *config.Config) *RateLimiter {
	return &RateLimiter{
		store:       st,
		maxPerHour:  cfg.RateLimit.MaxPerHour,
		maxPerDay:   cfg.RateLimit.MaxPerDay,
		cooldown:    time.Duration(cfg.RateLimit.CooldownSec) * time.Second,
		dailyWindow: 24 * time.Hour,
		nowFunc:     time.Now,
	}
}

// Check 检查用户是否允许发起一次生成，不消耗配额
// 拒绝时返回*RateLimitError，存储读取失败时放行（限流器故障不应阻断业务）
func (l *RateLimiter) Check(uid string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.loadState(uid)
	if err != nil {
		logger.Warn("读取限流状态失败，放行本次请求", "uid", uid, "error", err)
		return nil
	}
	if state == nil {
		// 首次请求，无状态即放行
		return nil
	}

	now := l.nowFunc()

	// 1. 冷却期：距上次请求不足最小间隔
	if !state.LastRequest.IsZero() {
		elapsed := now.Sub(state.LastRequest)
		if elapsed < l.cooldown {
			remaining := int((l.cooldown - elapsed + time.Second - 1) / time.Second)
			return &RateLimitError{
				Reason:        ReasonCooldown,
				Message:       "距离上次生成间隔过短",
				RetryAfterSec: remaining,
			}
		}
	}

	// 2. 小时配额：滑动窗口内的请求数
	inWindow := timestampsInWindow(state.Timestamps, now)
	if len(inWindow) >= l.maxPerHour {
		// 等最早的一条滑出窗口
		oldest := inWindow[0]
		retryAfter := int((oldest.Add(time.Hour).Sub(now) + time.Second - 1) / time.Second)
		if retryAfter < 1 {
			retryAfter = 1
		}
		return &RateLimitError{
			Reason:        ReasonHourlyLimit,
			Message:       fmt.Sprintf("每小时最多生成%d次", l.maxPerHour),
			RetryAfterSec: retryAfter,
		}
	}

	// 3. 日配额：24小时滚动重置后的计数
	// 日配额拒绝不给出重试时间，需等待自然重置
	dailyCount := state.DailyCount
	if now.Sub(state.LastReset) > l.dailyWindow {
		dailyCount = 0
	}
	if dailyCount >= l.maxPerDay {
		return &RateLimitError{
			Reason:  ReasonDailyLimit,
			Message: fmt.Sprintf("每天最多生成%d次", l.maxPerDay),
		}
	}

	return nil
}

// Record 记录一次实际发生的生成：追加时间戳、裁剪窗口外记录、累加日计数
// 只在真正触发了生成（非缓存命中）后调用
func (l *RateLimiter) Record(uid string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.loadState(uid)
	if err != nil {
		return err
	}
	if state == nil {
		state = &models.RateLimitState{}
	}

	now := l.nowFunc()

	// 日计数重置检查先于累加
	if state.LastReset.IsZero() || now.Sub(state.LastReset) > l.dailyWindow {
		state.DailyCount = 0
		state.LastReset = now
	}

	state.Timestamps = append(state.Timestamps, now)
	state.Timestamps = timestampsInWindow(state.Timestamps, now)
	state.DailyCount++
	state.LastRequest = now

	return l.saveState(uid, state)
}

// Status 返回用户当前的限流状态，供状态查询接口使用
func (l *RateLimiter) Status(uid string) (*models.RateLimitStatusResponse, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	resp := &models.RateLimitStatusResponse{
		HourlyLimit: l.maxPerHour,
		DailyLimit:  l.maxPerDay,
	}

	state, err := l.loadState(uid)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return resp, nil
	}

	now := l.nowFunc()
	resp.HourlyUsed = len(timestampsInWindow(state.Timestamps, now))

	if now.Sub(state.LastReset) <= l.dailyWindow {
		resp.DailyUsed = state.DailyCount
	}

	if !state.LastRequest.IsZero() {
		if elapsed := now.Sub(state.LastRequest); elapsed < l.cooldown {
			resp.InCooldown = true
			resp.RetryAfterSec = int((l.cooldown - elapsed + time.Second - 1) / time.Second)
		}
	}

	return resp, nil
}

// PruneStale 清理长期无活动用户的限流状态，返回删除数量，供定时任务调用
// 日配额窗口是24小时，留出余量后超过48小时无请求的状态可以安全删除
func (l *RateLimiter) PruneStale() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	keys, err := l.store.Keys(rateLimitKeyPrefix)
	if err != nil {
		return 0, err
	}

	removed := 0
	cutoff := l.nowFunc().Add(-48 * time.Hour)
	for _, key := range keys {
		raw, ok, err := l.store.Get(key)
		if err != nil || !ok {
			continue
		}

		var state models.RateLimitState
		if err := json.Unmarshal([]byte(raw), &state); err != nil || state.LastRequest.Before(cutoff) {
			if err := l.store.Delete(key); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// timestampsInWindow 返回最近一小时内的时间戳，保持原有升序
func timestampsInWindow(timestamps []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-time.Hour)
	result := make([]time.Time, 0, len(timestamps))
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			result = append(result, ts)
		}
	}
	return result
}

func (l *RateLimiter) loadState(uid string) (*models.RateLimitState, error) {
	raw, ok, err := l.store.Get(rateLimitKeyPrefix + uid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var state models.RateLimitState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (l *RateLimiter) saveState(uid string, state *models.RateLimitState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return l.store.Set(rateLimitKeyPrefix+uid, string(raw))
}
