package models

import "time"

// RateLimitState 单个用户的限流状态，按用户ID存入KV存储
// 首次检查时惰性创建，随时间窗口滑动自然衰减，不需要显式销毁
type RateLimitState struct {
	Timestamps  []time.Time `json:"timestamps"`   // 最近一小时内的生成请求时间，按时间升序
	DailyCount  int         `json:"daily_count"`  // 当前24小时周期内的生成次数
	LastReset   time.Time   `json:"last_reset"`   // 日计数上次重置时间
	LastRequest time.Time   `json:"last_request"` // 最近一次生成请求时间
}
