package models

import "time"

// 推荐结果来源
const (
	SourceAI       = "ai"       // 外部大模型生成
	SourceFallback = "fallback" // 本地候选书目兜底生成
	SourceCache    = "cache"    // 命中缓存
)

// Recommendation 单条书籍推荐
type Recommendation struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Reason string `json:"reason,omitempty"` // 推荐理由
	Score  int    `json:"score"`            // 推荐分，0-100
	Source string `json:"source"`           // ai / fallback
}

// GenerateResult 一次推荐生成的完整结果
type GenerateResult struct {
	Recommendations []Recommendation `json:"recommendations"`
	Source          string           `json:"source"` // ai / fallback / cache
	PromptTokens    int              `json:"prompt_tokens,omitempty"`
	EstimatedCost   float64          `json:"estimated_cost,omitempty"`
}

// CacheEntry 推荐缓存条目，有效期从创建时刻起算
type CacheEntry struct {
	Recommendations []Recommendation `json:"recommendations"`
	Source          string           `json:"source"`
	CreatedAt       time.Time        `json:"created_at"`
}
