package models

// GenerateRequest 推荐生成请求体
type GenerateRequest struct {
	Books        []RatedBook `json:"books"`                   // 用户的已评分书籍列表
	UserContext  string      `json:"user_context,omitempty"`  // 可选的用户简介，拼入提示词
	ForceRefresh bool        `json:"force_refresh,omitempty"` // 跳过缓存查询，成功后仍写缓存
}

// APIResponse 通用API响应
type APIResponse struct {
	Code    int         `json:"code" example:"0"`
	Message string      `json:"message" example:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// RateLimitStatusResponse 限流状态响应
type RateLimitStatusResponse struct {
	HourlyUsed    int  `json:"hourly_used" example:"1"`
	HourlyLimit   int  `json:"hourly_limit" example:"2"`
	DailyUsed     int  `json:"daily_used" example:"3"`
	DailyLimit    int  `json:"daily_limit" example:"5"`
	InCooldown    bool `json:"in_cooldown" example:"false"`
	RetryAfterSec int  `json:"retry_after_sec,omitempty" example:"0"`
}

// RecommendationResponse 推荐内容响应
type RecommendationResponse struct {
	Code    int              `json:"code" example:"0"`
	Message string           `json:"message" example:"success"`
	Data    []Recommendation `json:"data"`
}
