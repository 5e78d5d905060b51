package services

import (
	"context"

	"ai_book_recommend/repository"
)

// LLMCaller 外部文本生成服务的抽象，测试中可替换为桩实现
type LLMCaller interface {
	// 提交提示词，返回文本补全和token用量；失败返回错误，由调用方降级
	GenerateCompletion(ctx context.Context, prompt string) (string, *TokenUsage, error)
}

// UsageRecorder 用量追踪落库的抽象
// 每次真实生成后写入一条记录；命中缓存时给原记录的复用计数加一
// 写入失败不影响推荐结果的返回
type UsageRecorder interface {
	SaveGeneration(rec *repository.GenerationRecord) (string, error)
	IncrementReuse(uid string) error
}

// DBUsageRecorder 基于MySQL的用量记录实现
type DBUsageRecorder struct{}

func (r *DBUsageRecorder) SaveGeneration(rec *repository.GenerationRecord) (string, error) {
	return repository.SaveGenerationRecord(rec)
}

func (r *DBUsageRecorder) IncrementReuse(uid string) error {
	return repository.IncrementReuseCount(uid)
}
