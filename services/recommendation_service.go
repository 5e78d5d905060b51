package services

import (
	"context"
	"sort"

	"ai_book_recommend/config"
	"ai_book_recommend/logger"
	"ai_book_recommend/models"
	"ai_book_recommend/repository"
	"ai_book_recommend/store"
	"ai_book_recommend/utils"
)

const maxAIRecommendations = 10

// 提供方来源的推荐打分：基础分85，位次靠前加分多
const (
	aiBaseScore       = 85
	aiPositionalBonus = 10 // 首位加10，逐位递减到0
	aiSignalBonus     = 5  // 推荐理由中出现偏好体裁或作者，每个加5
)

// RecommendationService 推荐生成调度器
// 串起完整链路：限流检查 → 缓存查询 → 提示词构建 → 大模型调用 →
// 响应解析打分 → 缓存写入 → 限流记录 → 用量落库
type RecommendationService struct {
	cfg      *config.Config
	limiter  *RateLimiter
	cache    *RecommendationCache
	llm      LLMCaller
	fallback *FallbackRecommender
	usage    UsageRecorder
}

// NewRecommendationService 创建调度器
// usage可为nil（不落库）；llm可为nil（始终走兜底，用于演示和降级开关）
func NewRecommendationService(cfg *config.Config, st store.Store, llm LLMCaller, usage UsageRecorder) *RecommendationService {
	return &RecommendationService{
		cfg:      cfg,
		limiter:  NewRateLimiter(st, cfg),
		cache:    NewRecommendationCache(st, cfg),
		llm:      llm,
		fallback: NewDefaultFallbackRecommender(),
		usage:    usage,
	}
}

// Limiter 返回内部限流器，供状态查询接口使用
func (s *RecommendationService) Limiter() *RateLimiter {
	return s.limiter
}

// Cache 返回内部缓存，供清理任务使用
func (s *RecommendationService) Cache() *RecommendationCache {
	return s.cache
}

// Generate 为用户生成一组书籍推荐
// 只有限流拒绝和调用方取消会以错误返回；大模型的任何失败都降级为兜底推荐，
// 调用方总能拿到结果或一条明确的限流消息
func (s *RecommendationService) Generate(ctx context.Context, uid string, books []models.RatedBook, userContext string, forceRefresh bool) (*models.GenerateResult, error) {
	// 1. 限流检查，拒绝时直接返回原因和等待时间，不触发生成
	if uid != "" {
		if err := s.limiter.Check(uid); err != nil {
			logger.Info("限流拒绝推荐生成", "uid", uid, "error", err)
			return nil, err
		}
	}

	// 2. 计算画像和内容哈希，查缓存；命中时不消耗限流配额
	profile := BuildReadingProfile(books)
	hash := ContentHash(books)

	if !forceRefresh {
		if entry, ok := s.cache.Lookup(uid, hash); ok {
			logger.Info("命中推荐缓存", "uid", uid, "hash", hash, "count", len(entry.Recommendations))
			if s.usage != nil && uid != "" {
				if err := s.usage.IncrementReuse(uid); err != nil {
					logger.Warn("更新缓存复用计数失败", "uid", uid, "error", err)
				}
			}
			return &models.GenerateResult{
				Recommendations: entry.Recommendations,
				Source:          models.SourceCache,
			}, nil
		}
	}

	// 3. 构建受预算约束的提示词
	promptResult := BuildRecommendationPrompt(s.cfg, profile, userContext)
	logger.Info("提示词构建完成",
		"uid", uid,
		"tokens", promptResult.EstimatedTokens,
		"estimated_cost", promptResult.EstimatedCost)

	// 4-6. 调用大模型；失败则降级兜底；调用方取消则不产出结果
	recommendations, source, tokenUsage := s.generateWithFallback(ctx, profile, books, promptResult.Prompt)
	if err := ctx.Err(); err != nil {
		// 请求已被放弃：不写缓存、不记配额、不落用量
		logger.Info("请求被调用方取消，丢弃生成结果", "uid", uid)
		return nil, err
	}

	// 7. 写缓存、记限流配额、落用量，三者失败都不影响返回结果
	if err := s.cache.Save(uid, hash, recommendations, source); err != nil {
		logger.Warn("写入推荐缓存失败", "uid", uid, "error", err)
	}
	if uid != "" {
		if err := s.limiter.Record(uid); err != nil {
			logger.Warn("记录限流状态失败", "uid", uid, "error", err)
		}
	}
	s.recordUsage(uid, profile, promptResult, tokenUsage, recommendations)

	return &models.GenerateResult{
		Recommendations: recommendations,
		Source:          source,
		PromptTokens:    promptResult.EstimatedTokens,
		EstimatedCost:   promptResult.EstimatedCost,
	}, nil
}

// generateWithFallback 调用大模型并解析打分，任何一步失败都转入兜底推荐
// 提供方成功时一并返回实际token用量，兜底路径用量为nil
func (s *RecommendationService) generateWithFallback(ctx context.Context, profile *models.ReadingProfile, books []models.RatedBook, prompt string) ([]models.Recommendation, string, *TokenUsage) {
	if s.llm == nil {
		logger.Info("未配置大模型客户端，使用兜底推荐")
		return s.fallback.Recommend(profile, books), models.SourceFallback, nil
	}

	content, usage, err := s.llm.GenerateCompletion(ctx, prompt)
	if err != nil {
		logger.Warn("大模型调用失败，降级到兜底推荐", "error", err)
		return s.fallback.Recommend(profile, books), models.SourceFallback, nil
	}

	items, err := ParseRecommendationList(content)
	if err != nil {
		logger.Warn("大模型返回内容解析失败，降级到兜底推荐", "error", err)
		return s.fallback.Recommend(profile, books), models.SourceFallback, nil
	}

	items = items[:utils.Min(len(items), maxAIRecommendations)]

	return scoreAIRecommendations(items, profile), models.SourceAI, usage
}

// scoreAIRecommendations 给大模型产出的推荐打分并降序排列
// 基础分85 + 位次加分（越靠前越高）+ 理由中提到偏好体裁/作者每个加5，
// 最终限制在[0,100]；分数相同保持生成顺序
func scoreAIRecommendations(items []parsedRecommendation, profile *models.ReadingProfile) []models.Recommendation {
	recs := make([]models.Recommendation, 0, len(items))

	for i, item := range items {
		score := aiBaseScore

		bonus := aiPositionalBonus - i
		if bonus > 0 {
			score += bonus
		}

		for _, g := range profile.FavoriteGenres {
			if utils.ContainsFold(item.Reason, g) {
				score += aiSignalBonus
			}
		}
		for _, a := range profile.FavoriteAuthors {
			if utils.ContainsFold(item.Reason, a) {
				score += aiSignalBonus
			}
		}

		recs = append(recs, models.Recommendation{
			Title:  utils.FilterSpecialSymbols(item.Title),
			Author: utils.FilterSpecialSymbols(item.Author),
			Reason: utils.FilterSpecialSymbols(item.Reason),
			Score:  clampScore(score),
			Source: models.SourceAI,
		})
	}

	// 稳定排序：分数相同保持生成顺序
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	return recs
}

// recordUsage 把本次生成落入用量追踪，失败只记日志
// 提供方返回了实际用量时优先记录实际值，否则退回到估算值
func (s *RecommendationService) recordUsage(uid string, profile *models.ReadingProfile, promptResult *PromptResult, usage *TokenUsage, recommendations []models.Recommendation) {
	if s.usage == nil {
		return
	}

	promptTokens := promptResult.EstimatedTokens
	completionTokens := 0
	if usage != nil {
		if usage.PromptTokens > 0 {
			promptTokens = usage.PromptTokens
		}
		completionTokens = usage.CompletionTokens
	}

	_, err := s.usage.SaveGeneration(&repository.GenerationRecord{
		UID:              uid,
		ProfileSummary:   profile.Summary(),
		Prompt:           promptResult.Prompt,
		Model:            s.cfg.SiliconFlow.Model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		EstimatedCost:    promptResult.EstimatedCost,
		Recommendations:  recommendations,
		FromCache:        false,
	})
	if err != nil {
		logger.Warn("写入用量记录失败", "uid", uid, "error", err)
	}
}
