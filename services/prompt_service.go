package services

import (
	"fmt"
	"strings"

	"ai_book_recommend/config"
	"ai_book_recommend/models"
	"ai_book_recommend/utils"
)

// PromptResult 提示词构建结果
type PromptResult struct {
	Prompt          string  // 完整提示词，含不计入预算的固定指令块
	EstimatedTokens int     // 受预算约束部分（画像+书目+用户自述）的token估算
	EstimatedCost   float64 // 按定价表估算的本次调用成本
}

// 固定的生成指令块，无条件追加，不计入token预算
const promptInstructions = `
请为这位读者推荐10本书。要求：
1. 面向热爱阅读的普通读者
2. 推荐的书籍之间体裁尽量多样，不要全部集中在同一类
3. 不要推荐上述书单中已出现的书
4. 每本书给出简短的推荐理由
5. 严格以JSON数组格式返回，不要输出其他内容：
[{"title": "书名", "author": "作者", "reason": "推荐理由"}]`

// BuildRecommendationPrompt 从阅读画像构建推荐请求提示词
// 各部分按固定顺序拼接，受token预算约束的内容采用贪心追加：
// 书目循环遇到第一本放不下的书即停止，即使后面的书单独能放下也不再尝试
func BuildRecommendationPrompt(cfg *config.Config, profile *models.ReadingProfile, userContext string) *PromptResult {
	maxTokens := cfg.Prompt.MaxTokens
	maxFieldChars := cfg.Prompt.MaxFieldChars

	var sb strings.Builder
	budgetUsed := 0

	// appendIfFits 在预算内追加一段文本，返回是否成功
	appendIfFits := func(text string) bool {
		t := utils.EstimateTokens(text)
		if budgetUsed+t > maxTokens {
			return false
		}
		sb.WriteString(text)
		budgetUsed += t
		return true
	}

	// 画像摘要
	appendIfFits(fmt.Sprintf("读者画像：共读过%d本高分书，平均评分%.1f分。\n",
		profile.TotalBooks, profile.AverageRating))

	// 用户自述提示（自述正文在最后）
	if userContext != "" {
		appendIfFits("请结合文末的读者自述进行推荐。\n")
	}

	// 画像来自调用方时体裁和作者可能带重复项，拼接前去重
	if genres := utils.DeduplicateSlice(profile.FavoriteGenres); len(genres) > 0 {
		appendIfFits(fmt.Sprintf("偏好体裁：%s\n", strings.Join(genres, "、")))
	}
	if authors := utils.DeduplicateSlice(profile.FavoriteAuthors); len(authors) > 0 {
		appendIfFits(fmt.Sprintf("偏好作者：%s\n", strings.Join(authors, "、")))
	}
	if len(profile.ReadingThemes) > 0 {
		appendIfFits(fmt.Sprintf("阅读主题：%s\n", strings.Join(profile.ReadingThemes, "、")))
	}

	// 高分书目，贪心追加：第一本放不下就停止
	if len(profile.HighlyRatedBooks) > 0 {
		appendIfFits("读过的高分书：\n")
		for _, b := range profile.HighlyRatedBooks {
			if !appendIfFits(formatBookEntry(&b, maxFieldChars)) {
				break
			}
		}
	}

	// 读者自述放在最后，放不下则整段省略
	if userContext != "" {
		appendIfFits(fmt.Sprintf("读者自述：%s\n", userContext))
	}

	// 固定指令块无条件追加，不受预算约束
	sb.WriteString(promptInstructions)

	cost := estimateCost(cfg, budgetUsed)

	return &PromptResult{
		Prompt:          sb.String(),
		EstimatedTokens: budgetUsed,
		EstimatedCost:   cost,
	}
}

// formatBookEntry 格式化单本书的条目，书评和最爱角色各自独立截断
func formatBookEntry(b *models.RatedBook, maxFieldChars int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("- 《%s》", b.Title))
	if b.Author != "" {
		sb.WriteString(fmt.Sprintf(" %s", b.Author))
	}
	if b.Genre != "" {
		sb.WriteString(fmt.Sprintf(" [%s]", b.Genre))
	}
	sb.WriteString(fmt.Sprintf(" 评分%d/5\n", b.Rating))

	if b.Review != "" {
		sb.WriteString(fmt.Sprintf("  书评：%s\n", utils.TruncateWithEllipsis(b.Review, maxFieldChars)))
	}
	if b.FavoriteCharacter != "" {
		sb.WriteString(fmt.Sprintf("  最爱角色：%s\n", utils.TruncateWithEllipsis(b.FavoriteCharacter, maxFieldChars)))
	}

	return sb.String()
}

// estimateCost 按定价表估算成本：输入token按实际估算，输出token按假定值
func estimateCost(cfg *config.Config, inputTokens int) float64 {
	inCost := float64(inputTokens) / 1_000_000 * cfg.Prompt.InputPricePerMTok
	outCost := float64(cfg.Prompt.AssumedOutputTokens) / 1_000_000 * cfg.Prompt.OutputPricePerMTok
	return inCost + outCost
}
