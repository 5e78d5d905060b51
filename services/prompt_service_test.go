package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai_book_recommend/config"
	"ai_book_recommend/models"
)

func newTestConfig() *config.Config {
	var cfg config.Config
	cfg.ApplyDefaults()
	return &cfg
}

func longText(n int) string {
	return strings.Repeat("a", n)
}

func makeProfileWithBooks(count, reviewLen int) *models.ReadingProfile {
	books := make([]models.RatedBook, 0, count)
	for i := 0; i < count; i++ {
		books = append(books, models.RatedBook{
			ID:     int64(i + 1),
			Title:  fmt.Sprintf("Book %02d", i+1),
			Author: "Author",
			Genre:  "Fantasy",
			Rating: 5,
			Review: longText(reviewLen),
		})
	}
	return &models.ReadingProfile{
		TotalBooks:       count,
		AverageRating:    5.0,
		FavoriteGenres:   []string{"Fantasy"},
		FavoriteAuthors:  []string{"Author"},
		HighlyRatedBooks: books,
	}
}

func TestBuildRecommendationPromptBudgetNeverExceeded(t *testing.T) {
	cfg := newTestConfig()
	cfg.Prompt.MaxTokens = 500

	profile := makeProfileWithBooks(30, 300)
	result := BuildRecommendationPrompt(cfg, profile, longText(500))

	assert.LessOrEqual(t, result.EstimatedTokens, cfg.Prompt.MaxTokens)
	// 固定指令块无条件存在
	assert.Contains(t, result.Prompt, "JSON数组")
}

func TestBuildRecommendationPromptGreedyStop(t *testing.T) {
	cfg := newTestConfig()
	cfg.Prompt.MaxTokens = 500

	profile := makeProfileWithBooks(30, 300)
	result := BuildRecommendationPrompt(cfg, profile, "")

	// 预算不足以放下全部30本，第一本在、最后一本不在
	assert.Contains(t, result.Prompt, "Book 01")
	assert.NotContains(t, result.Prompt, "Book 30")

	// 已到预算的画像再追加一本书，输出不变（贪心停止成立）
	more := makeProfileWithBooks(31, 300)
	result2 := BuildRecommendationPrompt(cfg, more, "")
	assert.Equal(t, result.Prompt, result2.Prompt)
	assert.Equal(t, result.EstimatedTokens, result2.EstimatedTokens)
}

func TestBuildRecommendationPromptFieldTruncation(t *testing.T) {
	cfg := newTestConfig()

	profile := &models.ReadingProfile{
		TotalBooks:    1,
		AverageRating: 5.0,
		HighlyRatedBooks: []models.RatedBook{
			{
				ID: 1, Title: "T", Author: "A", Rating: 5,
				Review:            longText(cfg.Prompt.MaxFieldChars + 100),
				FavoriteCharacter: longText(cfg.Prompt.MaxFieldChars + 50),
			},
		},
	}

	result := BuildRecommendationPrompt(cfg, profile, "")

	// 两个字段各自独立截断并带省略号标记
	truncated := longText(cfg.Prompt.MaxFieldChars) + "..."
	assert.Contains(t, result.Prompt, "书评："+truncated)
	assert.Contains(t, result.Prompt, "最爱角色："+truncated)
	assert.NotContains(t, result.Prompt, longText(cfg.Prompt.MaxFieldChars+1))
}

func TestBuildRecommendationPromptSectionOrder(t *testing.T) {
	cfg := newTestConfig()

	profile := &models.ReadingProfile{
		TotalBooks:      2,
		AverageRating:   4.5,
		FavoriteGenres:  []string{"Fantasy"},
		FavoriteAuthors: []string{"Brandon Sanderson"},
		ReadingThemes:   []string{"adventure"},
		HighlyRatedBooks: []models.RatedBook{
			{ID: 1, Title: "Mistborn", Author: "Brandon Sanderson", Rating: 5},
		},
	}

	result := BuildRecommendationPrompt(cfg, profile, "我喜欢史诗奇幻")

	prompt := result.Prompt
	idxSummary := strings.Index(prompt, "读者画像")
	idxGenres := strings.Index(prompt, "偏好体裁")
	idxAuthors := strings.Index(prompt, "偏好作者")
	idxThemes := strings.Index(prompt, "阅读主题")
	idxBooks := strings.Index(prompt, "读过的高分书")
	idxBio := strings.Index(prompt, "读者自述：")

	require.True(t, idxSummary >= 0 && idxGenres > 0 && idxAuthors > 0 && idxThemes > 0 && idxBooks > 0 && idxBio > 0)
	assert.True(t, idxSummary < idxGenres)
	assert.True(t, idxGenres < idxAuthors)
	assert.True(t, idxAuthors < idxThemes)
	assert.True(t, idxThemes < idxBooks)
	assert.True(t, idxBooks < idxBio)
}

func TestBuildRecommendationPromptTinyBudgetKeepsInstructions(t *testing.T) {
	cfg := newTestConfig()
	cfg.Prompt.MaxTokens = 1

	profile := makeProfileWithBooks(3, 100)
	result := BuildRecommendationPrompt(cfg, profile, "bio")

	// 预算再小固定指令块也在，且预算部分不超限
	assert.Contains(t, result.Prompt, "JSON数组")
	assert.LessOrEqual(t, result.EstimatedTokens, 1)
}

func TestEstimateCost(t *testing.T) {
	cfg := newTestConfig()
	cfg.Prompt.InputPricePerMTok = 4.0
	cfg.Prompt.OutputPricePerMTok = 16.0
	cfg.Prompt.AssumedOutputTokens = 1000

	cost := estimateCost(cfg, 1000)

	// 1000输入token*4元/M + 1000输出token*16元/M = 0.004 + 0.016
	assert.InDelta(t, 0.02, cost, 1e-9)
}
