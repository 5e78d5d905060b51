package services

import (
	"math"
	"sort"
	"strings"

	"ai_book_recommend/models"
)

// 主题关键词表，从难忘片段中做大小写不敏感的子串匹配
var themeKeywords = []string{
	"adventure", "friendship", "love", "mystery", "courage", "family", "growth",
}

const (
	maxFavoriteGenres  = 5
	maxFavoriteAuthors = 5
	maxHighlyRated     = 10
	maxReadingThemes   = 5
)

// BuildReadingProfile 从已评分书籍中提炼阅读画像
// 纯函数，无I/O无错误路径：空输入或全部不合格时返回零值画像
// 只统计评分>=4的书；调用方应已剔除仅在愿望清单中的书，这里再做一次评分过滤兜底
func BuildReadingProfile(books []models.RatedBook) *models.ReadingProfile {
	profile := &models.ReadingProfile{
		FavoriteGenres:   []string{},
		FavoriteAuthors:  []string{},
		HighlyRatedBooks: []models.RatedBook{},
		ReadingThemes:    []string{},
	}

	eligible := make([]models.RatedBook, 0, len(books))
	for _, b := range books {
		if b.Eligible() {
			eligible = append(eligible, b)
		}
	}
	if len(eligible) == 0 {
		return profile
	}

	profile.TotalBooks = len(eligible)

	// 平均评分，保留一位小数
	sum := 0
	for _, b := range eligible {
		sum += b.Rating
	}
	profile.AverageRating = math.Round(float64(sum)/float64(len(eligible))*10) / 10

	// 体裁和作者按出现频次取前N，频次相同按首次出现顺序
	profile.FavoriteGenres = topByFrequency(eligible, maxFavoriteGenres, func(b models.RatedBook) string { return b.Genre })
	profile.FavoriteAuthors = topByFrequency(eligible, maxFavoriteAuthors, func(b models.RatedBook) string { return b.Author })

	// 高分书按评分降序，评分相同保持输入顺序，最多10本
	highlyRated := make([]models.RatedBook, len(eligible))
	copy(highlyRated, eligible)
	sort.SliceStable(highlyRated, func(i, j int) bool {
		return highlyRated[i].Rating > highlyRated[j].Rating
	})
	if len(highlyRated) > maxHighlyRated {
		highlyRated = highlyRated[:maxHighlyRated]
	}
	profile.HighlyRatedBooks = highlyRated

	profile.ReadingThemes = extractThemes(eligible)

	return profile
}

// topByFrequency 统计字段出现频次并取前limit个，空值不计入任何桶
func topByFrequency(books []models.RatedBook, limit int, field func(models.RatedBook) string) []string {
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, b := range books {
		v := field(b)
		if v == "" {
			continue
		}
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}

	// order本身是首次出现顺序，稳定排序后频次相同的保持该顺序
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

// extractThemes 扫描难忘片段，按首次出现顺序提取主题词，最多5个
func extractThemes(books []models.RatedBook) []string {
	themes := make([]string, 0, maxReadingThemes)
	seen := make(map[string]bool)

	for _, b := range books {
		if b.MemorableMoments == "" {
			continue
		}
		text := strings.ToLower(b.MemorableMoments)
		for _, kw := range themeKeywords {
			if seen[kw] || !strings.Contains(text, kw) {
				continue
			}
			themes = append(themes, kw)
			seen[kw] = true
			if len(themes) >= maxReadingThemes {
				return themes
			}
		}
	}
	return themes
}
