package models

import "fmt"

// ReadingProfile 从已评分书籍中提炼的阅读画像，由分析器派生，不落库
type ReadingProfile struct {
	TotalBooks       int         `json:"total_books"`                  // 计入画像的书籍数（评分>=4）
	AverageRating    float64     `json:"average_rating"`               // 平均评分，保留一位小数
	FavoriteGenres   []string    `json:"favorite_genres,omitempty"`    // 按出现频次取前5，频次相同按首次出现顺序
	FavoriteAuthors  []string    `json:"favorite_authors,omitempty"`   // 同上
	HighlyRatedBooks []RatedBook `json:"highly_rated_books,omitempty"` // 最多10本，按评分降序，评分相同保持输入顺序
	ReadingThemes    []string    `json:"reading_themes,omitempty"`     // 从难忘片段中识别的主题词，最多5个
}

// Summary 返回画像的一行摘要，用于用量记录和日志
func (p *ReadingProfile) Summary() string {
	return fmt.Sprintf("books=%d avg=%.1f genres=%v authors=%v themes=%v",
		p.TotalBooks, p.AverageRating, p.FavoriteGenres, p.FavoriteAuthors, p.ReadingThemes)
}
