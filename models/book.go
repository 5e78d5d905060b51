package models

// RatedBook 用户书架上的已评分书籍，由调用方提供，作为画像分析的输入
type RatedBook struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	Author            string `json:"author"`
	Genre             string `json:"genre,omitempty"`
	Rating            int    `json:"rating"` // 评分，1-5
	Review            string `json:"review,omitempty"`
	FavoriteCharacter string `json:"favorite_character,omitempty"`
	MemorableMoments  string `json:"memorable_moments,omitempty"`
}

// Eligible 判断书籍是否计入画像：只有评分>=4的书才参与统计
func (b *RatedBook) Eligible() bool {
	return b.Rating >= 4
}

// CatalogBook 兜底推荐使用的内置候选书目条目
type CatalogBook struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
	Reason string `json:"reason"`
}
