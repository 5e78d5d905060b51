package services

import (
	"math/rand"
	"sort"
	"strings"
	"time"

	"ai_book_recommend/models"
	"ai_book_recommend/utils"
)

const maxFallbackItems = 10

// defaultCatalog 兜底推荐的内置候选书目
// 大模型不可用时从这里按画像打分选书，保证用户总能拿到推荐
var defaultCatalog = []models.CatalogBook{
	{Title: "The Name of the Wind", Author: "Patrick Rothfuss", Genre: "Fantasy", Reason: "文笔优美的奇幻经典，主角成长线极具感染力"},
	{Title: "Mistborn: The Final Empire", Author: "Brandon Sanderson", Genre: "Fantasy", Reason: "设定严谨的魔法体系，节奏紧凑"},
	{Title: "The Night Circus", Author: "Erin Morgenstern", Genre: "Fantasy", Reason: "氛围梦幻的魔法竞赛故事"},
	{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", Reason: "科幻史诗的巅峰之作，世界观宏大"},
	{Title: "Project Hail Mary", Author: "Andy Weir", Genre: "Science Fiction", Reason: "硬核又幽默的太空求生故事"},
	{Title: "The Martian", Author: "Andy Weir", Genre: "Science Fiction", Reason: "火星版鲁滨逊漂流记，科学细节扎实"},
	{Title: "1984", Author: "George Orwell", Genre: "Dystopian", Reason: "反乌托邦文学的必读经典"},
	{Title: "The Handmaid's Tale", Author: "Margaret Atwood", Genre: "Dystopian", Reason: "冷峻有力的女性视角反乌托邦"},
	{Title: "Gone Girl", Author: "Gillian Flynn", Genre: "Thriller", Reason: "反转不断的心理惊悚"},
	{Title: "The Silent Patient", Author: "Alex Michaelides", Genre: "Thriller", Reason: "结尾反转令人拍案的心理悬疑"},
	{Title: "Murder on the Orient Express", Author: "Agatha Christie", Genre: "Mystery", Reason: "推理女王的代表作"},
	{Title: "The Da Vinci Code", Author: "Dan Brown", Genre: "Mystery", Reason: "节奏飞快的解谜冒险"},
	{Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Romance", Reason: "英式爱情小说的永恒经典"},
	{Title: "The Kite Runner", Author: "Khaled Hosseini", Genre: "Literary Fiction", Reason: "关于救赎与友情的动人故事"},
	{Title: "To Kill a Mockingbird", Author: "Harper Lee", Genre: "Literary Fiction", Reason: "直面偏见与正义的成长小说"},
	{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Genre: "Literary Fiction", Reason: "爵士时代的挽歌，篇幅短小精悍"},
	{Title: "Circe", Author: "Madeline Miller", Genre: "Historical Fiction", Reason: "希腊神话的女性重述，文字绮丽"},
	{Title: "Sapiens", Author: "Yuval Noah Harari", Genre: "History", Reason: "视角宏大的人类简史"},
	{Title: "Educated", Author: "Tara Westover", Genre: "Memoir", Reason: "震撼人心的自我教育回忆录"},
	{Title: "The Alchemist", Author: "Paulo Coelho", Genre: "Philosophy", Reason: "关于追寻梦想的寓言"},
}

// FallbackRecommender 本地候选书目兜底推荐器
// 大模型调用失败、返回格式异常或不可用时，对同一份画像产出确定性的推荐
type FallbackRecommender struct {
	catalog []models.CatalogBook
	rng     *rand.Rand
}

// NewFallbackRecommender 创建兜底推荐器，随机源可注入种子以便测试
func NewFallbackRecommender(seed int64) *FallbackRecommender {
	return &FallbackRecommender{
		catalog: defaultCatalog,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// NewDefaultFallbackRecommender 创建使用时间种子的兜底推荐器
func NewDefaultFallbackRecommender() *FallbackRecommender {
	return NewFallbackRecommender(time.Now().UnixNano())
}

// Recommend 按画像从候选书目中选书，优先级：
// 1. 排除用户已拥有的书（标题+作者，忽略大小写）
// 2. 有偏好体裁时按体裁+作者打分取前10（最高分>0才采用）
// 3. 否则有偏好作者时，作者匹配的书优先，补足到10本
// 4. 都没有时随机打乱取10本，分数在[50,70]内随机表示一般置信度
func (f *FallbackRecommender) Recommend(profile *models.ReadingProfile, owned []models.RatedBook) []models.Recommendation {
	candidates := f.excludeOwned(owned)

	if len(profile.FavoriteGenres) > 0 {
		if recs := f.scoreByGenres(candidates, profile); len(recs) > 0 {
			return recs
		}
	}

	if len(profile.FavoriteAuthors) > 0 {
		return f.pickByAuthors(candidates, profile)
	}

	return f.pickRandom(candidates)
}

// excludeOwned 剔除用户已拥有的书，标题和作者都匹配才算同一本
func (f *FallbackRecommender) excludeOwned(owned []models.RatedBook) []models.CatalogBook {
	ownedSet := make(map[string]bool, len(owned))
	for _, b := range owned {
		ownedSet[strings.ToLower(b.Title)+"|"+strings.ToLower(b.Author)] = true
	}

	candidates := make([]models.CatalogBook, 0, len(f.catalog))
	for _, c := range f.catalog {
		if !ownedSet[strings.ToLower(c.Title)+"|"+strings.ToLower(c.Author)] {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

// scoreByGenres 按体裁和作者匹配打分：体裁+10，作者+5，双向模糊匹配
// 最高分为0时返回空，让调用方走后续策略
func (f *FallbackRecommender) scoreByGenres(candidates []models.CatalogBook, profile *models.ReadingProfile) []models.Recommendation {
	type scored struct {
		book  models.CatalogBook
		score int
	}

	scoredList := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		score := 0
		for _, g := range profile.FavoriteGenres {
			if utils.MatchesFold(c.Genre, g) {
				score += 10
			}
		}
		for _, a := range profile.FavoriteAuthors {
			if utils.MatchesFold(c.Author, a) {
				score += 5
			}
		}
		scoredList = append(scoredList, scored{book: c, score: score})
	}

	sort.SliceStable(scoredList, func(i, j int) bool {
		return scoredList[i].score > scoredList[j].score
	})

	if len(scoredList) == 0 || scoredList[0].score <= 0 {
		return nil
	}

	if len(scoredList) > maxFallbackItems {
		scoredList = scoredList[:maxFallbackItems]
	}

	recs := make([]models.Recommendation, 0, len(scoredList))
	for _, s := range scoredList {
		recs = append(recs, models.Recommendation{
			Title:  s.book.Title,
			Author: s.book.Author,
			Reason: s.book.Reason,
			Score:  clampScore(s.score),
			Source: models.SourceFallback,
		})
	}
	return recs
}

// pickByAuthors 作者匹配的书优先（最多5本），其余随机补足到10本
// 作者匹配的分数高于补位书
func (f *FallbackRecommender) pickByAuthors(candidates []models.CatalogBook, profile *models.ReadingProfile) []models.Recommendation {
	matched := make([]models.CatalogBook, 0)
	rest := make([]models.CatalogBook, 0)

	for _, c := range candidates {
		isMatch := false
		for _, a := range profile.FavoriteAuthors {
			if utils.MatchesFold(c.Author, a) {
				isMatch = true
				break
			}
		}
		if isMatch && len(matched) < 5 {
			matched = append(matched, c)
		} else {
			rest = append(rest, c)
		}
	}

	recs := make([]models.Recommendation, 0, maxFallbackItems)
	for _, c := range matched {
		recs = append(recs, models.Recommendation{
			Title:  c.Title,
			Author: c.Author,
			Reason: c.Reason,
			Score:  80,
			Source: models.SourceFallback,
		})
	}

	f.rng.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})
	for _, c := range rest {
		if len(recs) >= maxFallbackItems {
			break
		}
		recs = append(recs, models.Recommendation{
			Title:  c.Title,
			Author: c.Author,
			Reason: c.Reason,
			Score:  60,
			Source: models.SourceFallback,
		})
	}
	return recs
}

// pickRandom 没有任何画像信号时，随机取10本，分数在[50,70]内随机
func (f *FallbackRecommender) pickRandom(candidates []models.CatalogBook) []models.Recommendation {
	shuffled := make([]models.CatalogBook, len(candidates))
	copy(shuffled, candidates)
	f.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if len(shuffled) > maxFallbackItems {
		shuffled = shuffled[:maxFallbackItems]
	}

	recs := make([]models.Recommendation, 0, len(shuffled))
	for _, c := range shuffled {
		recs = append(recs, models.Recommendation{
			Title:  c.Title,
			Author: c.Author,
			Reason: c.Reason,
			Score:  50 + f.rng.Intn(21),
			Source: models.SourceFallback,
		})
	}
	return recs
}

// clampScore 把分数限制在[0,100]
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
