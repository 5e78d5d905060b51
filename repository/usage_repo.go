package repository

import (
	"encoding/json"

	"github.com/google/uuid"

	"ai_book_recommend/db"
	"ai_book_recommend/models"
)

// GenerationRecord 一次推荐生成的用量记录
type GenerationRecord struct {
	ID               string
	UID              string
	ProfileSummary   string
	Prompt           string
	Model            string
	PromptTokens     int
	CompletionTokens int
	EstimatedCost    float64
	Recommendations  []models.Recommendation
	FromCache        bool
}

// SaveGenerationRecord 保存一次生成的用量记录，返回记录ID
func SaveGenerationRecord(rec *GenerationRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	recJSON, _ := json.Marshal(rec.Recommendations)

	_, err := db.DB.Exec(`
        INSERT INTO generation_usage
            (id, uid, profile_summary, prompt, model, prompt_tokens, completion_tokens,
             estimated_cost, recommendations, from_cache)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, rec.ID, rec.UID, rec.ProfileSummary, rec.Prompt, rec.Model,
		rec.PromptTokens, rec.CompletionTokens, rec.EstimatedCost,
		string(recJSON), rec.FromCache)
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// IncrementReuseCount 命中缓存时，给该用户最近一条生成记录的复用计数加一
func IncrementReuseCount(uid string) error {
	_, err := db.DB.Exec(`
        UPDATE generation_usage
        SET reuse_count = reuse_count + 1
        WHERE uid = ?
        ORDER BY created_at DESC
        LIMIT 1
    `, uid)
	return err
}
