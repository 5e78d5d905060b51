package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"ai_book_recommend/config"
	_ "ai_book_recommend/docs" // 导入 swagger 文档
	"ai_book_recommend/models"
	"ai_book_recommend/services"
	"ai_book_recommend/utils"
)

// GenerateRecommendationHandler godoc
// @Summary 为指定用户生成书籍推荐
// @Description 根据请求体中的已评分书单生成推荐。受限流约束；一小时内相同书单默认返回缓存结果，force_refresh可跳过缓存查询
// @Tags 推荐内容
// @Accept json
// @Produce json
// @Param uid path string true "用户ID"
// @Param request body models.GenerateRequest true "已评分书单和可选的用户自述"
// @Success 200 {object} models.APIResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 429 {object} models.APIResponse "触发限流"
// @Router /api/recommendation/generate/{uid} [post]
func GenerateRecommendationHandler(w http.ResponseWriter, r *http.Request, svc *services.RecommendationService) {
	uid := chi.URLParam(r, "uid")
	if !utils.ValidateUID(w, uid) {
		return
	}

	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteErrorResponse(w, models.CodeInvalidParams, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if len(req.Books) == 0 {
		utils.WriteErrorResponse(w, models.CodeNoBooks, map[string]interface{}{})
		return
	}

	result, err := svc.Generate(r.Context(), uid, req.Books, req.UserContext, req.ForceRefresh)
	if err != nil {
		var rlErr *services.RateLimitError
		if errors.As(err, &rlErr) {
			utils.WriteCustomErrorResponse(w, models.CodeRateLimited, rlErr.Message, map[string]interface{}{
				"reason":          rlErr.Reason,
				"retry_after_sec": rlErr.RetryAfterSec,
			})
			return
		}
		utils.WriteCustomErrorResponse(w, models.CodeRecommendGenError, err.Error(), map[string]interface{}{})
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"uid":             uid,
		"source":          result.Source,
		"recommendations": utils.FormatRecommendations(result.Recommendations),
	})
}

// GetCachedRecommendationHandler godoc
// @Summary 查询用户的缓存推荐
// @Description 按书单内容哈希查询该用户的缓存推荐，不触发生成、不消耗限流配额，过期或不存在时返回无推荐数据
// @Tags 推荐内容
// @Produce json
// @Param uid path string true "用户ID"
// @Param hash query string true "书单内容哈希"
// @Success 200 {object} models.RecommendationResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 404 {object} models.APIResponse "没有推荐数据"
// @Router /api/recommendation/{uid} [get]
func GetCachedRecommendationHandler(w http.ResponseWriter, r *http.Request, svc *services.RecommendationService) {
	uid := chi.URLParam(r, "uid")
	if !utils.ValidateUID(w, uid) {
		return
	}

	hash := r.URL.Query().Get("hash")
	if hash == "" {
		utils.WriteErrorResponse(w, models.CodeMissingParams, map[string]interface{}{
			"param": "hash",
		})
		return
	}

	entry, ok := svc.Cache().Lookup(uid, hash)
	if !ok {
		utils.WriteErrorResponse(w, models.CodeNoRecommend, map[string]interface{}{})
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"uid":             uid,
		"source":          entry.Source,
		"recommendations": utils.FormatRecommendations(entry.Recommendations),
	})
}

// PreviewProfileHandler godoc
// @Summary 预览阅读画像
// @Description 对请求体中的书单运行画像分析，不落库、不限流、不触发生成
// @Tags 阅读画像
// @Accept json
// @Produce json
// @Param request body models.GenerateRequest true "已评分书单"
// @Success 200 {object} models.APIResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Router /api/profile/preview [post]
func PreviewProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteErrorResponse(w, models.CodeInvalidParams, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	profile := services.BuildReadingProfile(req.Books)
	utils.WriteSuccessResponse(w, profile)
}

// RateLimitStatusHandler godoc
// @Summary 查询用户限流状态
// @Description 返回用户当前的小时/日配额用量和冷却状态
// @Tags 限流
// @Accept json
// @Produce json
// @Param uid path string true "用户ID"
// @Success 200 {object} models.APIResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Router /api/ratelimit/{uid} [get]
func RateLimitStatusHandler(w http.ResponseWriter, r *http.Request, svc *services.RecommendationService) {
	uid := chi.URLParam(r, "uid")
	if !utils.ValidateUID(w, uid) {
		return
	}

	status, err := svc.Limiter().Status(uid)
	if err != nil {
		utils.HandleServiceError(w, err, models.CodeDatabaseError)
		return
	}

	utils.WriteSuccessResponse(w, status)
}

func RegisterRoutes(r *chi.Mux, cfg *config.Config, svc *services.RecommendationService) {
	// Swagger 文档
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // Swagger JSON 的 URL
	))

	r.Post("/api/recommendation/generate/{uid}", func(w http.ResponseWriter, r *http.Request) {
		GenerateRecommendationHandler(w, r, svc)
	})

	r.Get("/api/recommendation/{uid}", func(w http.ResponseWriter, r *http.Request) {
		GetCachedRecommendationHandler(w, r, svc)
	})

	r.Post("/api/profile/preview", PreviewProfileHandler)

	r.Get("/api/ratelimit/{uid}", func(w http.ResponseWriter, r *http.Request) {
		RateLimitStatusHandler(w, r, svc)
	})
}
