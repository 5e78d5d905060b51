package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"ai_book_recommend/config"
	"ai_book_recommend/logger"
)

// 定义SiliconFlow API请求和响应结构
type siliconFlowRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type siliconFlowResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// TokenUsage 一次调用的token用量
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LLMClient SiliconFlow文本生成客户端
type LLMClient struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewLLMClient 创建客户端，超时时间来自配置，超时与网络错误同样处理
func NewLLMClient(cfg *config.Config) *LLMClient {
	return &LLMClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.SiliconFlow.TimeoutSec) * time.Second,
		},
	}
}

// GenerateCompletion 调用SiliconFlow生成文本补全
// 返回原始文本内容和token用量；任何失败（网络、非200、响应无内容）都返回错误，
// 由调用方决定是否降级到兜底推荐
func (c *LLMClient) GenerateCompletion(ctx context.Context, prompt string) (string, *TokenUsage, error) {
	logger.Info("调用SiliconFlow生成推荐", "model", c.cfg.SiliconFlow.Model)

	// 记录提示词的前100个字符（避免日志过长）
	promptPreview := prompt
	if len(promptPreview) > 100 {
		promptPreview = promptPreview[:100] + "..."
	}
	logger.Debug("LLM请求提示词预览", "prompt_preview", promptPreview)

	// 构建API请求
	apiKey := c.cfg.SiliconFlow.APIKey
	// 如果配置中的API Key是环境变量引用，则从环境变量中获取
	if strings.HasPrefix(apiKey, "${") && strings.HasSuffix(apiKey, "}") {
		envName := apiKey[2 : len(apiKey)-1]
		apiKey = os.Getenv(envName)
		logger.Info("从环境变量获取API Key", "env_var", envName)
	}

	reqBody := siliconFlowRequest{
		Model: c.cfg.SiliconFlow.Model,
		Messages: []message{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		MaxTokens:   c.cfg.SiliconFlow.MaxTokens,
		Temperature: c.cfg.SiliconFlow.Temperature,
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		logger.Error("序列化请求体失败", "error", err)
		return "", nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		c.cfg.SiliconFlow.BaseURL+"/v1/chat/completions", bytes.NewBuffer(reqJSON))
	if err != nil {
		logger.Error("创建HTTP请求失败", "error", err)
		return "", nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	// 发送请求
	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	requestDuration := time.Since(startTime)

	logger.Info("LLM请求耗时", "duration_ms", requestDuration.Milliseconds())

	if err != nil {
		logger.Error("发送请求失败", "error", err, "duration_ms", requestDuration.Milliseconds())
		return "", nil, err
	}
	defer resp.Body.Close()

	// 读取响应
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("读取响应失败", "error", err)
		return "", nil, err
	}

	logger.Info("LLM响应状态", "status_code", resp.StatusCode, "response_size", len(body))

	if resp.StatusCode != http.StatusOK {
		// 记录错误响应内容
		responsePreview := string(body)
		if len(responsePreview) > 500 {
			responsePreview = responsePreview[:500] + "..."
		}
		logger.Error("API请求失败", "status", resp.StatusCode, "response", responsePreview)
		return "", nil, fmt.Errorf("API请求失败: %d", resp.StatusCode)
	}

	// 解析响应
	var sfResp siliconFlowResponse
	if err := json.Unmarshal(body, &sfResp); err != nil {
		logger.Error("解析响应失败", "error", err)
		return "", nil, err
	}

	if len(sfResp.Choices) == 0 {
		logger.Error("API响应中没有内容")
		return "", nil, fmt.Errorf("API响应中没有内容")
	}

	content := sfResp.Choices[0].Message.Content
	usage := &TokenUsage{
		PromptTokens:     sfResp.Usage.PromptTokens,
		CompletionTokens: sfResp.Usage.CompletionTokens,
		TotalTokens:      sfResp.Usage.TotalTokens,
	}

	logger.Info("成功获取LLM响应",
		"tokens_prompt", usage.PromptTokens,
		"tokens_completion", usage.CompletionTokens,
		"tokens_total", usage.TotalTokens,
		"finish_reason", sfResp.Choices[0].FinishReason)

	return content, usage, nil
}

// parsedRecommendation 大模型返回的单条推荐，规范化后的形态
type parsedRecommendation struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Reason string `json:"reason"`
}

// ParseRecommendationList 把大模型返回的文本规范化为推荐列表
// 接受裸JSON数组或包在```json代码块里的数组；两者都解析失败时返回错误
func ParseRecommendationList(content string) ([]parsedRecommendation, error) {
	jsonContent := extractJSONArrayFromText(content)

	var items []parsedRecommendation
	if err := json.Unmarshal([]byte(jsonContent), &items); err != nil {
		return nil, fmt.Errorf("解析推荐列表失败: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("推荐列表为空")
	}
	return items, nil
}

// extractJSONArrayFromText 从文本中提取JSON数组部分
func extractJSONArrayFromText(text string) string {
	// 优先查找```json和```之间的内容
	startMarker := "```json"
	endMarker := "```"
	startIdx := strings.Index(text, startMarker)
	if startIdx >= 0 {
		startIdx += len(startMarker)
		endIdx := strings.Index(text[startIdx:], endMarker)
		if endIdx > 0 {
			text = strings.TrimSpace(text[startIdx : startIdx+endIdx])
		}
	}

	// 截取首个'['到最后一个']'之间的部分
	arrStart := strings.Index(text, "[")
	arrEnd := strings.LastIndex(text, "]")
	if arrStart >= 0 && arrEnd > arrStart {
		return text[arrStart : arrEnd+1]
	}

	// 找不到数组结构，返回原始文本，交给上层解析报错
	return text
}
