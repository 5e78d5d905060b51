package utils

import (
	"strings"
	"unicode/utf8"
)

// DeduplicateSlice 去重字符串切片，保持首次出现顺序
func DeduplicateSlice(input []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0)

	for _, val := range input {
		val = strings.TrimSpace(val)
		if val != "" && !seen[val] {
			result = append(result, val)
			seen[val] = true
		}
	}

	return result
}

// EstimateTokens 估算文本的token数：约每4个字符1个token，向上取整
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

// TruncateWithEllipsis 截断文本到maxChars个字符，被截断时追加省略号标记
func TruncateWithEllipsis(text string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars]) + "..."
}

// ContainsFold 判断s中是否包含substr，忽略大小写
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// MatchesFold 双向子串匹配：a包含b或b包含a，忽略大小写
// 用于体裁和作者的模糊匹配，如"Fantasy"和"Epic Fantasy"视为匹配
func MatchesFold(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	la, lb := strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

// Min 返回两个整数中的较小值
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// FilterSpecialSymbols 过滤文本中的特殊符号，只保留常见标点符号和正常内容
// 用于清理大模型返回的推荐标题和理由
func FilterSpecialSymbols(text string) string {
	// 定义要保留的常见标点符号
	commonPunctuation := map[rune]bool{
		'，': true, '。': true, '！': true, '？': true, '：': true, '；': true,
		'、': true, '（': true, '）': true,
		'【': true, '】': true, '《': true, '》': true, '—': true,
		',': true, '.': true, '!': true, '?': true, ':': true, ';': true,
		'"': true, '\'': true, '(': true, ')': true, '[': true, ']': true,
		'{': true, '}': true, '<': true, '>': true, '-': true, '_': true,
		'+': true, '=': true, '/': true, '\\': true, '|': true, ' ': true,
		'\n': true, '\r': true, '\t': true, '&': true,
	}

	var result strings.Builder
	for _, r := range []rune(text) {
		// 保留中文字符、英文字母、数字和常见标点符号
		if (r >= '\u4e00' && r <= '\u9fa5') || // 中文字符
			(r >= 'A' && r <= 'Z') || // 大写英文字母
			(r >= 'a' && r <= 'z') || // 小写英文字母
			(r >= '0' && r <= '9') || // 数字
			commonPunctuation[r] { // 常见标点符号
			result.WriteRune(r)
		}
	}

	return result.String()
}
