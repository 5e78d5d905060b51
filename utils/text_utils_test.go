package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeduplicateSlice(t *testing.T) {
	input := []string{"Fantasy", " Mystery ", "Fantasy", "", "Romance", "Mystery"}

	result := DeduplicateSlice(input)

	assert.Equal(t, []string{"Fantasy", "Mystery", "Romance"}, result)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	// 按rune计数，中文每字一个rune
	assert.Equal(t, 1, EstimateTokens("推荐书籍"))
	assert.Equal(t, 2, EstimateTokens("推荐一些书"))
}

func TestTruncateWithEllipsis(t *testing.T) {
	assert.Equal(t, "short", TruncateWithEllipsis("short", 10))
	assert.Equal(t, "exact", TruncateWithEllipsis("exact", 5))
	assert.Equal(t, "abcde...", TruncateWithEllipsis("abcdefgh", 5))
	assert.Equal(t, "", TruncateWithEllipsis("anything", 0))
	// 按rune截断，不会截出半个中文字符
	assert.Equal(t, "一二三...", TruncateWithEllipsis("一二三四五", 3))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Epic Fantasy Adventure", "fantasy"))
	assert.True(t, ContainsFold("BRANDON SANDERSON", "Brandon Sanderson"))
	assert.False(t, ContainsFold("Mystery", "Fantasy"))
}

func TestMatchesFold(t *testing.T) {
	// 双向模糊匹配
	assert.True(t, MatchesFold("Fantasy", "Epic Fantasy"))
	assert.True(t, MatchesFold("Epic Fantasy", "fantasy"))
	assert.True(t, MatchesFold("Andy Weir", "andy weir"))
	assert.False(t, MatchesFold("Romance", "Thriller"))
	assert.False(t, MatchesFold("", "Fantasy"))
	assert.False(t, MatchesFold("Fantasy", ""))
}

func TestMin(t *testing.T) {
	assert.Equal(t, 1, Min(1, 2))
	assert.Equal(t, 1, Min(2, 1))
	assert.Equal(t, -3, Min(-3, 0))
}

func TestFilterSpecialSymbols(t *testing.T) {
	assert.Equal(t, "The Way of Kings", FilterSpecialSymbols("The Way of Kings"))
	assert.Equal(t, "宏大的世界观，值得一读！", FilterSpecialSymbols("宏大的世界观，值得一读！"))
	// 过滤表情等异常符号
	assert.Equal(t, "好书", FilterSpecialSymbols("好书🔥✨"))
}

func TestCalculateMD5(t *testing.T) {
	// 空字符串的MD5是固定值
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", CalculateMD5(""))
	assert.Equal(t, CalculateMD5("same"), CalculateMD5("same"))
	assert.NotEqual(t, CalculateMD5("a"), CalculateMD5("b"))
	assert.Len(t, CalculateMD5("anything"), 32)
	assert.Equal(t, strings.ToLower(CalculateMD5("ABC")), CalculateMD5("ABC"))
}
