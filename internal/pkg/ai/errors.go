package ai

import (
	"errors"
	"strings"
)

var (
	// ErrNotConfigured 缺少 API 密钥，属于配置错误而不是运行时失败
	ErrNotConfigured = errors.New("生成服务未配置：请在 config.yaml 的 gemini.api_key 填入有效密钥")
	// ErrEmptyResponse 模型没有返回内容
	ErrEmptyResponse = errors.New("模型未返回内容")
	// ErrBadStoryFormat 故事结构化输出解析失败，按生成失败处理，不自动重试
	ErrBadStoryFormat = errors.New("故事生成结果格式错误")
)

// 上游吊销密钥时错误文本里出现的标记
var revokedMarkers = []string{
	"API key leaked",
	"API_KEY_INVALID",
	"PERMISSION_DENIED",
	"API key was blocked",
	"CONSUMER_SUSPENDED",
}

// IsUpstreamRevoked 判断是否属于密钥被上游吊销/封禁。
// 这类错误需要更换密钥而不是重试，前端展示专门的阻断页
func IsUpstreamRevoked(err error) bool {
	if err == nil {
		return false
	}
	text := err.Error()
	for _, marker := range revokedMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
