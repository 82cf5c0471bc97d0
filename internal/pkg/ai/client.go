package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/qs3c/fable_go_server/config"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com"

// Client Gemini 生成客户端。文本和视觉走 SDK，
// 图片合成与语音合成 SDK 未覆盖，走 REST
type Client struct {
	genai      *genai.Client
	httpClient *http.Client
	cfg        *config.GeminiConfig
	endpoint   string
}

// NewClient 创建客户端。密钥缺失在这里拦截，不等到第一次调用才失败
func NewClient(ctx context.Context, cfg *config.GeminiConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}

	gc, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	return &Client{
		genai:      gc,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		cfg:        cfg,
		endpoint:   strings.TrimRight(endpoint, "/"),
	}, nil
}

// Close 关闭底层连接
func (c *Client) Close() error {
	return c.genai.Close()
}

// DescribeImage 视觉分析：从照片产出英文外貌描述。
// 调用方失败时降级为通用描述，这里只负责报错
func (c *Client) DescribeImage(ctx context.Context, imageData []byte, format string) (string, error) {
	m := c.genai.GenerativeModel(c.cfg.VisionModel)
	m.SetTemperature(0.2)

	prompt := "Describe this person's physical appearance for a children's book illustrator. " +
		"Focus on hair color and style, eye color, skin tone and notable features. " +
		"Answer in English, one concise paragraph, no names."

	resp, err := m.GenerateContent(ctx, genai.ImageData(format, imageData), genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("vision analysis failed: %w", err)
	}

	text := firstText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(text), nil
}

// SynthesizeStory 生成标题和固定 4 章的结构化故事
func (c *Client) SynthesizeStory(ctx context.Context, req *StoryRequest) (*StoryResult, error) {
	m := c.genai.GenerativeModel(c.cfg.TextModel)
	m.ResponseMIMEType = "application/json"
	m.SetTemperature(0.9)

	resp, err := m.GenerateContent(ctx, genai.Text(BuildStoryPrompt(req)))
	if err != nil {
		return nil, fmt.Errorf("story generation failed: %w", err)
	}

	raw := firstText(resp)
	if raw == "" {
		return nil, ErrEmptyResponse
	}

	return ParseStoryJSON(raw)
}

// SynthesizeImage 按提示词合成插画，返回 PNG 字节。
// 每次调用抽新种子，相同提示词也会产出不同图片，不做缓存
func (c *Client) SynthesizeImage(ctx context.Context, prompt string) ([]byte, error) {
	body := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]interface{}{{"text": prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"responseModalities": []string{"IMAGE"},
			"seed":               rand.Int31(),
		},
	}

	part, err := c.restGenerate(ctx, c.cfg.ImageModel, body)
	if err != nil {
		return nil, fmt.Errorf("image synthesis failed: %w", err)
	}
	if part.InlineData == nil {
		return nil, ErrEmptyResponse
	}

	return part.InlineData.Decode()
}

// SynthesizeSpeech 合成旁白，返回 base64 的 24kHz 单声道 16bit PCM
func (c *Client) SynthesizeSpeech(ctx context.Context, text string) (string, error) {
	body := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]interface{}{{"text": text}}},
		},
		"generationConfig": map[string]interface{}{
			"responseModalities": []string{"AUDIO"},
		},
	}

	part, err := c.restGenerate(ctx, c.cfg.SpeechModel, body)
	if err != nil {
		return "", fmt.Errorf("speech synthesis failed: %w", err)
	}
	if part.InlineData == nil || part.InlineData.Data == "" {
		return "", ErrEmptyResponse
	}

	return part.InlineData.Data, nil
}

// restPart REST 响应里的内容片段
type restPart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *restInlineData `json:"inlineData,omitempty"`
}

type restInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

func (d *restInlineData) Decode() ([]byte, error) {
	return decodeBase64(d.Data)
}

type restResponse struct {
	Candidates []struct {
		Content struct {
			Parts []restPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// restGenerate 调用 generateContent REST 接口并取第一个片段
func (c *Client) restGenerate(ctx context.Context, model string, body map[string]interface{}) (*restPart, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.endpoint, model, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed restResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("unexpected response (status %d): %s", resp.StatusCode, truncate(string(data), 200))
	}

	// 错误体里带着上游的状态标记（如 API_KEY_INVALID），保留原文用于分类
	if parsed.Error != nil {
		return nil, fmt.Errorf("upstream error %s: %s", parsed.Error.Status, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}

	return &parsed.Candidates[0].Content.Parts[0], nil
}

// firstText 取 SDK 响应的第一个文本片段
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			return string(t)
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
