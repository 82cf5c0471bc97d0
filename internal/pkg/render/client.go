package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/qs3c/fable_go_server/config"
)

var (
	// ErrNotConfigured 缺少渲染服务密钥
	ErrNotConfigured = errors.New("视频渲染服务未配置：请在 config.yaml 的 render.api_key 填入有效密钥")
	// ErrSubmitRejected 提交被服务端拒绝（4xx），任务直接终止，允许重新提交
	ErrSubmitRejected = errors.New("渲染任务提交被拒绝")
)

// 渲染服务返回的任务状态
const (
	StatusQueued    = "queued"
	StatusFetching  = "fetching"
	StatusRendering = "rendering"
	StatusDone      = "done"
	StatusFailed    = "failed"
)

// Scene 时间线里的一个场景：章节插画加字幕叠层，时长固定
type Scene struct {
	ImageURL string  `json:"image_url"`
	Caption  string  `json:"caption"`
	Duration float64 `json:"duration"`
}

// Timeline 声明式时间线：场景序列加背景音轨
type Timeline struct {
	Scenes   []Scene `json:"scenes"`
	AudioURL string  `json:"audio_url,omitempty"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}

// JobStatus 轮询返回
type JobStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Client 渲染服务 HTTP 客户端，提交后轮询直到终态
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg *config.RenderConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, ErrNotConfigured
	}

	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Submit 提交时间线，返回服务端任务 ID
func (c *Client) Submit(ctx context.Context, timeline *Timeline) (string, error) {
	payload, err := json.Marshal(timeline)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/render", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to submit render job: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return "", fmt.Errorf("%w: status %d: %s", ErrSubmitRejected, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("render submit failed with status %d", resp.StatusCode)
	}

	var result JobStatus
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse submit response: %w", err)
	}
	if result.ID == "" {
		return "", errors.New("render service returned no job id")
	}

	return result.ID, nil
}

// Poll 查询任务状态
func (c *Client) Poll(ctx context.Context, jobID string) (*JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/render/"+jobID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to poll render job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render poll failed with status %d", resp.StatusCode)
	}

	var status JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to parse poll response: %w", err)
	}

	return &status, nil
}

// IsTerminal 状态是否为终态
func IsTerminal(status string) bool {
	return status == StatusDone || status == StatusFailed
}
