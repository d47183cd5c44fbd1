// Package genai はGoogle Generative Language APIのクライアントと
// モチベーションメッセージの生成処理を提供する。
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// TextGenerator はテキスト生成のインターフェース。
// テスト時にモックに差し替え可能。
type TextGenerator interface {
	Generate(ctx context.Context, userPrompt, systemInstruction string) (string, error)
}

// Client はGenerative Language APIのHTTPクライアント。
// generateContentエンドポイントを呼び出してテキストを生成する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	model      string
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
// modelが空の場合はgemini-2.5-flashを使用する。
func NewClient(httpClient *http.Client, logger *slog.Logger, apiKey, model string) *Client {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		model:      model,
		endpoint:   defaultEndpoint,
	}
}

// Model は設定されているモデル名を返す。
func (c *Client) Model() string {
	return c.model
}

// generateContentRequest はgenerateContentエンドポイントのリクエストボディ。
type generateContentRequest struct {
	Contents          []content `json:"contents"`
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generateContentResponse はgenerateContentエンドポイントのレスポンス。
type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate はプロンプトからテキストを生成する。
// systemInstructionが空でない場合はシステム指示として付与する。
func (c *Client) Generate(ctx context.Context, userPrompt, systemInstruction string) (string, error) {
	reqBody := generateContentRequest{
		Contents: []content{
			{Parts: []part{{Text: userPrompt}}},
		},
	}
	if systemInstruction != "" {
		reqBody.SystemInstruction = &content{
			Parts: []part{{Text: systemInstruction}},
		}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.endpoint, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("生成APIの呼び出しに失敗しました",
			slog.String("model", c.model),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("generate request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read generate response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("生成APIがエラーステータスを返しました",
			slog.String("model", c.model),
			slog.Int("http_status", resp.StatusCode),
		)
		return "", fmt.Errorf("generate request returned status %d: %s", resp.StatusCode, string(body))
	}

	var genResp generateContentResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("failed to parse generate response: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generate response contains no candidates")
	}

	var sb strings.Builder
	for _, p := range genResp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}

	return sb.String(), nil
}

// HealthCheck は生成APIへのラウンドトリップ呼び出しで疎通を確認する。
// 成功時は生成されたテキストを返す。
func (c *Client) HealthCheck(ctx context.Context) (string, error) {
	return c.Generate(ctx, "Hello", "Respond with a single word: 'OK'")
}

// compile-time interface check
var _ TextGenerator = (*Client)(nil)
