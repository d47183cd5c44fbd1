// Package notion はNotion APIのクライアントを提供する。
// ジャーナルデータベースの照会・フィールド抽出とOAuth認可コード交換を含む。
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/jurnal/internal/model"
)

const (
	defaultAPIBaseURL = "https://api.notion.com/v1"
	notionVersion     = "2022-06-28"
	// entryWindow は対象エントリとみなす編集時刻の遡り幅。
	entryWindow = 24 * time.Hour
)

// JournalFetcher は最新ジャーナルエントリ取得のインターフェース。
// テスト時にモックに差し替え可能。
type JournalFetcher interface {
	// LatestEntry は直近24時間に編集された最新のジャーナルエントリを取得する。
	// エントリが存在しない場合、および全てのエラー時にnilを返す（フェイルオープン）。
	LatestEntry(ctx context.Context, accessToken, databaseID string) *model.Snapshot
}

// Client はNotion APIのHTTPクライアント。
// データベースクエリAPIでジャーナルページを取得し、構造化フィールドを抽出する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    defaultAPIBaseURL,
	}
}

// databaseQueryRequest はデータベースクエリAPIのリクエストボディ。
type databaseQueryRequest struct {
	Filter   json.RawMessage `json:"filter,omitempty"`
	Sorts    []querySort     `json:"sorts,omitempty"`
	PageSize int             `json:"page_size,omitempty"`
}

type querySort struct {
	Timestamp string `json:"timestamp"`
	Direction string `json:"direction"`
}

// databaseQueryResponse はデータベースクエリAPIのレスポンス。
// プロパティ構造は動的なためjson.RawMessageのまま保持し、抽出時に解釈する。
type databaseQueryResponse struct {
	Results []struct {
		Properties map[string]json.RawMessage `json:"properties"`
	} `json:"results"`
}

// richTextObject はNotionのリッチテキスト要素。titleとrich_textで共通。
type richTextObject struct {
	PlainText string `json:"plain_text"`
}

// buildEntryFilter は直近24時間に編集され、かつ"Ignore Entry"チェックボックスが
// オフのページに絞り込むフィルタを構築する。
func buildEntryFilter(now time.Time) json.RawMessage {
	since := now.Add(-entryWindow).UTC().Format(time.RFC3339)

	filter := map[string]any{
		"and": []any{
			map[string]any{
				"property": "Ignore Entry",
				"checkbox": map[string]any{"equals": false},
			},
			map[string]any{
				"timestamp":        "last_edited_time",
				"last_edited_time": map[string]any{"on_or_after": since},
			},
		},
	}

	raw, _ := json.Marshal(filter)
	return raw
}

// LatestEntry は直近24時間に編集された最新のジャーナルエントリを取得する。
//
// last_edited_time降順でpage_size=1のクエリを発行し、マッチした1ページから
// 固定のフィールドセットを抽出する。全フィールドが空の場合は「エントリなし」
// としてnilを返す。プロバイダ/ネットワークエラーもログに記録した上でnilに
// 丸める。1ユーザーのNotion側エラーがバッチ全体を止めないためのフェイル
// オープン方針であり、エラーを呼び出し元に伝播させることはない。
func (c *Client) LatestEntry(ctx context.Context, accessToken, databaseID string) *model.Snapshot {
	if accessToken == "" || databaseID == "" {
		c.logger.Error("Notionトークンまたはデータベース IDが指定されていません")
		return nil
	}

	reqBody := databaseQueryRequest{
		Filter: buildEntryFilter(time.Now()),
		Sorts: []querySort{
			{Timestamp: "last_edited_time", Direction: "descending"},
		},
		PageSize: 1,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		c.logger.Error("Notionクエリの構築に失敗しました", slog.String("error", err.Error()))
		return nil
	}

	url := fmt.Sprintf("%s/databases/%s/query", c.baseURL, databaseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		c.logger.Error("Notionリクエストの作成に失敗しました", slog.String("error", err.Error()))
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Notion APIの呼び出しに失敗しました",
			slog.String("database_id", databaseID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("Notionレスポンスの読み取りに失敗しました", slog.String("error", err.Error()))
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Notion APIがエラーステータスを返しました",
			slog.String("database_id", databaseID),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil
	}

	var queryResp databaseQueryResponse
	if err := json.Unmarshal(body, &queryResp); err != nil {
		c.logger.Error("Notionレスポンスのパースに失敗しました", slog.String("error", err.Error()))
		return nil
	}

	if len(queryResp.Results) == 0 {
		return nil
	}

	snapshot := extractSnapshot(queryResp.Results[0].Properties)
	if snapshot.IsEmpty() {
		return nil
	}

	return snapshot
}

// extractSnapshot はページのプロパティから固定のフィールドセットを抽出する。
// Entry Titleはtitleプロパティ、それ以外はrich_textプロパティとして解釈する。
func extractSnapshot(properties map[string]json.RawMessage) *model.Snapshot {
	return &model.Snapshot{
		EntryTitle: extractTextProperty(properties, "Entry Title", "title"),
		Gratitude:  extractTextProperty(properties, "Gratitude", "rich_text"),
		Highlights: extractTextProperty(properties, "Highlights", "rich_text"),
		Challenges: extractTextProperty(properties, "Challenges", "rich_text"),
		Reflection: extractTextProperty(properties, "Reflection", "rich_text"),
	}
}

// extractTextProperty は指定プロパティのテキスト要素を連結して返す。
// プロパティが存在しない、または型が想定と異なる場合は空文字を返す。
func extractTextProperty(properties map[string]json.RawMessage, name, kind string) string {
	raw, ok := properties[name]
	if !ok {
		return ""
	}

	var prop map[string]json.RawMessage
	if err := json.Unmarshal(raw, &prop); err != nil {
		return ""
	}

	texts, ok := prop[kind]
	if !ok {
		return ""
	}

	var objects []richTextObject
	if err := json.Unmarshal(texts, &objects); err != nil {
		return ""
	}

	var sb strings.Builder
	for _, obj := range objects {
		sb.WriteString(obj.PlainText)
	}

	return sb.String()
}

// compile-time interface check
var _ JournalFetcher = (*Client)(nil)
