package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultOAuthTokenURL = "https://api.notion.com/v1/oauth/token"

// AuthorizationResult はOAuth認可コード交換の結果を表す。
type AuthorizationResult struct {
	AccessToken string
	// OwnerEmail はワークスペースオーナーのメールアドレス。
	// ユーザーのルックアップまたは自動作成に使用する。
	OwnerEmail string
	// PageID は複製されたテンプレートページのID。
	// ジャーナルデータベースの照会対象となる。
	PageID string
}

// OAuthExchanger は認可コード交換のインターフェース。
// テスト時にモックに差し替え可能。
type OAuthExchanger interface {
	ExchangeCode(ctx context.Context, code string) (*AuthorizationResult, error)
}

// OAuthConfig はNotion OAuthプロバイダーの設定。
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	TokenURL string
}

// OAuthProvider はNotion OAuth 2.0による認可コード交換を提供する。
type OAuthProvider struct {
	config     OAuthConfig
	httpClient *http.Client
}

// NewOAuthProvider はOAuthProviderを生成する。
func NewOAuthProvider(config OAuthConfig, httpClient *http.Client) *OAuthProvider {
	if config.TokenURL == "" {
		config.TokenURL = defaultOAuthTokenURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OAuthProvider{config: config, httpClient: httpClient}
}

// oauthTokenResponse はNotionのトークンエンドポイントのレスポンス。
type oauthTokenResponse struct {
	AccessToken          string `json:"access_token"`
	DuplicatedTemplateID string `json:"duplicated_template_id"`
	Owner                struct {
		User struct {
			Person struct {
				Email string `json:"email"`
			} `json:"person"`
		} `json:"user"`
	} `json:"owner"`
}

// ExchangeCode は認可コードをアクセストークンに交換する。
// Notionのトークンエンドポイントはclient_id:client_secretのBasic認証を要求する。
func (p *OAuthProvider) ExchangeCode(ctx context.Context, code string) (*AuthorizationResult, error) {
	payload, err := json.Marshal(map[string]string{
		"grant_type":   "authorization_code",
		"code":         code,
		"redirect_uri": p.config.RedirectURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(p.config.ClientID, p.config.ClientSecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", notionVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp oauthTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}
	if tokenResp.Owner.User.Person.Email == "" {
		return nil, fmt.Errorf("owner email missing in token response")
	}

	return &AuthorizationResult{
		AccessToken: tokenResp.AccessToken,
		OwnerEmail:  tokenResp.Owner.User.Person.Email,
		PageID:      tokenResp.DuplicatedTemplateID,
	}, nil
}

// compile-time interface check
var _ OAuthExchanger = (*OAuthProvider)(nil)
