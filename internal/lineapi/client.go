// Package lineapi はLINE Messaging APIのプロフィール取得クライアントを提供する。
package lineapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hitoshi/talkroom/internal/model"
)

const defaultBaseURL = "https://api.line.me"

// Config はClientの設定。
type Config struct {
	ChannelAccessToken string

	// テスト用にオーバーライド可能なURL
	BaseURL string

	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client はLINEプロフィールAPIのHTTPクライアント。
// ローカル状態を持たない純粋なI/Oコンポーネント。
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient はClientを生成する。
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{config: config, httpClient: httpClient}
}

// lineProfileResponse はLINEのプロフィールエンドポイントのレスポンス。
type lineProfileResponse struct {
	UserID        string `json:"userId"`
	DisplayName   string `json:"displayName"`
	PictureURL    string `json:"pictureUrl"`
	StatusMessage string `json:"statusMessage"`
}

// GetProfile はチャネルアクセストークンでユーザーのプロフィールを取得する。
// GET /v2/bot/profile/{userID}
func (c *Client) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	endpoint := fmt.Sprintf("%s/v2/bot/profile/%s", c.config.BaseURL, url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.ChannelAccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var profile lineProfileResponse
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile response: %w", err)
	}

	if profile.UserID == "" {
		return nil, fmt.Errorf("empty userId in profile response")
	}

	return model.NewLineProfile(profile.UserID, profile.DisplayName, profile.PictureURL), nil
}
