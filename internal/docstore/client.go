package docstore

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
)

// ErrNotFound はドキュメントが存在しないことを示す。
var ErrNotFound = errors.New("document not found")

// LatencyRecorder はストア呼び出しのレイテンシを記録するインターフェース。
type LatencyRecorder interface {
	RecordDocStoreLatency(operation string, d time.Duration)
}

// Options はClientの設定。
type Options struct {
	BaseURL    string
	APIToken   string
	HTTPClient *http.Client
	Latency    LatencyRecorder // nilの場合は記録しない
}

// Client はドキュメントストアAPIのHTTPクライアント。
// insert / update / get と親子アドレッシングのみを提供し、
// ストア側の永続化・整合性の内部には関知しない。
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	latency    LatencyRecorder
}

// NewClient はClientを生成する。
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		apiToken:   opts.APIToken,
		httpClient: httpClient,
		latency:    opts.Latency,
	}
}

// Insert はドキュメントを新規作成する。同一キーが既に存在する場合もエラーを返す。
func (c *Client) Insert(ctx context.Context, path Path, doc any) error {
	return c.write(ctx, http.MethodPost, "insert", path, doc)
}

// Update は既存ドキュメントを上書きする。
func (c *Client) Update(ctx context.Context, path Path, doc any) error {
	return c.write(ctx, http.MethodPut, "update", path, doc)
}

// Get はドキュメントを取得してoutにデコードする。
// 存在しない場合はErrNotFoundを返す。
func (c *Client) Get(ctx context.Context, path Path, out any) error {
	start := time.Now()
	defer c.observe("get", start)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1"+path.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create get request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("document get request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read document response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", path.String(), ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("document get failed with status %d: %s", resp.StatusCode, truncate(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", path.String(), err)
	}
	return nil
}

// write はinsert/update共通の書き込み処理。
func (c *Client) write(ctx context.Context, method, operation string, path Path, doc any) error {
	start := time.Now()
	defer c.observe(operation, start)

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/v1"+path.String(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("document %s request failed: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read document response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("document %s failed with status %d: %s", operation, resp.StatusCode, truncate(body))
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}
}

func (c *Client) observe(operation string, start time.Time) {
	if c.latency != nil {
		c.latency.RecordDocStoreLatency(operation, time.Since(start))
	}
}

// truncate はエラーメッセージに含めるレスポンス本文を切り詰める。
func truncate(body []byte) string {
	const max = 256
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
