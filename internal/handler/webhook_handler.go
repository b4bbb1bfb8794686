// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/talkroom/internal/model"
	"github.com/hitoshi/talkroom/internal/webhook"
)

// 署名ヘッダー。チャネルシークレットによる本文のHMAC-SHA256（base64）。
const signatureHeader = "X-Line-Signature"

// リクエスト本文の上限サイズ。
const maxBodySize = 1 << 20

// WebhookUseCase はwebhookハンドラーが必要とするユースケースインターフェース。
type WebhookUseCase interface {
	HandleInboundMessage(ctx context.Context, lineID string, msg webhook.InboundMessage) (*model.TalkRoom, error)
}

// WebhookMetrics はwebhook受信の記録インターフェース。
type WebhookMetrics interface {
	RecordWebhookReceived()
	RecordWebhookFailed()
}

// WebhookHandler はチャットプラットフォームからのwebhookを受けるハンドラー。
// 署名検証とデコードだけを行い、解決処理はユースケースに委譲する。
type WebhookHandler struct {
	usecase       WebhookUseCase
	channelSecret string
	metrics       WebhookMetrics
}

// NewWebhookHandler はWebhookHandlerを生成する。metricsはnil可。
func NewWebhookHandler(usecase WebhookUseCase, channelSecret string, metrics WebhookMetrics) *WebhookHandler {
	return &WebhookHandler{
		usecase:       usecase,
		channelSecret: channelSecret,
		metrics:       metrics,
	}
}

// webhookEnvelope はwebhookリクエスト本文。
type webhookEnvelope struct {
	Destination string         `json:"destination"`
	Events      []webhookEvent `json:"events"`
}

// webhookEvent は個々のwebhookイベント。
type webhookEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // エポックミリ秒
	Source    struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
	} `json:"source"`
	Message struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
}

// Receive はwebhookを処理する。
// POST /webhook
//
// 処理に失敗したイベントが1つでもあれば非2xxを返し、配送元の再送に委ねる。
// 再送時もget-or-createの全手順をやり直すため、重複作成は起きない。
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	if !h.validSignature(body, r.Header.Get(signatureHeader)) {
		slog.Warn("webhook signature mismatch")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	for _, event := range envelope.Events {
		if event.Type != "message" || event.Message.Type != "text" {
			slog.Debug("skipping unsupported webhook event",
				slog.String("event_type", event.Type),
				slog.String("message_type", event.Message.Type),
			)
			continue
		}
		if event.Source.UserID == "" {
			slog.Warn("webhook event without source user")
			continue
		}

		if h.metrics != nil {
			h.metrics.RecordWebhookReceived()
		}

		msg := webhook.InboundMessage{
			Text:   event.Message.Text,
			SentAt: time.UnixMilli(event.Timestamp),
		}
		if _, err := h.usecase.HandleInboundMessage(r.Context(), event.Source.UserID, msg); err != nil {
			if h.metrics != nil {
				h.metrics.RecordWebhookFailed()
			}
			slog.Error("failed to handle inbound message",
				slog.String("line_id", event.Source.UserID),
				slog.String("error", err.Error()),
			)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
}

// validSignature は本文のHMAC-SHA256署名を検証する。
func (h *WebhookHandler) validSignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.channelSecret))
	mac.Write(body)
	return hmac.Equal(decoded, mac.Sum(nil))
}
