package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	WebhookRate     rate.Limit    // webhook配送元ごとのレート（req/sec）
	WebhookBurst    int           // バーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// NewRateLimiterConfig はwebhook用のレート制限設定を生成する。
// requestsPerMinuteは配送元ごとの req/min を指定する。
func NewRateLimiterConfig(requestsPerMinute int) RateLimiterConfig {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 600
	}
	return RateLimiterConfig{
		WebhookRate:     rate.Limit(float64(requestsPerMinute) / 60.0),
		WebhookBurst:    requestsPerMinute,
		CleanupInterval: 5 * time.Minute,
	}
}

// sourceLimiter は配送元ごとのレートリミッターとアクセス時刻を保持する。
type sourceLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はwebhook配送元（リモートIP）ごとのレート制限を管理する。
type RateLimiter struct {
	config RateLimiterConfig

	mu       sync.Mutex
	limiters map[string]*sourceLimiter

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		limiters: make(map[string]*sourceLimiter),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// WebhookMiddleware はwebhookエンドポイントのレート制限ミドルウェアを返す。
// 制限を超えた場合は429を返す。配送元はこれを受けて後で再送する。
func (rl *RateLimiter) WebhookMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			source := sourceKey(r)

			if !rl.getOrCreateLimiter(source).Allow() {
				slog.Warn("rate limit exceeded",
					slog.String("source", source),
				)
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getOrCreateLimiter は配送元のリミッターを取得または生成する。
func (rl *RateLimiter) getOrCreateLimiter(source string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	sl, ok := rl.limiters[source]
	if !ok {
		sl = &sourceLimiter{
			limiter: rate.NewLimiter(rl.config.WebhookRate, rl.config.WebhookBurst),
		}
		rl.limiters[source] = sl
	}
	sl.lastAccess = time.Now()
	return sl.limiter
}

// cleanupLoop は一定間隔で長時間アクセスのないエントリを削除する。
func (rl *RateLimiter) cleanupLoop() {
	interval := rl.config.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-interval)
			rl.mu.Lock()
			for key, sl := range rl.limiters {
				if sl.lastAccess.Before(cutoff) {
					delete(rl.limiters, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// sourceKey はリクエストの配送元キー（リモートIP）を返す。
func sourceKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
