// Package ratelimiter は、キー単位の固定ウィンドウ方式でAPIリクエスト量を制限します。
package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// Limiter はキー単位のレートリミットカウンタのインターフェースです。
// TooManyAttempts は純粋な読み取りチェックで、Hit の前に呼ばれます。
// 上限に達したリクエスト自身はカウントを進めません。
type Limiter interface {
	// TooManyAttempts は上限到達の有無と、ウィンドウリセットまでの残り時間を返します。
	TooManyAttempts(ctx context.Context, key string) (bool, time.Duration, error)

	// Hit はカウンタをインクリメントします。ウィンドウ内の最初のHitがウィンドウを開始します。
	Hit(ctx context.Context, key string) error
}

// windowEntry は1キー分のカウンタとリセット期限です。
type windowEntry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter はインメモリのLimiter実装です。Redisが利用できない場合の
// フォールバックとして使います。カウンタ更新はミューテックスで保護されるため
// 同時Hitでもアンダーカウントしません。
type MemoryLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	entries map[string]*windowEntry
}

// コンパイル時にLimiter実装であることを検証します。
var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter は新しいMemoryLimiterのインスタンスを生成します。
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		entries: make(map[string]*windowEntry),
	}
}

// TooManyAttempts は現在のウィンドウでlimit回以上Hitされているかを返します。
func (l *MemoryLimiter) TooManyAttempts(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	now := time.Now()
	if !ok || !now.Before(e.resetAt) {
		return false, 0, nil
	}
	if e.count >= l.limit {
		return true, e.resetAt.Sub(now), nil
	}
	return false, 0, nil
}

// Hit はカウンタを進めます。期限切れのウィンドウは新しく開始されます。
func (l *MemoryLimiter) Hit(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	e, ok := l.entries[key]
	if !ok || !now.Before(e.resetAt) {
		l.entries[key] = &windowEntry{count: 1, resetAt: now.Add(l.window)}
		l.pruneLocked(now)
		return nil
	}
	e.count++
	return nil
}

// pruneLocked は期限切れエントリを間引き、マップの無限成長を防ぎます。
// 呼び出し側がミューテックスを保持していること。
func (l *MemoryLimiter) pruneLocked(now time.Time) {
	if len(l.entries) < 1024 {
		return
	}
	for k, e := range l.entries {
		if !now.Before(e.resetAt) {
			delete(l.entries, k)
		}
	}
}
