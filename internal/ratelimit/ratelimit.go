// Package ratelimit: скользящее окно запросов на ключ (обычно IP клиента).
// Хранилище подменяемое: память процесса или Redis для нескольких реплик.
package ratelimit

import (
	"context"
	"time"
)

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Reset      time.Time     // когда освободится самый старый слот
	RetryAfter time.Duration // > 0 только при отказе
}

type Store interface {
	// Allow учитывает запрос в момент now и решает, укладывается ли он в limit за window.
	Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error)
}

func denied(limit int, oldest time.Time, window time.Duration, now time.Time) Result {
	reset := oldest.Add(window)
	retry := reset.Sub(now)
	if retry < time.Second {
		retry = time.Second
	}
	return Result{Limit: limit, Reset: reset, RetryAfter: retry}
}
