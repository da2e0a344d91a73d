// Package jitter считает задержки между повторами: экспонента с потолком и случайной добавкой,
// чтобы клиенты не ретраили синхронно.
package jitter

import (
	"context"
	"math/rand/v2"
	"time"
)

// DefaultFactor — доля случайной добавки к задержке (50%)
const DefaultFactor = 0.5

// Backoff описывает политику повторов. Нулевой Max означает отсутствие потолка.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64
}

// NewBackoff возвращает политику с коэффициентом DefaultFactor.
func NewBackoff(base, max time.Duration) Backoff {
	return Backoff{Base: base, Max: max, Factor: DefaultFactor}
}

// Delay возвращает задержку перед повтором номер attempt (с нуля).
// Результат лежит в [d, d*(1+Factor)], где d = min(Base*2^attempt, Max).
func (b Backoff) Delay(attempt int) time.Duration {
	d := b.Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			d = b.Max
			break
		}
	}
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}

	return d + time.Duration(rand.Float64()*b.Factor*float64(d))
}

// Wait спит Delay(attempt) и возвращает false, если контекст отменён раньше.
func (b Backoff) Wait(ctx context.Context, attempt int) bool {
	t := time.NewTimer(b.Delay(attempt))
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
