package ai

import (
	"context"
	"sync"
	"time"
)

// CooldownGate гарантирует минимальный интервал между последовательными
// вызовами через один экземпляр шлюза. Защищен мьютексом: конкурентные
// вызовы выстраиваются в очередь и разносятся по времени.
type CooldownGate struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewCooldownGate создает новый gate. При interval <= 0 ожидание отключено.
func NewCooldownGate(interval time.Duration) *CooldownGate {
	return &CooldownGate{interval: interval}
}

// Wait блокирует до истечения интервала с момента предыдущего вызова.
// Время последнего вызова обновляется даже при отмене контекста, чтобы
// не зависнуть на одном и том же дедлайне.
func (g *CooldownGate) Wait(ctx context.Context) error {
	if g == nil || g.interval <= 0 {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if !g.last.IsZero() {
		if elapsed := now.Sub(g.last); elapsed < g.interval {
			select {
			case <-time.After(g.interval - elapsed):
			case <-ctx.Done():
				g.last = time.Now()
				return ctx.Err()
			}
		}
	}
	g.last = time.Now()
	return nil
}
