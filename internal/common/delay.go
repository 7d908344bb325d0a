package common

import (
	"context"
	"math/rand/v2"
	"time"
)

// С шагом delayStep ожидание проверяет отмену контекста.
var delayStep = 5 * time.Second

// WaitWithCancellation ждёт случайное число секунд из диапазона delayRange
// и регулярно проверяет контекст на отмену, чтобы не блокировать долгие задержки.
// Перевёрнутый диапазон нормализуется, отрицательные границы считаются нулём.
func WaitWithCancellation(ctx context.Context, delayRange [2]int) error {
	lo, hi := max(0, delayRange[0]), max(0, delayRange[1])
	if lo > hi {
		lo, hi = hi, lo
	}
	delay := time.Duration(rand.IntN(hi-lo+1)+lo) * time.Second
	for remaining := delay; remaining > 0; {
		step := min(delayStep, remaining)
		select {
		case <-ctx.Done():
			// Возвращаем ошибку контекста, чтобы вызвать обработку прерывания выше по стеку.
			return ctx.Err()
		case <-time.After(step):
		}
		remaining -= step
	}
	return ctx.Err()
}
