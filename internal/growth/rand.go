package growth

import "math/rand/v2"

// Rand служит источником случайности симуляции. *rand.Rand из math/rand/v2 ему удовлетворяет.
// Один экземпляр не должен использоваться из нескольких горутин без синхронизации.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }

// DefaultRand работает через общий генератор math/rand/v2 и безопасен для конкурентного вызова.
var DefaultRand Rand = globalRand{}

// zeroRand всегда возвращает нижнюю границу диапазона: первичный расчёт при загрузке идёт без шума.
type zeroRand struct{}

func (zeroRand) Float64() float64 { return 0 }
func (zeroRand) IntN(int) int     { return 0 }
