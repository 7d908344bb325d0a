package models

// Counters хранит счётчики вовлечённости поста.
type Counters struct {
	Views  int `json:"views"`
	Likes  int `json:"likes"`
	Shares int `json:"shares"`
	Saves  int `json:"saves"`
}

// Normalize заменяет отрицательные значения нулём.
func (c Counters) Normalize() Counters {
	return Counters{
		Views:  nonNegative(c.Views),
		Likes:  nonNegative(c.Likes),
		Shares: nonNegative(c.Shares),
		Saves:  nonNegative(c.Saves),
	}
}

// AtMost сообщает, что каждый счётчик c не превышает соответствующий счётчик o.
func (c Counters) AtMost(o Counters) bool {
	return c.Views <= o.Views && c.Likes <= o.Likes && c.Shares <= o.Shares && c.Saves <= o.Saves
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
