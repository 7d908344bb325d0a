package models

import "time"

// GrowthPlan хранит неизменяемую часть симуляции поста: цели, показатель кривой и пул комментариев.
// NextRevealIndex сохраняется, чтобы после перезагрузки уже показанные комментарии не исчезали.
type GrowthPlan struct {
	PostID          string    `json:"post_id"`
	CreatedAt       time.Time `json:"created_at"`
	Target          Counters  `json:"target"`
	Exponent        float64   `json:"exponent"`
	Pool            []Comment `json:"pool"`
	NextRevealIndex int       `json:"next_reveal_index"`
}
