package models

import "time"

// Post — видео, как оно хранится во внешнем хранилище (таблица videos).
// Хранилище возвращает подпись как есть; тег [VP:NN] с оценкой потенциала
// сервис сессии переносит в PotentialScore.
type Post struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"author_id"`
	AuthorHandle   string    `json:"author_handle"`
	VideoURL       string    `json:"video_url"`
	Caption        string    `json:"caption"`
	CreatedAt      time.Time `json:"created_at"`
	Base           Counters  `json:"base"`
	PotentialScore *int      `json:"potential_score,omitempty"`
}

// NewPost содержит данные для создания записи о видео.
type NewPost struct {
	AuthorID string `json:"author_id"`
	VideoURL string `json:"video_url"`
	Caption  string `json:"caption"`
}

// PostSnapshot это неизменяемое представление поста для ленты.
type PostSnapshot struct {
	PostID           string    `json:"post_id"`
	AuthorHandle     string    `json:"author_handle"`
	VideoURL         string    `json:"video_url"`
	Caption          string    `json:"caption"`
	CreatedAt        time.Time `json:"created_at"`
	Counters         Counters  `json:"counters"`
	RevealedComments []Comment `json:"comments"`
	CommentCount     int       `json:"comment_count"`
	LiveViewers      int       `json:"live_viewers"`
	Settled          bool      `json:"settled"`
}
