package gemini

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/go-faster/errors"

	"zentok/models"
)

// ErrEmptyResponse: модель вернула пустой ответ.
var ErrEmptyResponse = errors.New("empty model response")

// stripFences убирает markdown-обёртку ```json ... ```, которую модель иногда добавляет.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type rawComment struct {
	User  string  `json:"user"`
	Text  string  `json:"text"`
	Likes float64 `json:"likes"`
}

// ParseCommentPool разбирает JSON-массив комментариев. Элементы без текста отбрасываются.
func ParseCommentPool(text string) ([]models.CommentCandidate, error) {
	text = stripFences(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}
	var raw []rawComment
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, errors.Wrap(err, "decode comment pool")
	}
	pool := make([]models.CommentCandidate, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		likes := 0
		if !math.IsNaN(r.Likes) && r.Likes > 0 {
			likes = int(math.Min(r.Likes, math.MaxInt32))
		}
		pool = append(pool, models.CommentCandidate{
			Author:   strings.TrimSpace(r.User),
			Text:     strings.TrimSpace(r.Text),
			LikeSeed: likes,
		})
	}
	return pool, nil
}

// ParseScore разбирает ответ оценщика: объект {"score": N} или просто число.
// Результат ограничен диапазоном [0, 100].
func ParseScore(text string) (int, error) {
	text = stripFences(text)
	if text == "" {
		return 0, ErrEmptyResponse
	}
	var wrapped struct {
		Score *float64 `json:"score"`
	}
	var value float64
	if err := json.Unmarshal([]byte(text), &wrapped); err == nil && wrapped.Score != nil {
		value = *wrapped.Score
	} else if err := json.Unmarshal([]byte(text), &value); err != nil {
		return 0, errors.Wrap(err, "decode score")
	}
	if math.IsNaN(value) {
		return 0, errors.New("score is NaN")
	}
	return int(math.Round(math.Max(0, math.Min(100, value)))), nil
}
