package growth

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"zentok/models"
)

const (
	defaultCaption = "an authentic video"
	defaultAuthor  = "anon_user"
	defaultText    = "Great video!"
)

// CommentGenerator выдаёт упорядоченный пул комментариев к подписи.
type CommentGenerator interface {
	GenerateCommentPool(ctx context.Context, caption string) ([]models.CommentCandidate, error)
}

// FallbackComments подставляются, если генератор недоступен или вернул пустой ответ.
// Пул никогда не бывает пустым: от его размера зависят пороги показа комментариев.
var FallbackComments = []models.CommentCandidate{
	{Author: "virtual_friend", Text: "Amazing video! Loved the vibe ✨", LikeSeed: 12},
	{Author: "good_vibes_only", Text: "Keep going, you have so much talent ❤️", LikeSeed: 8},
	{Author: "be_light", Text: "This made my day, thanks for sharing", LikeSeed: 25},
	{Author: "peace_path", Text: "So brave of you to post this, congrats", LikeSeed: 15},
	{Author: "loyal_world", Text: "Love your authenticity", LikeSeed: 19},
}

// PoolBuilder собирает пул комментариев для поста.
type PoolBuilder struct {
	gen     CommentGenerator
	logger  *zap.Logger
	workers int
}

// NewPoolBuilder создаёт сборщик. При gen == nil всегда используется запасной список.
func NewPoolBuilder(gen CommentGenerator, workers int, logger *zap.Logger) *PoolBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 1
	}
	return &PoolBuilder{gen: gen, logger: logger.Named("pool"), workers: workers}
}

// Build возвращает пул комментариев в порядке показа. Ошибки генератора не пробрасываются.
func (b *PoolBuilder) Build(ctx context.Context, postID, caption string) []models.Comment {
	if strings.TrimSpace(caption) == "" {
		caption = defaultCaption
	}

	candidates := FallbackComments
	if b.gen != nil {
		generated, err := b.gen.GenerateCommentPool(ctx, caption)
		switch {
		case err != nil:
			b.logger.Warn("генерация комментариев не удалась, используется запасной пул",
				zap.String("post_id", postID), zap.Error(err))
			poolFallbacks.Inc()
		case len(generated) == 0:
			b.logger.Warn("генератор вернул пустой пул, используется запасной",
				zap.String("post_id", postID))
			poolFallbacks.Inc()
		default:
			candidates = generated
		}
	} else {
		poolFallbacks.Inc()
	}

	return assignPool(postID, candidates)
}

// BuildAll собирает пулы для всех постов с ограничением на число одновременных вызовов генератора.
// Результат i соответствует posts[i].
func (b *PoolBuilder) BuildAll(ctx context.Context, posts []models.Post) [][]models.Comment {
	pools := make([][]models.Comment, len(posts))

	var g errgroup.Group
	g.SetLimit(b.workers)
	for i, p := range posts {
		g.Go(func() error {
			pools[i] = b.Build(ctx, p.ID, p.Caption)
			return nil
		})
	}
	// Build не возвращает ошибок, Wait нужен только для ожидания.
	_ = g.Wait()
	return pools
}

// assignPool присваивает кандидатам детерминированные id и аватары.
func assignPool(postID string, candidates []models.CommentCandidate) []models.Comment {
	pool := make([]models.Comment, len(candidates))
	for i, c := range candidates {
		author := strings.TrimSpace(c.Author)
		if author == "" {
			author = defaultAuthor
		}
		text := strings.TrimSpace(c.Text)
		if text == "" {
			text = defaultText
		}
		pool[i] = models.Comment{
			ID:     fmt.Sprintf("c-%s-%d", postID, i),
			Author: author,
			Avatar: fmt.Sprintf("https://picsum.photos/seed/%s-%d/100/100", postID, i),
			Text:   text,
			Likes:  max(0, c.LikeSeed),
		}
	}
	return pool
}
