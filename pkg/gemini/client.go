// Package gemini обращается к Gemini за пулом комментариев и оценкой потенциала видео.
package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"zentok/models"
)

const (
	DefaultModel = "gemini-2.0-flash"
	// Столько комментариев просим у модели.
	PoolSize = 10

	defaultTimeout = 20 * time.Second
)

// ErrDisabled: клиент создан без ключа API.
var ErrDisabled = errors.New("gemini is not configured")

// Нулевые поля заменяются значениями по умолчанию.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// RPS и Burst ограничивают частоту запросов к API.
	RPS   float64
	Burst int
	// После FailureThreshold неудач подряд предохранитель размыкается на OpenTimeout.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Client — генератор комментариев и оценщик потенциала поверх genai.
type Client struct {
	models  *genai.Models
	model   string
	timeout time.Duration
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrDisabled
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}
	return newClient(client.Models, cfg, logger), nil
}

func newClient(m *genai.Models, cfg Config, logger *zap.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 2
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("gemini")

	threshold := cfg.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("состояние предохранителя изменилось",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		models:  m,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		breaker: breaker,
		logger:  logger,
	}
}

// GenerateCommentPool просит модель написать комментарии к видео с подписью caption.
func (c *Client) GenerateCommentPool(ctx context.Context, caption string) ([]models.CommentCandidate, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   commentSchema,
	}
	text, err := c.generate(ctx, genai.Text(commentPrompt(caption)), cfg)
	if err != nil {
		return nil, err
	}
	pool, err := ParseCommentPool(text)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("пул комментариев получен", zap.Int("size", len(pool)))
	return pool, nil
}

// ScoreUploadPotential оценивает вирусный потенциал видео числом от 0 до 100.
func (c *Client) ScoreUploadPotential(ctx context.Context, video []byte, mimeType, caption string) (int, error) {
	if mimeType == "" {
		mimeType = "video/mp4"
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(video, mimeType),
			genai.NewPartFromText(scorePrompt(caption)),
		}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   scoreSchema,
	}
	text, err := c.generate(ctx, contents, cfg)
	if err != nil {
		return 0, err
	}
	return ParseScore(text)
}

// generate выполняет запрос с ограничением частоты, тайм-аутом и предохранителем.
func (c *Client) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "rate limit")
	}
	out, err := c.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		resp, err := c.models.GenerateContent(callCtx, c.model, contents, cfg)
		if err != nil {
			return nil, err
		}
		return resp.Text(), nil
	})
	if err != nil {
		return "", errors.Wrap(err, "generate content")
	}
	return out.(string), nil
}

var commentSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"user":  {Type: genai.TypeString},
			"text":  {Type: genai.TypeString},
			"likes": {Type: genai.TypeNumber},
		},
		Required: []string{"user", "text", "likes"},
	},
}

var scoreSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"score": {Type: genai.TypeInteger},
	},
	Required: []string{"score"},
}

func commentPrompt(caption string) string {
	if caption == "" {
		caption = "an authentic video"
	}
	return fmt.Sprintf(`You are a group of diverse users on a short-video social network.
Write %d short comments (at most 12 words each), realistic and varied, for a video captioned: %q.

Mix of comments:
- 60%%: very positive and enthusiastic.
- 25%%: neutral, curious or casual.
- 15%%: mild constructive criticism, never toxic.

Rules:
- Use natural social-media language with minor typos, abbreviations and emojis.
- Usernames must look real (e.g. lucia.99, x_pablo_x, dev_master).
- Do not make every comment sound the same.
- "likes" is how many likes the comment already has, between 0 and 200.`, PoolSize, caption)
}

func scorePrompt(caption string) string {
	return fmt.Sprintf(`Rate how likely this short video is to go viral on a short-video social network.
Consider hook, pacing, visual quality, authenticity and the caption %q.
Return a single integer "score" from 0 (no chance) to 100 (certain hit).`, caption)
}
