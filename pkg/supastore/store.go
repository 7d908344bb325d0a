// Package supastore хранит посты в Supabase через PostgREST.
package supastore

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"zentok/models"
)

const (
	videosTable   = "videos"
	videosColumns = "id,user_id,video_url,caption,created_at,views_count,likes_count,shares_count,saves_count,profiles(username)"

	// DefaultFeedLimit ограничивает ленту последними видео.
	DefaultFeedLimit = 50
)

type profileRow struct {
	Username string `json:"username"`
}

type videoRow struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	VideoURL  string      `json:"video_url"`
	Caption   *string     `json:"caption"`
	CreatedAt time.Time   `json:"created_at"`
	Views     int         `json:"views_count"`
	Likes     int         `json:"likes_count"`
	Shares    int         `json:"shares_count"`
	Saves     int         `json:"saves_count"`
	Profile   *profileRow `json:"profiles,omitempty"`
}

type insertRow struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	VideoURL string `json:"video_url"`
	Caption  string `json:"caption"`
}

// Store читает и пишет таблицу videos через клиент Supabase.
type Store struct {
	Limit int

	client *supabase.Client
	logger *zap.Logger
}

// New создаёт клиент Supabase. key — service role или anon key проекта.
func New(url, key string, logger *zap.Logger) (*Store, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create supabase client")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, Limit: DefaultFeedLimit, logger: logger.Named("supabase")}, nil
}

// LoadPosts возвращает последние видео, новые первыми.
// Клиент PostgREST не принимает контекст, поэтому ctx проверяется только до запроса.
func (s *Store) LoadPosts(ctx context.Context) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := s.client.From(videosTable).
		Select(videosColumns, "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false})
	if s.Limit > 0 {
		query = query.Limit(s.Limit, "")
	}

	var rows []videoRow
	if _, err := query.ExecuteTo(&rows); err != nil {
		return nil, errors.Wrap(err, "select videos")
	}
	posts := toPosts(rows)
	s.logger.Debug("видео загружены", zap.Int("count", len(posts)))
	return posts, nil
}

// CreatePost вставляет видео с нулевыми счётчиками и возвращает созданную строку.
func (s *Store) CreatePost(ctx context.Context, in models.NewPost) (models.Post, error) {
	if err := ctx.Err(); err != nil {
		return models.Post{}, err
	}
	row := insertRow{ID: uuid.NewString(), UserID: in.AuthorID, VideoURL: in.VideoURL, Caption: in.Caption}

	var inserted []videoRow
	if _, err := s.client.From(videosTable).Insert(row, false, "", "representation", "").ExecuteTo(&inserted); err != nil {
		return models.Post{}, errors.Wrap(err, "insert video")
	}
	if len(inserted) == 0 {
		return models.Post{}, errors.New("insert video: empty response")
	}
	s.logger.Info("видео создано", zap.String("post_id", inserted[0].ID))
	return toPost(inserted[0]), nil
}

// DeletePost удаляет видео по id. Если строки нет, возвращает models.ErrPostNotFound.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var deleted []videoRow
	if _, err := s.client.From(videosTable).Delete("representation", "").Eq("id", id).ExecuteTo(&deleted); err != nil {
		return errors.Wrapf(err, "delete video %s", id)
	}
	if len(deleted) == 0 {
		return models.ErrPostNotFound
	}
	return nil
}

func toPost(r videoRow) models.Post {
	p := models.Post{
		ID:           r.ID,
		AuthorID:     r.UserID,
		AuthorHandle: "anon_user",
		VideoURL:     r.VideoURL,
		CreatedAt:    r.CreatedAt,
		Base:         models.Counters{Views: r.Views, Likes: r.Likes, Shares: r.Shares, Saves: r.Saves},
	}
	if r.Caption != nil {
		p.Caption = *r.Caption
	}
	if r.Profile != nil && r.Profile.Username != "" {
		p.AuthorHandle = r.Profile.Username
	}
	return p
}

// toPosts сохраняет порядок строк: сортировку и лимит выполняет PostgREST.
func toPosts(rows []videoRow) []models.Post {
	posts := make([]models.Post, len(rows))
	for i, r := range rows {
		posts[i] = toPost(r)
	}
	return posts
}
