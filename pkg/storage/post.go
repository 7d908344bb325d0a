package storage

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"zentok/models"
)

const selectPosts = `
        SELECT v.id, v.user_id, COALESCE(p.username, ''), v.video_url, COALESCE(v.caption, ''),
               v.created_at, v.views_count, v.likes_count, v.shares_count, v.saves_count
        FROM videos v
        LEFT JOIN profiles p ON p.id = v.user_id
        ORDER BY v.created_at DESC
        LIMIT $1
`

const insertPost = `
        WITH inserted AS (
                INSERT INTO videos (id, user_id, video_url, caption)
                VALUES ($1, $2, $3, $4)
                RETURNING id, user_id, video_url, caption, created_at, views_count, likes_count, shares_count, saves_count
        )
        SELECT i.id, i.user_id, COALESCE(p.username, ''), i.video_url, COALESCE(i.caption, ''),
               i.created_at, i.views_count, i.likes_count, i.shares_count, i.saves_count
        FROM inserted i
        LEFT JOIN profiles p ON p.id = i.user_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (models.Post, error) {
	var (
		p       models.Post
		created time.Time
	)
	err := row.Scan(
		&p.ID,
		&p.AuthorID,
		&p.AuthorHandle,
		&p.VideoURL,
		&p.Caption,
		&created,
		&p.Base.Views,
		&p.Base.Likes,
		&p.Base.Shares,
		&p.Base.Saves,
	)
	if err != nil {
		return models.Post{}, err
	}
	p.CreatedAt = created
	if p.AuthorHandle == "" {
		p.AuthorHandle = "anon_user"
	}
	return p, nil
}

// LoadPosts возвращает последние видео, новые первыми.
func (db *DB) LoadPosts(ctx context.Context) ([]models.Post, error) {
	limit := db.Limit
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	rows, err := db.Conn.QueryContext(ctx, selectPosts, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query videos")
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			// Пропускаем проблемные строки
			db.logger.Warn("строка videos не прочитана", zap.Error(err))
			continue
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate videos")
	}

	db.logger.Debug("видео загружены", zap.Int("count", len(posts)))
	return posts, nil
}

// CreatePost записывает новое видео с нулевыми счётчиками.
func (db *DB) CreatePost(ctx context.Context, in models.NewPost) (models.Post, error) {
	id := uuid.NewString()
	p, err := scanPost(db.Conn.QueryRowContext(ctx, insertPost, id, in.AuthorID, in.VideoURL, in.Caption))
	if err != nil {
		return models.Post{}, errors.Wrap(err, "insert video")
	}
	db.logger.Info("видео создано", zap.String("post_id", p.ID))
	return p, nil
}

// DeletePost удаляет видео. Если строки нет, возвращает models.ErrPostNotFound.
func (db *DB) DeletePost(ctx context.Context, id string) error {
	res, err := db.Conn.ExecContext(ctx, "DELETE FROM videos WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "delete video")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return models.ErrPostNotFound
	}
	return nil
}
