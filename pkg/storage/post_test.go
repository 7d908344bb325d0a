package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"zentok/models"
)

type postTestDriver struct{}

type postTestConn struct{}

type postTestRows struct {
	columns []string
	data    [][]driver.Value
	idx     int
}

type postTestResult struct{ affected int64 }

var (
	// postRows имитирует результат выборки из videos.
	postRows [][]driver.Value
	// Число строк, которые удаляет DELETE.
	postAffected int64
	// postArgs и postQuery запоминают последний запрос.
	postArgs  []driver.NamedValue
	postQuery string
)

var postColumns = []string{"id", "user_id", "username", "video_url", "caption", "created_at", "views_count", "likes_count", "shares_count", "saves_count"}

func (postTestDriver) Open(name string) (driver.Conn, error) { return &postTestConn{}, nil }

func (c *postTestConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("not implemented")
}
func (c *postTestConn) Close() error              { return nil }
func (c *postTestConn) Begin() (driver.Tx, error) { return nil, errors.New("not implemented") }

func (c *postTestConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	postArgs, postQuery = args, query
	switch {
	case strings.Contains(query, "INSERT INTO videos"):
		created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		return &postTestRows{columns: postColumns, data: [][]driver.Value{{
			args[0].Value, args[1].Value, "me", args[2].Value, args[3].Value, created,
			int64(0), int64(0), int64(0), int64(0),
		}}}, nil
	case strings.Contains(query, "FROM videos"):
		return &postTestRows{columns: postColumns, data: postRows}, nil
	default:
		return nil, errors.New("unexpected query")
	}
}

func (c *postTestConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	postArgs = args
	return postTestResult{affected: postAffected}, nil
}

func (postTestResult) LastInsertId() (int64, error)   { return 0, nil }
func (r postTestResult) RowsAffected() (int64, error) { return r.affected, nil }

func (r *postTestRows) Columns() []string { return r.columns }
func (r *postTestRows) Close() error      { return nil }
func (r *postTestRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.idx])
	r.idx++
	return nil
}

func init() { sql.Register("postDummy", postTestDriver{}) }

func openPostDB(t *testing.T) *DB {
	t.Helper()
	conn, err := sql.Open("postDummy", "")
	if err != nil {
		t.Fatalf("не удалось открыть мок БД: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewDB(conn, nil)
}

func TestLoadPosts(t *testing.T) {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	postRows = [][]driver.Value{
		{"v1", "u1", "alice", "https://cdn/v1.mp4", "sunset [VP:72]", created, int64(120), int64(10), int64(2), int64(1)},
		{"v2", "u2", "", "https://cdn/v2.mp4", "", created, int64(0), int64(0), int64(0), int64(0)},
	}
	db := openPostDB(t)

	posts, err := db.LoadPosts(context.Background())
	if err != nil {
		t.Fatalf("ошибка загрузки: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("ожидалось 2 поста, получено %d", len(posts))
	}
	want := models.Counters{Views: 120, Likes: 10, Shares: 2, Saves: 1}
	if posts[0].Base != want {
		t.Fatalf("неверные счётчики: %+v", posts[0].Base)
	}
	if posts[0].Caption != "sunset [VP:72]" {
		t.Fatalf("подпись должна прийти без изменений: %q", posts[0].Caption)
	}
	if posts[1].AuthorHandle != "anon_user" {
		t.Fatalf("пустой автор должен замениться: %q", posts[1].AuthorHandle)
	}
	if len(postArgs) != 1 || postArgs[0].Value != int64(DefaultFeedLimit) {
		t.Fatalf("неверный лимит выборки: %+v", postArgs)
	}
	for _, col := range []string{"views_count", "likes_count", "shares_count", "saves_count"} {
		if !strings.Contains(postQuery, "v."+col) {
			t.Fatalf("в выборке нет колонки %s: %s", col, postQuery)
		}
	}
}

func TestLoadPostsSkipsBadRows(t *testing.T) {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	postRows = [][]driver.Value{
		{"v1", "u1", "alice", "url", "ok", created, "много", int64(0), int64(0), int64(0)},
		{"v2", "u1", "alice", "url", "ok", created, int64(5), int64(0), int64(0), int64(0)},
	}
	db := openPostDB(t)

	posts, err := db.LoadPosts(context.Background())
	if err != nil {
		t.Fatalf("ошибка загрузки: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != "v2" {
		t.Fatalf("ожидался только v2, получено %+v", posts)
	}
}

func TestCreatePost(t *testing.T) {
	db := openPostDB(t)

	p, err := db.CreatePost(context.Background(), models.NewPost{AuthorID: "u1", VideoURL: "https://cdn/new.mp4", Caption: "hi [VP:40]"})
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}
	if p.ID == "" || p.ID != postArgs[0].Value {
		t.Fatalf("id должен генерироваться на стороне приложения: %q", p.ID)
	}
	if p.AuthorHandle != "me" || p.Caption != "hi [VP:40]" {
		t.Fatalf("неверный пост: %+v", p)
	}
}

func TestDeletePost(t *testing.T) {
	db := openPostDB(t)

	postAffected = 1
	if err := db.DeletePost(context.Background(), "v1"); err != nil {
		t.Fatalf("ошибка удаления: %v", err)
	}

	postAffected = 0
	if err := db.DeletePost(context.Background(), "missing"); !errors.Is(err, models.ErrPostNotFound) {
		t.Fatalf("ожидалась ErrPostNotFound, получена: %v", err)
	}
}
