package storage

import (
	"database/sql"

	"go.uber.org/zap"

	_ "github.com/lib/pq"
)

// DefaultFeedLimit ограничивает ленту последними видео.
const DefaultFeedLimit = 50

// DB — хранилище постов в PostgreSQL (таблицы videos и profiles).
type DB struct {
	Conn  *sql.DB
	Limit int

	logger *zap.Logger
}

func NewDB(conn *sql.DB, logger *zap.Logger) *DB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DB{Conn: conn, Limit: DefaultFeedLimit, logger: logger.Named("postgres")}
}

// Open подключается к базе по DSN и проверяет соединение.
func Open(dsn string, logger *zap.Logger) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return NewDB(conn, logger), nil
}

func (db *DB) Close() error {
	return db.Conn.Close()
}
