// Package planstore хранит планы роста постов в локальной базе Badger,
// чтобы цели и пул комментариев не менялись между перезагрузками ленты.
package planstore

import (
	"context"
	"encoding/json"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"zentok/models"
)

// ErrNotFound: плана для поста нет.
var ErrNotFound = errors.New("growth plan not found")

const keyPrefix = "plan:"

// Store — хранилище планов роста.
type Store struct {
	db     *badger.DB
	logger *zap.Logger
}

// zapLogger переводит логи Badger в zap.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Errorf(format string, args ...interface{})   { l.s.Errorf(format, args...) }
func (l zapLogger) Warningf(format string, args ...interface{}) { l.s.Warnf(format, args...) }
func (l zapLogger) Infof(format string, args ...interface{})    { l.s.Debugf(format, args...) }
func (l zapLogger) Debugf(format string, args ...interface{})   { l.s.Debugf(format, args...) }

// Open открывает базу в каталоге path. Пустой path открывает базу в памяти.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("planstore")

	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, errors.Wrapf(err, "create plan directory %s", path)
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(zapLogger{s: logger.Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger")
	}
	return &Store{db: db, logger: logger}, nil
}

// OpenInMemory открывает временную базу в памяти.
func OpenInMemory(logger *zap.Logger) (*Store, error) {
	return Open("", logger)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func planKey(postID string) []byte {
	return []byte(keyPrefix + postID)
}

// LoadPlan читает план поста.
func (s *Store) LoadPlan(ctx context.Context, postID string) (models.GrowthPlan, error) {
	if err := ctx.Err(); err != nil {
		return models.GrowthPlan{}, err
	}
	var plan models.GrowthPlan
	err := s.db.View(func(txn *badger.Txn) error {
		p, err := getPlan(txn, postID)
		plan = p
		return err
	})
	return plan, err
}

// SavePlan записывает план целиком, заменяя прежний.
func (s *Store) SavePlan(ctx context.Context, plan models.GrowthPlan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if plan.PostID == "" {
		return errors.New("plan without post id")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return putPlan(txn, plan)
	})
}

// AdvanceCursor сдвигает курсор показа комментариев вперёд. Курсор никогда не уменьшается
// и не выходит за размер пула.
func (s *Store) AdvanceCursor(ctx context.Context, postID string, next int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		plan, err := getPlan(txn, postID)
		if err != nil {
			return err
		}
		next = min(next, len(plan.Pool))
		if next <= plan.NextRevealIndex {
			return nil
		}
		plan.NextRevealIndex = next
		return putPlan(txn, plan)
	})
}

// DeletePlan удаляет план поста.
func (s *Store) DeletePlan(ctx context.Context, postID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(planKey(postID)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(planKey(postID))
	})
}

// Count возвращает число сохранённых планов.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func getPlan(txn *badger.Txn, postID string) (models.GrowthPlan, error) {
	var plan models.GrowthPlan
	item, err := txn.Get(planKey(postID))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return plan, ErrNotFound
		}
		return plan, errors.Wrapf(err, "get plan %s", postID)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &plan)
	})
	if err != nil {
		return plan, errors.Wrapf(err, "decode plan %s", postID)
	}
	return plan, nil
}

func putPlan(txn *badger.Txn, plan models.GrowthPlan) error {
	val, err := json.Marshal(plan)
	if err != nil {
		return errors.Wrapf(err, "encode plan %s", plan.PostID)
	}
	return txn.Set(planKey(plan.PostID), val)
}
