package growth

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"zentok/internal/bus"
	"zentok/models"
)

// DefaultTickInterval задаёт период тика по умолчанию.
const DefaultTickInterval = 5 * time.Second

// CommentNotificationText — текст уведомления владельцу поста о новом комментарии.
const CommentNotificationText = "commented on your video"

// Notifier принимает уведомления, которые генерирует симуляция.
type Notifier interface {
	Emit(author string, kind models.NotificationKind, message string) models.Notification
}

// Reveal описывает комментарий, появившийся под постом во время тика.
type Reveal struct {
	PostID       string
	AuthorHandle string
	Index        int
	Comment      models.Comment
}

// Change публикуется подписчикам каждый раз, когда меняется снимок ленты.
type Change struct {
	At      time.Time
	Reveals []Reveal
}

// TickResult описывает итог одного тика.
type TickResult struct {
	Changed    bool
	Skipped    int
	Reveals    []Reveal
	Overlapped bool
}

// ClockConfig настраивает часы. Нулевые поля заменяются значениями по умолчанию.
type ClockConfig struct {
	Interval time.Duration
	Now      func() time.Time
	Rand     Rand
}

// Clock владеет записями роста, тикает с фиксированным периодом и публикует неизменяемые снимки.
// Таймер взведён только пока есть активная сессия и хотя бы одна запись.
type Clock struct {
	interval time.Duration
	now      func() time.Time
	rng      Rand
	notifier Notifier
	logger   *zap.Logger

	mu      sync.Mutex
	records []*Record
	owner   string
	active  bool
	cancel  context.CancelFunc
	done    chan struct{}

	ticking  atomic.Bool
	snapshot atomic.Pointer[[]models.PostSnapshot]
	changes  *bus.Bus[Change]
}

// NewClock создаёт остановленные часы. notifier может быть nil.
func NewClock(cfg ClockConfig, notifier Notifier, logger *zap.Logger) *Clock {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultTickInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Rand == nil {
		cfg.Rand = DefaultRand
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Clock{
		interval: cfg.Interval,
		now:      cfg.Now,
		rng:      cfg.Rand,
		notifier: notifier,
		logger:   logger.Named("clock"),
		changes:  bus.New[Change](),
	}
	empty := []models.PostSnapshot{}
	c.snapshot.Store(&empty)
	return c
}

// StartSession активирует сессию пользователя owner. Повторный вызов только меняет владельца,
// второй таймер не создаётся.
func (c *Clock) StartSession(owner string) {
	c.mu.Lock()
	c.owner = owner
	c.active = true
	wait := c.reconcileLocked()
	c.mu.Unlock()
	wait()
}

// EndSession завершает сессию и останавливает таймер, дожидаясь выхода цикла.
func (c *Clock) EndSession() {
	c.mu.Lock()
	c.owner = ""
	c.active = false
	wait := c.reconcileLocked()
	c.mu.Unlock()
	wait()
}

// Replace заменяет коллекцию записей целиком. Пустая коллекция останавливает таймер.
func (c *Clock) Replace(records []*Record) {
	c.mu.Lock()
	c.records = records
	activeRecords.Set(float64(len(records)))
	c.publishLocked(c.now(), nil)
	wait := c.reconcileLocked()
	c.mu.Unlock()
	wait()
}

// Running сообщает, взведён ли таймер.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Close останавливает часы и отключает подписчиков.
func (c *Clock) Close() {
	c.EndSession()
	c.changes.Close()
}

// Snapshot возвращает последний опубликованный снимок ленты. Срез нельзя изменять.
func (c *Clock) Snapshot() []models.PostSnapshot {
	return *c.snapshot.Load()
}

// Lookup ищет пост в последнем снимке.
func (c *Clock) Lookup(postID string) (models.PostSnapshot, bool) {
	for _, s := range c.Snapshot() {
		if s.PostID == postID {
			return s, true
		}
	}
	return models.PostSnapshot{}, false
}

// Plans возвращает планы всех текущих записей.
func (c *Clock) Plans() []models.GrowthPlan {
	c.mu.Lock()
	defer c.mu.Unlock()
	plans := make([]models.GrowthPlan, len(c.records))
	for i, r := range c.records {
		plans[i] = r.Plan()
	}
	return plans
}

// Subscribe подписывает канал на события изменения снимка.
func (c *Clock) Subscribe(id string, ch chan<- Change) error {
	return c.changes.Subscribe(id, ch)
}

// Unsubscribe отписывает канал.
func (c *Clock) Unsubscribe(id string) error {
	return c.changes.Unsubscribe(id)
}

// Stats возвращает счётчики шины событий изменения снимка.
func (c *Clock) Stats() bus.Stats {
	return c.changes.Stats()
}

// Tick выполняет один шаг симуляции для всех записей. Перекрывающиеся вызовы пропускаются.
func (c *Clock) Tick(now time.Time) TickResult {
	if !c.ticking.CompareAndSwap(false, true) {
		tickTotal.WithLabelValues("overlap").Inc()
		return TickResult{Overlapped: true}
	}
	defer c.ticking.Store(false)

	started := time.Now()
	defer func() { tickDuration.Observe(time.Since(started).Seconds()) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.records) == 0 {
		tickTotal.WithLabelValues("idle").Inc()
		return TickResult{}
	}

	var res TickResult
	for _, rec := range c.records {
		step, err := c.project(rec, now)
		if err != nil {
			res.Skipped++
			recordsSkipped.Inc()
			c.logger.Warn("запись пропущена в тике", zap.String("post_id", rec.PostID), zap.Error(err))
			continue
		}
		if !step.Changed {
			continue
		}
		first := rec.NextRevealIndex
		rec.apply(step)
		res.Changed = true

		for i, comment := range step.RevealedThisTick {
			res.Reveals = append(res.Reveals, Reveal{
				PostID:       rec.PostID,
				AuthorHandle: rec.AuthorHandle,
				Index:        first + i,
				Comment:      comment,
			})
			if c.notifier != nil && c.owner != "" && rec.AuthorHandle == c.owner {
				c.notifier.Emit(comment.Author, models.NotificationComment, CommentNotificationText)
			}
		}
	}
	commentsRevealed.Add(float64(len(res.Reveals)))

	if !res.Changed {
		tickTotal.WithLabelValues("unchanged").Inc()
		return res
	}
	tickTotal.WithLabelValues("changed").Inc()
	c.publishLocked(now, res.Reveals)
	return res
}

// project защищает тик от паники на одной записи.
func (c *Clock) project(rec *Record, now time.Time) (step Step, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("projection panic: %v", r)
		}
	}()
	return Project(rec, now, c.rng)
}

func (c *Clock) publishLocked(now time.Time, reveals []Reveal) {
	snap := make([]models.PostSnapshot, len(c.records))
	for i, r := range c.records {
		snap[i] = r.Snapshot()
	}
	c.snapshot.Store(&snap)
	c.changes.Publish(Change{At: now, Reveals: reveals})
}

// reconcileLocked взводит или снимает таймер по текущему состоянию.
// Возвращает функцию ожидания остановки цикла, её нужно вызывать без удержания mu.
func (c *Clock) reconcileLocked() func() {
	want := c.active && len(c.records) > 0
	switch {
	case want && c.cancel == nil:
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		c.cancel, c.done = cancel, done
		go c.run(ctx, done)
		c.logger.Debug("таймер симуляции запущен", zap.Duration("interval", c.interval))
	case !want && c.cancel != nil:
		cancel, done := c.cancel, c.done
		c.cancel, c.done = nil, nil
		cancel()
		c.logger.Debug("таймер симуляции остановлен")
		return func() { <-done }
	}
	return func() {}
}

func (c *Clock) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			c.Tick(c.now())
		}
	}
}
