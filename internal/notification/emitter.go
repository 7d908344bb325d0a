package notification

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"zentok/internal/bus"
	"zentok/models"
)

const (
	// Текущее уведомление видно DefaultDisplay.
	DefaultDisplay = 3 * time.Second
	// Ёмкость истории по умолчанию.
	DefaultHistory = 200
)

var emittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "zentok_notifications_emitted_total",
	Help: "Уведомления, выпущенные эмиттером, по типу.",
}, []string{"kind"})

// Config настраивает эмиттер. Нулевые поля заменяются значениями по умолчанию.
type Config struct {
	Display time.Duration
	History int
	Now     func() time.Time
}

// Emitter хранит одно текущее уведомление, ограниченную историю и раздаёт поток событий подписчикам.
type Emitter struct {
	display time.Duration
	now     func() time.Time
	logger  *zap.Logger

	mu        sync.Mutex
	current   *models.Notification
	expiresAt time.Time
	history   *ring

	stream *bus.Bus[models.Notification]
}

func NewEmitter(cfg Config, logger *zap.Logger) *Emitter {
	if cfg.Display <= 0 {
		cfg.Display = DefaultDisplay
	}
	if cfg.History <= 0 {
		cfg.History = DefaultHistory
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{
		display: cfg.Display,
		now:     cfg.Now,
		logger:  logger.Named("notification"),
		history: newRing(cfg.History),
		stream:  bus.New[models.Notification](),
	}
}

// Emit создаёт уведомление и вытесняет текущее. Пустой автор заменяется на "zentok".
func (e *Emitter) Emit(author string, kind models.NotificationKind, message string) models.Notification {
	author = strings.TrimSpace(author)
	if author == "" {
		author = "zentok"
	}
	if kind == "" {
		kind = models.NotificationSystem
	}

	e.mu.Lock()
	now := e.now()
	n := models.Notification{
		ID:           uuid.NewString(),
		AuthorHandle: author,
		Kind:         kind,
		Message:      message,
		Timestamp:    now,
	}
	e.current = &n
	e.expiresAt = now.Add(e.display)
	e.history.push(n)
	e.mu.Unlock()

	emittedTotal.WithLabelValues(string(kind)).Inc()
	e.stream.Publish(n)
	e.logger.Debug("уведомление",
		zap.String("id", n.ID),
		zap.String("kind", string(kind)),
		zap.String("user", author))
	return n
}

// Current возвращает видимое уведомление. Истёкшее сбрасывается при обращении.
func (e *Emitter) Current() (models.Notification, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return models.Notification{}, false
	}
	if !e.now().Before(e.expiresAt) {
		e.current = nil
		return models.Notification{}, false
	}
	return *e.current, true
}

// Dismiss скрывает текущее уведомление.
func (e *Emitter) Dismiss() {
	e.mu.Lock()
	e.current = nil
	e.mu.Unlock()
}

// History возвращает историю от старых к новым.
func (e *Emitter) History() []models.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.items()
}

// Subscribe подписывает канал на поток уведомлений. Если канал заполнен, событие теряется.
func (e *Emitter) Subscribe(id string, ch chan<- models.Notification) error {
	return e.stream.Subscribe(id, ch)
}

func (e *Emitter) Unsubscribe(id string) error {
	return e.stream.Unsubscribe(id)
}

// Dropped возвращает число событий, потерянных из-за переполненных подписчиков.
func (e *Emitter) Dropped() uint64 {
	return e.stream.Stats().Dropped
}

func (e *Emitter) Close() {
	e.stream.Close()
}
