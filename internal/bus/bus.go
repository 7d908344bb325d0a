// Package bus раздаёт события нескольким подписчикам через каналы.
//
// Publish никогда не блокируется: если канал подписчика заполнен, событие для него
// отбрасывается и учитывается в статистике. Подписчику важнее свежее состояние, чем очередь.
package bus

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrSubscriberExists возвращается при повторной подписке с тем же id.
	ErrSubscriberExists = errors.New("subscriber id already exists")
	// ErrSubscriberNotFound возвращается при отписке неизвестного id.
	ErrSubscriberNotFound = errors.New("subscriber id not found")
	// ErrBusClosed возвращается после Close.
	ErrBusClosed = errors.New("bus is closed")
)

// Stats собирает счётчики шины.
type Stats struct {
	Published   uint64
	Sent        uint64
	Dropped     uint64
	Subscribers int
}

// Bus рассылает значения типа T подписчикам, не блокируя отправителя.
type Bus[T any] struct {
	mu          sync.RWMutex
	subscribers map[string]chan<- T
	closed      bool

	published atomic.Uint64
	sent      atomic.Uint64
	dropped   atomic.Uint64
}

// New создаёт пустую шину.
func New[T any]() *Bus[T] {
	return &Bus[T]{subscribers: make(map[string]chan<- T)}
}

// Subscribe регистрирует канал подписчика. Канал остаётся во владении подписчика и шиной не закрывается.
func (b *Bus[T]) Subscribe(id string, ch chan<- T) error {
	if ch == nil {
		return errors.New("subscriber channel cannot be nil")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	if _, exists := b.subscribers[id]; exists {
		return ErrSubscriberExists
	}
	b.subscribers[id] = ch
	return nil
}

// Unsubscribe удаляет подписчика.
func (b *Bus[T]) Unsubscribe(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	if _, exists := b.subscribers[id]; !exists {
		return ErrSubscriberNotFound
	}
	delete(b.subscribers, id)
	return nil
}

// Publish отправляет значение всем подписчикам без ожидания.
// После Close вызов ничего не делает.
func (b *Bus[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	b.published.Add(1)
	for _, ch := range b.subscribers {
		select {
		case ch <- v:
			b.sent.Add(1)
		default:
			b.dropped.Add(1)
		}
	}
}

// Stats возвращает текущие счётчики.
func (b *Bus[T]) Stats() Stats {
	b.mu.RLock()
	n := len(b.subscribers)
	b.mu.RUnlock()
	return Stats{
		Published:   b.published.Load(),
		Sent:        b.sent.Load(),
		Dropped:     b.dropped.Load(),
		Subscribers: n,
	}
}

// Close отключает всех подписчиков. Повторный вызов безопасен.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subscribers = make(map[string]chan<- T)
}
