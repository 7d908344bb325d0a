package notification

import "zentok/models"

// ring: кольцевой буфер истории уведомлений фиксированной ёмкости.
// При переполнении вытесняются самые старые записи.
type ring struct {
	buf   []models.Notification
	start int
	size  int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]models.Notification, capacity)}
}

func (r *ring) push(n models.Notification) {
	if len(r.buf) == 0 {
		return
	}
	end := (r.start + r.size) % len(r.buf)
	r.buf[end] = n
	if r.size < len(r.buf) {
		r.size++
		return
	}
	r.start = (r.start + 1) % len(r.buf)
}

// items возвращает копию истории от старых к новым.
func (r *ring) items() []models.Notification {
	out := make([]models.Notification, r.size)
	for i := range out {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

func (r *ring) len() int { return r.size }
