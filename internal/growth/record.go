package growth

import (
	"time"

	"zentok/models"
)

// Record хранит состояние симуляции одного поста. Меняется только в тике Clock.
type Record struct {
	PostID       string
	AuthorHandle string
	Caption      string
	VideoURL     string
	CreatedAt    time.Time

	Base     models.Counters
	Target   models.Counters
	Exponent float64
	Pool     []models.Comment

	Current         models.Counters
	NextRevealIndex int
	LiveViewers     int
}

// NewRecord создаёт запись из поста и плана роста. Счётчики стартуют с базовых значений,
// курсор показа берётся из плана (для сохранённых планов он уже может быть сдвинут).
func NewRecord(post models.Post, plan models.GrowthPlan) *Record {
	next := plan.NextRevealIndex
	if next < 0 {
		next = 0
	}
	if next > len(plan.Pool) {
		next = len(plan.Pool)
	}
	base := post.Base.Normalize()
	return &Record{
		PostID:          post.ID,
		AuthorHandle:    post.AuthorHandle,
		Caption:         post.Caption,
		VideoURL:        post.VideoURL,
		CreatedAt:       post.CreatedAt,
		Base:            base,
		Target:          plan.Target,
		Exponent:        plan.Exponent,
		Pool:            plan.Pool,
		Current:         base,
		NextRevealIndex: next,
	}
}

// Prime выполняет первичный расчёт при загрузке: без шума и без уведомлений,
// чтобы старые посты сразу показывали накопленный рост.
func (r *Record) Prime(now time.Time, rng Rand) {
	if rng == nil {
		rng = DefaultRand
	}
	step, err := Project(r, now, zeroRand{})
	if err != nil {
		return
	}
	r.apply(step)
	if step.Settled {
		r.LiveViewers = 0
		return
	}
	r.LiveViewers = rng.IntN(liveViewersCap)
}

// Revealed возвращает показанные комментарии, то есть префикс пула.
func (r *Record) Revealed() []models.Comment {
	n := r.cursor()
	return r.Pool[:n:n]
}

// Settled сообщает, что пост закончил рост: цели достигнуты и весь пул показан.
func (r *Record) Settled() bool {
	return r.Current == r.Target && r.NextRevealIndex == len(r.Pool)
}

// Plan возвращает сохраняемую часть записи.
func (r *Record) Plan() models.GrowthPlan {
	return models.GrowthPlan{
		PostID:          r.PostID,
		CreatedAt:       r.CreatedAt,
		Target:          r.Target,
		Exponent:        r.Exponent,
		Pool:            r.Pool,
		NextRevealIndex: r.NextRevealIndex,
	}
}

// Snapshot строит неизменяемое представление для ленты.
func (r *Record) Snapshot() models.PostSnapshot {
	revealed := make([]models.Comment, r.cursor())
	copy(revealed, r.Revealed())
	return models.PostSnapshot{
		PostID:           r.PostID,
		AuthorHandle:     r.AuthorHandle,
		VideoURL:         r.VideoURL,
		Caption:          r.Caption,
		CreatedAt:        r.CreatedAt,
		Counters:         r.Current,
		RevealedComments: revealed,
		CommentCount:     len(revealed),
		LiveViewers:      r.LiveViewers,
		Settled:          r.Settled(),
	}
}

// cursor возвращает курсор показа, ограниченный размером пула.
func (r *Record) cursor() int {
	return clamp(r.NextRevealIndex, 0, len(r.Pool))
}

func (r *Record) apply(step Step) {
	r.Current = step.Current
	r.NextRevealIndex = step.NextRevealIndex
	r.LiveViewers = step.LiveViewers
}
