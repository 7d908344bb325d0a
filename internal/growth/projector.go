package growth

import (
	"math"
	"time"

	"github.com/go-faster/errors"

	"zentok/models"
)

const (
	// GrowthWindow — окно, за которое счётчики поста доходят до целей.
	GrowthWindow = 1440 * time.Minute

	// Шум просмотров: 0, 1 или 2.
	viewNoiseSpan = 3

	liveViewersCap  = 50
	liveViewersStep = 2
)

// ErrMalformedRecord: состояние записи нарушает инварианты, тик её пропускает.
var ErrMalformedRecord = errors.New("malformed growth record")

// Step описывает результат одного шага проекции.
type Step struct {
	Current          models.Counters
	Revealed         []models.Comment
	NextRevealIndex  int
	RevealedThisTick []models.Comment
	LiveViewers      int
	Changed          bool
	Settled          bool
}

// Project вычисляет следующий снимок счётчиков записи на момент now. Запись не меняется.
func Project(rec *Record, now time.Time, rng Rand) (Step, error) {
	if err := rec.validate(); err != nil {
		return Step{}, err
	}
	if rng == nil {
		rng = DefaultRand
	}

	elapsed := now.Sub(rec.CreatedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed >= GrowthWindow {
		return settle(rec), nil
	}

	progress := math.Min(1, math.Pow(elapsed.Minutes()/GrowthWindow.Minutes(), rec.Exponent))
	expected := int(math.Floor(float64(rec.Target.Views) * progress))
	noisy := expected + rng.IntN(viewNoiseSpan)
	views := clamp(noisy, rec.Current.Views, rec.Target.Views)

	ip := InteractionProgress(views, rec.Target.Views)
	current := models.Counters{
		Views:  views,
		Likes:  dependent(rec.Target.Likes, rec.Current.Likes, ip),
		Shares: dependent(rec.Target.Shares, rec.Current.Shares, ip),
		Saves:  dependent(rec.Target.Saves, rec.Current.Saves, ip),
	}

	next := rec.NextRevealIndex
	for next < len(rec.Pool) && RevealThreshold(next, len(rec.Pool)) <= ip {
		next++
	}

	step := Step{
		Current:          current,
		Revealed:         rec.Pool[:next:next],
		NextRevealIndex:  next,
		RevealedThisTick: rec.Pool[rec.NextRevealIndex:next:next],
		LiveViewers:      walkViewers(rec.LiveViewers, rng),
	}
	step.Changed = current != rec.Current || next != rec.NextRevealIndex || step.LiveViewers != rec.LiveViewers
	return step, nil
}

// settle доводит запись до целей по истечении окна. Повторный вызов ничего не меняет.
func settle(rec *Record) Step {
	n := len(rec.Pool)
	step := Step{
		Current:          rec.Target,
		Revealed:         rec.Pool[:n:n],
		NextRevealIndex:  n,
		RevealedThisTick: rec.Pool[rec.NextRevealIndex:n:n],
		LiveViewers:      0,
		Settled:          true,
	}
	step.Changed = rec.Current != rec.Target || rec.NextRevealIndex != n || rec.LiveViewers != 0
	return step
}

// InteractionProgress возвращает долю набранных просмотров от цели. Нулевая цель считается пройденной.
func InteractionProgress(views, targetViews int) float64 {
	if targetViews <= 0 {
		return 1
	}
	return math.Min(1, float64(views)/float64(targetViews))
}

// RevealThreshold возвращает прогресс взаимодействий, после которого показывается комментарий i из пула размера n.
func RevealThreshold(i, n int) float64 {
	return float64(i+1) / float64(n+1)
}

// dependent вычисляет зависимый счётчик: он следует за прогрессом просмотров и не убывает.
func dependent(target, current int, ip float64) int {
	return clamp(int(math.Floor(float64(target)*ip)), current, target)
}

func walkViewers(live int, rng Rand) int {
	return clamp(live+rng.IntN(2*liveViewersStep+1)-liveViewersStep, 0, liveViewersCap)
}

// clamp ограничивает v снизу lo и сверху hi; нижняя граница важнее.
func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func (r *Record) validate() error {
	switch {
	case math.IsNaN(r.Exponent) || math.IsInf(r.Exponent, 0) || r.Exponent <= 0:
		return errors.Wrapf(ErrMalformedRecord, "exponent %v", r.Exponent)
	case r.Base != r.Base.Normalize():
		return errors.Wrap(ErrMalformedRecord, "negative base counters")
	case !r.Base.AtMost(r.Target):
		return errors.Wrap(ErrMalformedRecord, "target below base")
	case !r.Base.AtMost(r.Current) || !r.Current.AtMost(r.Target):
		return errors.Wrap(ErrMalformedRecord, "current outside [base, target]")
	case r.NextRevealIndex < 0 || r.NextRevealIndex > len(r.Pool):
		return errors.Wrapf(ErrMalformedRecord, "reveal cursor %d outside pool of %d", r.NextRevealIndex, len(r.Pool))
	}
	return nil
}
