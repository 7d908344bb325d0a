package growth

import (
	"math"

	"zentok/models"
)

// Корзины смещения просмотров: [min, min+span).
const (
	highOffsetMin, highOffsetSpan = 20000, 50000
	midOffsetMin, midOffsetSpan   = 1000, 5000
	lowOffsetMin, lowOffsetSpan   = 20, 300

	// Без оценки потенциала: 2% «везучих» постов и ещё 18% популярных.
	luckyRoll   = 0.98
	popularRoll = 0.8

	highScore = 80
	midScore  = 50

	minExponent  = 0.6
	exponentSpan = 0.4
)

// ComputeTargets вычисляет цели роста и показатель кривой для поста.
// При potentialScore == nil корзина выбирается случайным броском.
func ComputeTargets(base models.Counters, potentialScore *int, rng Rand) (models.Counters, float64) {
	if rng == nil {
		rng = DefaultRand
	}
	base = base.Normalize()

	offset := drawViewOffset(potentialScore, rng)
	likesDelta := int(math.Floor(float64(offset) * (0.05 + rng.Float64()*0.15)))

	target := models.Counters{
		Views: base.Views + offset,
		Likes: base.Likes + likesDelta,
	}
	target.Shares = base.Shares + int(math.Floor(float64(likesDelta)*rng.Float64()*0.2))
	target.Saves = base.Saves + int(math.Floor(float64(likesDelta)*rng.Float64()*0.3))

	exponent := minExponent + rng.Float64()*exponentSpan
	return target, exponent
}

// drawViewOffset выбирает корзину смещения просмотров.
func drawViewOffset(potentialScore *int, rng Rand) int {
	roll := rng.Float64()
	scored := potentialScore != nil
	score := 0
	if scored {
		score = clampScore(*potentialScore)
	}

	switch {
	case scored && score >= highScore, !scored && roll > luckyRoll:
		return highOffsetMin + rng.IntN(highOffsetSpan)
	case scored && score >= midScore, !scored && roll > popularRoll:
		return midOffsetMin + rng.IntN(midOffsetSpan)
	default:
		return lowOffsetMin + rng.IntN(lowOffsetSpan)
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// NewPlan собирает план роста для поста из рассчитанных целей и готового пула комментариев.
func NewPlan(post models.Post, pool []models.Comment, rng Rand) models.GrowthPlan {
	target, exponent := ComputeTargets(post.Base, post.PotentialScore, rng)
	return models.GrowthPlan{
		PostID:    post.ID,
		CreatedAt: post.CreatedAt,
		Target:    target,
		Exponent:  exponent,
		Pool:      pool,
	}
}

// PlanFits сообщает, подходит ли сохранённый план к текущим базовым счётчикам поста.
// Если реальные счётчики обогнали цель, план устарел и его нужно пересчитать.
func PlanFits(plan models.GrowthPlan, post models.Post) bool {
	if plan.PostID != post.ID || len(plan.Pool) == 0 {
		return false
	}
	if math.IsNaN(plan.Exponent) || plan.Exponent <= 0 {
		return false
	}
	return post.Base.Normalize().AtMost(plan.Target)
}
