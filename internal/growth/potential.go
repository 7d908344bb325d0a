package growth

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Оценка потенциала хранится прямо в подписи скрытым тегом [VP:NN].
var potentialTag = regexp.MustCompile(`\s*\[VP:(\d+)\]`)

// ParsePotentialTag извлекает оценку из подписи и возвращает подпись без тега.
// Если тега нет или число не читается, оценка равна nil.
func ParsePotentialTag(caption string) (string, *int) {
	m := potentialTag.FindStringSubmatch(caption)
	clean := strings.TrimSpace(potentialTag.ReplaceAllString(caption, ""))
	if m == nil {
		return clean, nil
	}
	score, err := strconv.Atoi(m[1])
	if err != nil {
		return clean, nil
	}
	score = clampScore(score)
	return clean, &score
}

// TagPotential добавляет оценку к подписи. Старый тег, если он был, заменяется.
func TagPotential(caption string, score int) string {
	clean, _ := ParsePotentialTag(caption)
	tag := fmt.Sprintf("[VP:%d]", clampScore(score))
	if clean == "" {
		return tag
	}
	return clean + " " + tag
}
