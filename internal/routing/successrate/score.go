package successrate

import (
	"math"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
)

// WeightedSuccessRate считает взвешенную долю успехов в процентах.
// Блок на позиции i (с 1, от старых к новым) получает вес i / (n(n+1)/2).
// Результат округляется вниз до двух знаков. Блоки без попыток дают долю 0.
func WeightedSuccessRate(aggregates []domain.Block) float64 {
	n := len(aggregates)
	if n == 0 {
		return 0
	}
	denom := float64(n) * float64(n+1) / 2

	var sum float64
	for i, b := range aggregates {
		if b.TotalCount == 0 {
			continue
		}
		rate := float64(b.SuccessCount) / float64(b.TotalCount)
		sum += rate * float64(i+1) / denom
	}
	return math.Floor(sum*100*100) / 100
}

// appendEvicting добавляет блок в конец и вытесняет самые старые сверх limit.
func appendEvicting(aggregates []domain.Block, b domain.Block, limit int) []domain.Block {
	aggregates = append(aggregates, b)
	if over := len(aggregates) - limit; over > 0 {
		aggregates = aggregates[over:]
	}
	return aggregates
}
