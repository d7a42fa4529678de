package routing

import (
	"math"
	"slices"
)

// TotalCompare сравнивает числа в полном порядке IEEE 754:
// -NaN < -Inf < ... < -0 < +0 < ... < +Inf < +NaN.
func TotalCompare(a, b float64) int {
	x, y := totalKey(a), totalKey(b)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func totalKey(f float64) int64 {
	bits := int64(math.Float64bits(f))
	return bits ^ int64(uint64(bits>>63)>>1)
}

// RankDescending сортирует элементы по убыванию оценки. При равенстве сохраняется входной порядок.
func RankDescending[T any](items []T, score func(T) float64) {
	slices.SortStableFunc(items, func(a, b T) int {
		return TotalCompare(score(b), score(a))
	})
}
