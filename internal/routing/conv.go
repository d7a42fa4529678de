package routing

import (
	"fmt"
	"math"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
)

// ToInt64 сужает uint64 до int64 без молчаливого усечения.
func ToInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d overflows int64", domain.ErrTypeConversion, v)
	}
	return int64(v), nil
}
