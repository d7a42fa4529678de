package contract

import "github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"

const (
	// Градиент линейно переводится из [0, gradientDomainMax] в [0, normalizedMax].
	// Значения вне диапазона не обрезаются.
	gradientDomainMax = 100000
	normalizedMax     = 5
)

// Score оценивает контракт в момент now: чем больше осталось сделать и чем меньше осталось времени,
// тем выше оценка. Выполненный контракт получает ровно 0.
func Score(c domain.ContractMap, now int64, cfg Config) (float64, error) {
	c0, c1, err := cfg.coefficients()
	if err != nil {
		return 0, err
	}
	div, err := cfg.divisor()
	if err != nil {
		return 0, err
	}
	if c.CurrentCount >= c.TargetCount {
		return 0, nil
	}

	deltaY := float64(c.TargetCount - c.CurrentCount)
	deltaX := float64(c.TargetTime)/div - float64(now)/div
	gradient := deltaY / deltaX

	normalized := gradient / gradientDomainMax * normalizedMax
	return c0*normalized + c1*normalized*normalized, nil
}
