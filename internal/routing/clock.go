package routing

import (
	"fmt"
	"time"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
)

// Clock - источник текущего времени. nil означает time.Now.
type Clock func() time.Time

// Now возвращает текущее время в секундах эпохи.
func (c Clock) Now() (int64, error) {
	now := time.Now
	if c != nil {
		now = c
	}
	ts := now().Unix()
	if ts < 0 {
		return 0, fmt.Errorf("%w: clock is before unix epoch (%d)", domain.ErrCurrentTime, ts)
	}
	return ts, nil
}
