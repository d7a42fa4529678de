package contract

import (
	"encoding/json"
	"fmt"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
)

// TimeScale - единица, в которой считается оставшееся до срока время.
type TimeScale string

const (
	TimeScaleDay   TimeScale = "day"
	TimeScaleMonth TimeScale = "month"
)

const (
	secondsPerDay   = 86400
	secondsPerMonth = secondsPerDay * 30
)

// Config - коэффициенты c0, c1 квадратичной оценки и необязательная шкала времени.
type Config struct {
	Constants []float64  `json:"constants"`
	TimeScale *TimeScale `json:"time_scale,omitempty"`
}

func ParseConfig(raw []byte) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("contract config: %w: %w", domain.ErrDeserializationFailed, err)
	}
	if cfg.TimeScale != nil {
		if _, err := cfg.divisor(); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// coefficients возвращает c0 и c1. Отсутствие любого из них - ошибка конфигурации.
func (c Config) coefficients() (float64, float64, error) {
	if len(c.Constants) < 1 {
		return 0, 0, fmt.Errorf("%w: constant c0 is missing", domain.ErrConfig)
	}
	if len(c.Constants) < 2 {
		return 0, 0, fmt.Errorf("%w: constant c1 is missing", domain.ErrConfig)
	}
	return c.Constants[0], c.Constants[1], nil
}

func (c Config) divisor() (float64, error) {
	if c.TimeScale == nil {
		return 1, nil
	}
	switch *c.TimeScale {
	case TimeScaleDay:
		return secondsPerDay, nil
	case TimeScaleMonth:
		return secondsPerMonth, nil
	default:
		return 0, fmt.Errorf("%w: unknown time_scale %q", domain.ErrConfig, *c.TimeScale)
	}
}
