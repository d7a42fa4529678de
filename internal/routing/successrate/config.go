package successrate

import (
	"encoding/json"
	"fmt"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routing"
)

// SpecificityLevel определяет, по какому ключу сущности считается статистика меток запроса.
type SpecificityLevel string

const (
	SpecificityEntity SpecificityLevel = "entity"
	SpecificityGlobal SpecificityLevel = "global"
)

// CurrentBlockThreshold - условия закрытия текущего блока. Достаточно любого из них.
type CurrentBlockThreshold struct {
	DurationInMins *uint64 `json:"duration_in_mins,omitempty"`
	MaxTotalCount  uint64  `json:"max_total_count"`
}

// Config - конфигурация алгоритма success rate.
// Размеры списков приходят 32-битными, как в проводном протоколе.
type Config struct {
	MinAggregatesSize     uint32                `json:"min_aggregates_size"`
	MaxAggregatesSize     uint32                `json:"max_aggregates_size"`
	DefaultSuccessRate    float64               `json:"default_success_rate"`
	SpecificityLevel      SpecificityLevel      `json:"specificity_level,omitempty"`
	CurrentBlockThreshold CurrentBlockThreshold `json:"current_block_threshold"`
}

// ParseConfig разбирает конфигурацию из JSON и проверяет её.
func ParseConfig(raw []byte) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("success rate config: %w: %w", domain.ErrDeserializationFailed, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.MaxAggregatesSize == 0:
		return fmt.Errorf("%w: max_aggregates_size must be positive", domain.ErrConfig)
	case c.CurrentBlockThreshold.MaxTotalCount == 0:
		return fmt.Errorf("%w: current_block_threshold.max_total_count must be positive", domain.ErrConfig)
	case c.DefaultSuccessRate < 0 || c.DefaultSuccessRate > 100:
		return fmt.Errorf("%w: default_success_rate %v is out of [0, 100]", domain.ErrConfig, c.DefaultSuccessRate)
	}
	switch c.SpecificityLevel {
	case "", SpecificityEntity, SpecificityGlobal:
	default:
		return fmt.Errorf("%w: unknown specificity_level %q", domain.ErrConfig, c.SpecificityLevel)
	}
	if d := c.CurrentBlockThreshold.DurationInMins; d != nil {
		if _, err := durationSecs(*d); err != nil {
			return err
		}
	}
	return nil
}

// entityID возвращает ключ сущности с учётом уровня специфичности.
func (c Config) entityID(id string) string {
	if c.SpecificityLevel == SpecificityGlobal {
		return domain.GlobalEntityID
	}
	return id
}

// maxDurationSecs возвращает длительность окна в секундах; ok=false, если лимит по времени не задан.
func (c Config) maxDurationSecs() (int64, bool) {
	d := c.CurrentBlockThreshold.DurationInMins
	if d == nil {
		return 0, false
	}
	secs, err := durationSecs(*d)
	if err != nil {
		return 0, false
	}
	return secs, true
}

func durationSecs(mins uint64) (int64, error) {
	m, err := routing.ToInt64(mins)
	if err != nil {
		return 0, fmt.Errorf("%w: duration_in_mins: %w", domain.ErrConfig, err)
	}
	const maxMins = (1<<63 - 1) / 60
	if m > maxMins {
		return 0, fmt.Errorf("%w: duration_in_mins %d is too large", domain.ErrConfig, m)
	}
	return m * 60, nil
}
