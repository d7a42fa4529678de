package elimination

import (
	"encoding/json"
	"fmt"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routing"
)

// BucketSettings - ёмкость ведра и интервал утечки одной единицы.
type BucketSettings struct {
	BucketSize               uint64 `json:"bucket_size"`
	BucketLeakIntervalInSecs uint64 `json:"bucket_leak_interval_in_secs"`
}

// Config - настройки вёдер для уровня сущности и глобального уровня.
type Config struct {
	EntityBucket BucketSettings `json:"entity_bucket"`
	GlobalBucket BucketSettings `json:"global_bucket"`
}

func ParseConfig(raw []byte) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("elimination config: %w: %w", domain.ErrDeserializationFailed, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := c.EntityBucket.validate("entity_bucket"); err != nil {
		return err
	}
	return c.GlobalBucket.validate("global_bucket")
}

func (s BucketSettings) validate(name string) error {
	if s.BucketSize == 0 {
		return fmt.Errorf("%w: %s.bucket_size must be positive", domain.ErrConfig, name)
	}
	if s.BucketLeakIntervalInSecs == 0 {
		return fmt.Errorf("%w: %s.bucket_leak_interval_in_secs must be positive", domain.ErrConfig, name)
	}
	if _, err := routing.ToInt64(s.BucketLeakIntervalInSecs); err != nil {
		return fmt.Errorf("%w: %s.bucket_leak_interval_in_secs: %w", domain.ErrConfig, name, err)
	}
	return nil
}

func (c Config) settings(scope domain.Scope) BucketSettings {
	if scope == domain.ScopeGlobal {
		return c.GlobalBucket
	}
	return c.EntityBucket
}
