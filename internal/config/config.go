package config

import (
	"errors"
	"os"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

var ErrFileNotFound = errors.New(" file not found")

const (
	WorkmodeLocal    = "local"
	WorkmodeExternal = "external"
)

type App struct {
	Name string `mapstructure:"name"`
	// При выключенной мультиарендности идентификатор арендатора не входит в ключи состояния
	MultiTenancy bool `mapstructure:"multi_tenancy"`
}

type Server struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Auth    struct {
		Enabled bool   `mapstructure:"enabled"`
		HashKey string `mapstructure:"hash_key"` // соль для хеширования API-ключей
	} `mapstructure:"auth"`
}

type Metrics struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

type Logger struct {
	Level  string `mapstructure:"level"`
	File   string `mapstructure:"file"`
	Format string `mapstructure:"format"` // text/json
}

// TTL - время жизни состояния алгоритмов в Redis.
type TTL struct {
	Aggregates   time.Duration `mapstructure:"aggregates"`
	CurrentBlock time.Duration `mapstructure:"current_block"`
	Elimination  time.Duration `mapstructure:"elimination"`
	Contract     time.Duration `mapstructure:"contract"`
}

type Database struct {
	Workmode   string `mapstructure:"workmode"` // local/external
	Postgresql struct {
		// Параметры подключения могут задаваться либо в dsn, либо, если dsn не задан, в следующих полях
		Dsn      string `mapstructure:"dsn"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Name     string `mapstructure:"name"`
		// параметры пула коннектов
		Pool struct {
			MaxOpenConns    int           `mapstructure:"max_open_conns"`
			MaxIdleConns    int           `mapstructure:"max_idle_conns"`
			ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
			ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
		} `mapstructure:"pool"`
	} `mapstructure:"postgresql"`
	Redis struct {
		Address      string        `mapstructure:"address"`
		Password     string        `mapstructure:"password"`
		DB           int           `mapstructure:"db"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
		DialTimeout  time.Duration `mapstructure:"dial_timeout"`
		PoolSize     int           `mapstructure:"pool_size"`
		TTL          TTL           `mapstructure:"ttl"`
		Subscriber   struct {
			ReadTimeout    time.Duration `mapstructure:"read_timeout"`
			PoolSize       int           `mapstructure:"pool_size"`
			ConfigsChannel string        `mapstructure:"configs_channel"` // канал нотификаций об изменении конфигураций
		} `mapstructure:"subscriber"`
	} `mapstructure:"redis"`
}

// Cache - read-through кеш конфигураций.
type Cache struct {
	TTL      time.Duration `mapstructure:"ttl"` // максимальный возраст записи
	TTI      time.Duration `mapstructure:"tti"` // время простоя до вытеснения
	Capacity uint64        `mapstructure:"capacity"`
}

// Routing - конфигурации алгоритмов по умолчанию (JSON в том же формате, что и в запросах).
type Routing struct {
	SuccessRate string `mapstructure:"success_rate"`
	Elimination string `mapstructure:"elimination"`
	Contract    string `mapstructure:"contract"`
}

type Config struct {
	App      App      `mapstructure:"app"`
	Server   Server   `mapstructure:"server"`
	Metrics  Metrics  `mapstructure:"metrics"`
	Logger   Logger   `mapstructure:"logger"`
	Database Database `mapstructure:"database"`
	Cache    Cache    `mapstructure:"cache"`
	Routing  Routing  `mapstructure:"routing"`
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "dynamic-routing")
	v.SetDefault("app.multi_tenancy", false)
	v.SetDefault("server.port", 50051)
	v.SetDefault("server.auth.enabled", false)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.address", ":9090")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("database.workmode", WorkmodeLocal) // локальный режим - in-memory хранилища
	v.SetDefault("database.postgresql.host", "localhost")
	v.SetDefault("database.postgresql.port", 5432)
	v.SetDefault("database.postgresql.name", "dynamic_routing")
	v.SetDefault("database.postgresql.pool.max_open_conns", 20)
	v.SetDefault("database.postgresql.pool.max_idle_conns", 10)
	v.SetDefault("database.postgresql.pool.conn_max_lifetime", "1h")
	v.SetDefault("database.postgresql.pool.conn_max_idle_time", "10m")
	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("database.redis.dial_timeout", "5s")
	v.SetDefault("database.redis.read_timeout", "3s")
	v.SetDefault("database.redis.write_timeout", "3s")
	v.SetDefault("database.redis.pool_size", 100)
	v.SetDefault("database.redis.ttl.aggregates", "24h")
	v.SetDefault("database.redis.ttl.current_block", "1h")
	v.SetDefault("database.redis.ttl.elimination", "24h")
	v.SetDefault("database.redis.ttl.contract", "720h")
	v.SetDefault("database.redis.subscriber.read_timeout", "0s")
	v.SetDefault("database.redis.subscriber.pool_size", 2)
	v.SetDefault("database.redis.subscriber.configs_channel", "dr.configs.updated")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.tti", "2m")
	v.SetDefault("cache.capacity", 10000)
	v.SetDefault("routing.success_rate",
		`{"min_aggregates_size":5,"max_aggregates_size":10,"default_success_rate":100,`+
			`"specificity_level":"entity","current_block_threshold":{"duration_in_mins":5,"max_total_count":20}}`)
	v.SetDefault("routing.elimination",
		`{"entity_bucket":{"bucket_size":5,"bucket_leak_interval_in_secs":300},`+
			`"global_bucket":{"bucket_size":10,"bucket_leak_interval_in_secs":300}}`)
	v.SetDefault("routing.contract", `{"constants":[0.7,0.35],"time_scale":"day"}`)
}

func LoadConfig(cfgFilePath string) (*Config, error) {
	v := viper.New()

	// ENV с префиксом DR (от Dynamic Routing), __ вместо . и _ вместо - в ключах
	v.SetEnvPrefix("DR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// если конфиг не задан - ищем по стандартным путям
	if cfgFilePath == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/dynamic-routing")
	} else {
		if !fileExists(cfgFilePath) {
			return nil, ErrFileNotFound
		}
		v.SetConfigFile(cfgFilePath)
	}

	if err := v.ReadInConfig(); err != nil {
		// без файла работаем на дефолтах и ENV
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	decoderCfg := &mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	}
	dec, err := mapstructure.NewDecoder(decoderCfg)
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v.AllSettings()); err != nil {
		return nil, err
	}
	return &cfg, nil
}
