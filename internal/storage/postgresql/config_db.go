package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v4/stdlib" // register pgx driver
	"github.com/jmoiron/sqlx"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/config"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ports"
)

var _ ports.ConfigRepo = (*ConfigDB)(nil)

// ConfigDB - хранилище конфигураций маршрутизации и API-ключей в PostgreSQL.
type ConfigDB struct {
	db *sqlx.DB
}

type configRow struct {
	TenantID   string `db:"tenant_id"`
	ProfileID  string `db:"profile_id"`
	MerchantID string `db:"merchant_id"`
	Algorithm  string `db:"algorithm"`
	Config     string `db:"config"`
}

func (s *ConfigDB) FetchKey(ctx context.Context, tenantID, apiKey, hashKey string) (domain.Identity, error) {
	const query = `
	SELECT tenant_id, merchant_id, key_id, created_at
	FROM api_keys
	WHERE tenant_id = $1 AND key_hash = $2`

	var id domain.Identity
	err := s.db.GetContext(ctx, &id, query, tenantID, domain.HashAPIKey(apiKey, hashKey))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Identity{}, fmt.Errorf("fetch key for tenant %q: %w", tenantID, domain.ErrKeyNotFound)
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("fetch key for tenant %q: %w: %w", tenantID, domain.ErrStore, err)
	}
	return id, nil
}

func (s *ConfigDB) FetchDynamicRoutingConfigs(ctx context.Context, ref domain.ConfigRef) (json.RawMessage, error) {
	const query = `
	SELECT config
	FROM dynamic_routing_configs
	WHERE tenant_id = $1 AND profile_id = $2 AND merchant_id = $3 AND algorithm = $4`

	var raw []byte
	err := s.db.GetContext(ctx, &raw, query, ref.TenantID, ref.ProfileID, ref.MerchantID, string(ref.Algorithm))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("fetch %s config for merchant %q: %w", ref.Algorithm, ref.MerchantID, domain.ErrKeyNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s config for merchant %q: %w: %w", ref.Algorithm, ref.MerchantID, domain.ErrStore, err)
	}
	return json.RawMessage(raw), nil
}

func (s *ConfigDB) SaveDynamicRoutingConfig(ctx context.Context, ref domain.ConfigRef, cfg json.RawMessage) error {
	if !json.Valid(cfg) {
		return fmt.Errorf("save %s config: %w", ref.Algorithm, domain.ErrDeserializationFailed)
	}
	const query = `
    INSERT INTO dynamic_routing_configs (tenant_id, profile_id, merchant_id, algorithm, config)
    VALUES (:tenant_id, :profile_id, :merchant_id, :algorithm, :config)
    ON CONFLICT (tenant_id, profile_id, merchant_id, algorithm)
    DO UPDATE SET config = EXCLUDED.config, updated_at = now()`

	_, err := s.db.NamedExecContext(ctx, query, configRow{
		TenantID:   ref.TenantID,
		ProfileID:  ref.ProfileID,
		MerchantID: ref.MerchantID,
		Algorithm:  string(ref.Algorithm),
		Config:     string(cfg),
	})
	if err != nil {
		return fmt.Errorf("save %s config: %w: %w", ref.Algorithm, domain.ErrStore, err)
	}
	return nil
}

func (s *ConfigDB) Close() error {
	return s.db.Close()
}

func NewConfigDB(cfg config.Database) (*ConfigDB, error) {
	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	// Настраиваем пул соединений
	db.SetMaxOpenConns(cfg.Postgresql.Pool.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgresql.Pool.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Postgresql.Pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Postgresql.Pool.ConnMaxIdleTime)

	return &ConfigDB{db: db}, nil
}

// DSN собирает строку подключения. Если в конфиге задан dsn, остальные поля игнорируются.
func DSN(cfg config.Database) (string, error) {
	if cfg.Postgresql.Dsn != "" {
		return cfg.Postgresql.Dsn, nil
	}
	if cfg.Postgresql.Host == "" || cfg.Postgresql.Name == "" {
		return "", errors.New("empty DSN")
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", cfg.Postgresql.User, cfg.Postgresql.Password,
		cfg.Postgresql.Host, cfg.Postgresql.Port, cfg.Postgresql.Name), nil
}

func OpenDB(cfg config.Database) (*sqlx.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
