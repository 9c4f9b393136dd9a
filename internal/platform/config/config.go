package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures process-level configuration so main stays lean.
type Config struct {
	Addr string `env:"NAMEGATE_ADDR" envDefault:":8080"`

	// OwnerAddress holds the single-identity capability for owner-only
	// operations (issuer management, emergency registration). Transfer and
	// renounce mutate the live engine, not this seed value.
	OwnerAddress string `env:"NAMEGATE_OWNER,required"`

	// EngineID is the engine's own identity, mixed into every invite digest
	// so a signature for one deployment cannot be replayed against another.
	EngineID string `env:"NAMEGATE_ENGINE_ID,required"`

	// RootName is the name whose node anchors all claims ("alice" is claimed
	// as a child of Namehash(RootName)).
	RootName string `env:"NAMEGATE_ROOT_NAME" envDefault:"namegate.eth"`

	// ChainID selects the chain-specific coin type for address records.
	ChainID uint32 `env:"NAMEGATE_CHAIN_ID" envDefault:"8453"`

	JWTSigningKey string `env:"NAMEGATE_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`

	// PostgresURL switches stores from in-memory to Postgres when set.
	PostgresURL string `env:"NAMEGATE_POSTGRES_URL"`

	Redis RedisConfig `envPrefix:"NAMEGATE_REDIS_"`
	Kafka KafkaConfig `envPrefix:"NAMEGATE_KAFKA_"`
}

// RedisConfig configures the optional Redis-backed invite ledger.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig configures the optional Kafka event publisher.
type KafkaConfig struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"namegate.events"`
}

// ChainCoinType returns the ENSIP-11 coin type for the configured chain.
func (c Config) ChainCoinType() uint32 {
	return 0x80000000 | c.ChainID
}

// FromEnv loads configuration from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
