package config

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

const envPrefix = "LEDGER_"

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Postgres PostgresConfig `koanf:"postgres"`
	Storage  StorageConfig  `koanf:"storage"`
	HTTP     HTTPConfig     `koanf:"http"`
	Transfer TransferConfig `koanf:"transfer"`
	Kafka    KafkaConfig    `koanf:"kafka"`
	Notifier NotifierConfig `koanf:"notifier"`
	Log      LogConfig      `koanf:"log"`
}

type PostgresConfig struct {
	Address   string `koanf:"address"`
	Port      string `koanf:"port"`
	DB        string `koanf:"db"`
	Username  string `koanf:"username"`
	Password  string `koanf:"password"`
	Isolation string `koanf:"isolation"`
}

type StorageConfig struct {
	Driver string `koanf:"driver"`
}

type HTTPConfig struct {
	Port string `koanf:"port"`
}

type TransferConfig struct {
	Fee string `koanf:"fee"`
}

type KafkaConfig struct {
	Brokers       string `koanf:"brokers"`
	TopicMovement string `koanf:"topic_movement"`
	TopicTransfer string `koanf:"topic_transfer"`
}

type NotifierConfig struct {
	Workers    int `koanf:"workers"`
	QueueSize  int `koanf:"queue_size"`
	MaxRetries int `koanf:"max_retries"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

// In all cases the default behavior should be for the docker compose setup
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"postgres.address":     "localhost",
		"postgres.port":        "5433",
		"postgres.db":          "postgres",
		"postgres.username":    "postgres",
		"postgres.password":    "testpassword",
		"postgres.isolation":   "read_committed",
		"storage.driver":       StorageDriverPostgres,
		"http.port":            "9446",
		"transfer.fee":         "0",
		"kafka.brokers":        "",
		"kafka.topic_movement": "movement",
		"kafka.topic_transfer": "transfer",
		"notifier.workers":     2,
		"notifier.queue_size":  1000,
		"notifier.max_retries": 3,
		"log.level":            "info",
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// LEDGER_<SECTION>_<KEY> environment variables, in that order of precedence.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps LEDGER_POSTGRES_ADDRESS to postgres.address and
// LEDGER_KAFKA_TOPIC_TRANSFER to kafka.topic_transfer.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.Replace(key, "_", ".", 1)
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}

	if _, err := c.TransferFee(); err != nil {
		return err
	}

	if _, err := c.Postgres.IsolationLevel(); err != nil {
		return err
	}

	if c.Notifier.Workers < 1 {
		return errors.New("config: notifier.workers must be at least 1")
	}
	return nil
}

// TransferFee is the fee charged to the origin account of every transfer.
func (c *Config) TransferFee() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(c.Transfer.Fee)
	if err != nil {
		return decimal.Zero, fmt.Errorf("config: invalid transfer.fee %q: %w", c.Transfer.Fee, err)
	}
	if fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("config: transfer.fee must not be negative, got %s", fee)
	}
	return fee, nil
}

// KafkaBrokers returns the configured broker list, empty when publishing is disabled.
func (c *Config) KafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.Kafka.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (p *PostgresConfig) ConnectionString() string {
	return "postgres://" + p.Username + ":" +
		p.Password + "@" + p.Address + ":" +
		p.Port + "/" + p.DB + "?sslmode=disable"
}

func (p *PostgresConfig) IsolationLevel() (sql.IsolationLevel, error) {
	switch strings.ToLower(p.Isolation) {
	case "", "read_committed":
		return sql.LevelReadCommitted, nil
	case "repeatable_read":
		return sql.LevelRepeatableRead, nil
	case "serializable":
		return sql.LevelSerializable, nil
	default:
		return sql.LevelDefault, fmt.Errorf("config: unknown postgres.isolation %q", p.Isolation)
	}
}
