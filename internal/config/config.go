package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"logLevel"`
	Server      struct {
		Port      int `mapstructure:"port"`      // health and metrics endpoints
		QueryPort int `mapstructure:"queryPort"` // read-side query API
	} `mapstructure:"server"`
	NATS struct {
		URL   string             `mapstructure:"url"`
		Leads ConsumerNatsConfig `mapstructure:"leads"`
		// SnapshotSubject is the base subject snapshot events publish to.
		SnapshotSubject string `mapstructure:"snapshotSubject"`
	} `mapstructure:"nats"`
	Database struct {
		PostgresDSN         string `mapstructure:"postgresDSN"`
		PostgresAutoMigrate bool   `mapstructure:"postgresAutoMigrate"`
	} `mapstructure:"database"`
	Workspace struct {
		Default string `mapstructure:"default"`
		ID      string `mapstructure:"id"`
	} `mapstructure:"workspace"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	WorkerPools struct {
		Dedupe DedupeWorkerPoolConfig `mapstructure:"dedupe"`
	} `mapstructure:"workerPools"`
}

// DedupeWorkerPoolConfig holds configuration for the dedupe worker pool
type DedupeWorkerPoolConfig struct {
	PoolSize   int           `mapstructure:"poolSize"`   // Number of workers
	QueueSize  int           `mapstructure:"queueSize"`  // Task queue buffer size
	MaxBlock   time.Duration `mapstructure:"maxBlock"`   // Max time to block when submitting if queue full
	ExpiryTime time.Duration `mapstructure:"expiryTime"` // Idle worker expiry time
}

// ConsumerNatsConfig holds configuration specific to a NATS consumer
type ConsumerNatsConfig struct {
	MaxAge       int64         `mapstructure:"maxAge"` // max age of messages in day
	Stream       string        `mapstructure:"stream"`
	Consumer     string        `mapstructure:"consumer"` // durable name
	QueueGroup   string        `mapstructure:"group"`
	SubjectList  []string      `mapstructure:"subjectList"`
	MaxDeliver   int           `mapstructure:"maxDeliver"`   // Max delivery attempts before the message is terminated
	NakBaseDelay time.Duration `mapstructure:"nakBaseDelay"` // Base delay for exponential backoff NAK
	NakMaxDelay  time.Duration `mapstructure:"nakMaxDelay"`  // Maximum delay for exponential backoff NAK
}

// LoadConfig reads configuration from file or environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("environment", "development")
	v.SetDefault("logLevel", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.queryPort", 8081)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 2112)

	v.SetDefault("nats.leads.stream", "lead_events_stream")
	v.SetDefault("nats.leads.consumer", "lead_events_consumer")
	v.SetDefault("nats.leads.group", "lead_events_group")
	v.SetDefault("nats.leads.subjectList", []string{"v1.leads.upsert", "v1.leads.update", "v1.leads.import"})
	v.SetDefault("nats.leads.maxAge", int64(30))
	v.SetDefault("nats.leads.maxDeliver", 5)
	v.SetDefault("nats.leads.nakBaseDelay", 2*time.Second)
	v.SetDefault("nats.leads.nakMaxDelay", 30*time.Second)
	v.SetDefault("nats.snapshotSubject", "v1.leads.snapshot")

	// WorkerPools Defaults
	v.SetDefault("workerPools.dedupe.poolSize", 4)
	v.SetDefault("workerPools.dedupe.queueSize", 1000)
	v.SetDefault("workerPools.dedupe.maxBlock", time.Second)
	v.SetDefault("workerPools.dedupe.expiryTime", time.Minute)

	// Config file settings
	v.SetConfigName("default")
	v.SetConfigType("yaml")

	// Add lookup paths
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath("$HOME/.lead-insights-service")
	v.AddConfigPath("/etc/lead-insights-service")

	// Try to read from config file
	if err := v.ReadInConfig(); err != nil {
		// It's ok if config file is not found, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map environment variables to config fields
	bindEnvs(v, Config{})

	// Read directly from ENV for critical values
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		v.Set("database.postgresDSN", dsn)
	}
	if lgLevel := os.Getenv("LOG_LEVEL"); lgLevel != "" {
		v.Set("logLevel", lgLevel)
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		v.Set("nats.url", url)
	}
	if ws := os.Getenv("WORKSPACE_ID"); ws != "" {
		v.Set("workspace.id", ws)
	}

	// Unmarshal config
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &config, nil
}

// bindEnvs recursively binds environment variables to config struct fields
func bindEnvs(v *viper.Viper, cfg interface{}, parts ...string) {
	ifv := reflect.ValueOf(cfg)
	ift := reflect.TypeOf(cfg)
	for i := 0; i < ift.NumField(); i++ {
		fieldVal := ifv.Field(i)
		fieldType := ift.Field(i)

		tag := fieldType.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		path := append(parts, tag)
		key := strings.Join(path, ".")

		if fieldType.Type.Kind() == reflect.Struct {
			bindEnvs(v, fieldVal.Interface(), path...)
			continue
		}

		_ = v.BindEnv(key)
	}
}
