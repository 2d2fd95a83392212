package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	APIHost    string
	APIPort    int
	APIPrefix  string
	APIVersion string

	RedisHost          string
	RedisPort          int
	RedisPassword      string
	RedisDB            int
	SessionExpireHours int

	// Pneuma engine
	PneumaEngine       string
	PneumaEngineURL    string
	PneumaStoragePath  string
	PneumaLLMPath      string
	PneumaEmbedPath    string
	PneumaDefaultIndex string
	PneumaWorkers      int

	// admin auth
	SecretKey          string
	AdminPasswordHash  string
	AdminTokenTTLHours int

	// query log
	DBDriver          string
	DBDSN             string
	RabbitURL         string
	RabbitQueue       string
	WorkerConcurrency int

	EnableMetrics bool
	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// SessionTTL is the idle timeout after which an untouched session expires.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionExpireHours) * time.Hour
}

func (c Config) AdminTokenTTL() time.Duration {
	return time.Duration(c.AdminTokenTTLHours) * time.Hour
}

func defaults(v *viper.Viper) {
	v.SetDefault("api_host", "0.0.0.0")
	v.SetDefault("api_port", 8000)
	v.SetDefault("api_prefix", "/api/v1")
	v.SetDefault("api_version", "0.1.0")

	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", 6379)
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("session_expire_hours", 24)

	v.SetDefault("pneuma_engine", "http")
	v.SetDefault("pneuma_engine_url", "http://localhost:8001")
	v.SetDefault("pneuma_storage_path", "./storage")
	v.SetDefault("pneuma_llm_path", "Qwen/Qwen2.5-7B-Instruct")
	v.SetDefault("pneuma_embed_path", "BAAI/bge-base-en-v1.5")
	v.SetDefault("pneuma_default_index", "default")
	v.SetDefault("pneuma_workers", 4)

	v.SetDefault("secret_key", "change-this-in-production")
	v.SetDefault("admin_password_hash", "")
	v.SetDefault("admin_token_ttl_hours", 12)

	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "file:pneuma.db")
	v.SetDefault("rabbit_url", "")
	v.SetDefault("rabbit_queue", "query_events")
	v.SetDefault("worker_concurrency", 2)

	v.SetDefault("enable_metrics", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 100)
	v.SetDefault("log_max_backups", 3)
	v.SetDefault("log_max_age_days", 28)
}

// Load reads configuration from defaults, an optional .env file, an optional
// config file and the environment, in that order of precedence.
func Load(path string) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	defaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) Config {
	cfg := Config{
		APIHost:    v.GetString("api_host"),
		APIPort:    v.GetInt("api_port"),
		APIPrefix:  strings.TrimRight(v.GetString("api_prefix"), "/"),
		APIVersion: v.GetString("api_version"),

		RedisHost:          v.GetString("redis_host"),
		RedisPort:          v.GetInt("redis_port"),
		RedisPassword:      v.GetString("redis_password"),
		RedisDB:            v.GetInt("redis_db"),
		SessionExpireHours: v.GetInt("session_expire_hours"),

		PneumaEngine:       strings.ToLower(strings.TrimSpace(v.GetString("pneuma_engine"))),
		PneumaEngineURL:    v.GetString("pneuma_engine_url"),
		PneumaStoragePath:  v.GetString("pneuma_storage_path"),
		PneumaLLMPath:      v.GetString("pneuma_llm_path"),
		PneumaEmbedPath:    v.GetString("pneuma_embed_path"),
		PneumaDefaultIndex: v.GetString("pneuma_default_index"),
		PneumaWorkers:      v.GetInt("pneuma_workers"),

		SecretKey:          v.GetString("secret_key"),
		AdminPasswordHash:  strings.TrimSpace(v.GetString("admin_password_hash")),
		AdminTokenTTLHours: v.GetInt("admin_token_ttl_hours"),

		DBDriver:          strings.ToLower(v.GetString("db_driver")),
		DBDSN:             v.GetString("db_dsn"),
		RabbitURL:         v.GetString("rabbit_url"),
		RabbitQueue:       v.GetString("rabbit_queue"),
		WorkerConcurrency: v.GetInt("worker_concurrency"),

		EnableMetrics: v.GetBool("enable_metrics"),
		LogLevel:      v.GetString("log_level"),
		LogFile:       v.GetString("log_file"),
		LogMaxSizeMB:  v.GetInt("log_max_size_mb"),
		LogMaxBackups: v.GetInt("log_max_backups"),
		LogMaxAgeDays: v.GetInt("log_max_age_days"),
	}

	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		cfg.APIPort = 8000
	}
	if cfg.SessionExpireHours <= 0 {
		cfg.SessionExpireHours = 24
	}
	if cfg.PneumaWorkers <= 0 || cfg.PneumaWorkers > 64 {
		cfg.PneumaWorkers = 4
	}
	if cfg.PneumaDefaultIndex == "" {
		cfg.PneumaDefaultIndex = "default"
	}
	if cfg.AdminTokenTTLHours <= 0 {
		cfg.AdminTokenTTLHours = 12
	}
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 2
	}
	if cfg.WorkerConcurrency > 50 {
		cfg.WorkerConcurrency = 50
	}
	if cfg.RabbitQueue == "" {
		cfg.RabbitQueue = "query_events"
	}
	return cfg
}
