package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// defaultOrgID is the tenant the reports belong to unless ORG_ID overrides it.
const defaultOrgID = "01970f4c-c79d-7858-8034-60a265d687e4"

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Email     EmailConfig
	Cooldown  CooldownConfig
	Scheduler SchedulerConfig
	Redis     RedisConfig
}

type ServerConfig struct {
	Address string
}

type DatabaseConfig struct {
	URL string
}

// EmailConfig holds dispatch settings. To, Sender and LambdaFunctionURL are
// allowed to be empty here; they are validated at send time so the service
// can boot and report their absence per attempt.
type EmailConfig struct {
	DefaultOrgID      string
	To                string
	Sender            string
	LambdaFunctionURL string
}

type CooldownConfig struct {
	Window  time.Duration
	DataDir string
}

type SchedulerConfig struct {
	Enabled  bool
	Interval time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

func LoadAll() (*Config, error) {
	var errs []error

	dbURL, err := requireEnv("DATABASE_URL")
	if err != nil {
		errs = append(errs, err)
	}

	cooldownMinutes, err := getEnvInt("EMAIL_COOLDOWN_MINUTES", 60)
	if err != nil {
		errs = append(errs, err)
	}

	schedulerEnabled, err := getEnvBool("ENABLE_EMAIL_SCHEDULER", false)
	if err != nil {
		errs = append(errs, err)
	}

	intervalMinutes, err := getEnvInt("EMAIL_SCHEDULE_INTERVAL_MINUTES", 60)
	if err != nil {
		errs = append(errs, err)
	}

	redisCfg, err := loadRedisConfig()
	if err != nil {
		errs = append(errs, err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":8000"),
		},
		Database: DatabaseConfig{
			URL: dbURL,
		},
		Email: EmailConfig{
			DefaultOrgID:      getEnv("ORG_ID", defaultOrgID),
			To:                os.Getenv("EMAIL_TO"),
			Sender:            os.Getenv("SENDER_EMAIL"),
			LambdaFunctionURL: os.Getenv("LAMBDA_FUNCTION_URL"),
		},
		Cooldown: CooldownConfig{
			Window:  time.Duration(cooldownMinutes) * time.Minute,
			DataDir: getEnv("DATA_DIR", os.TempDir()),
		},
		Scheduler: SchedulerConfig{
			Enabled:  schedulerEnabled,
			Interval: time.Duration(intervalMinutes) * time.Minute,
		},
		Redis: redisCfg,
	}

	errs = append(errs, validate(cfg)...)

	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRedisConfig() (RedisConfig, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}, nil
	}

	db, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return RedisConfig{}, err
	}

	ttl, err := getEnvInt("REDIS_TTL_SECONDS", 86400)
	if err != nil {
		return RedisConfig{}, err
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
		TTL:      time.Duration(ttl) * time.Second,
	}, nil
}

func validate(cfg *Config) []error {
	var errs []error
	if cfg.Cooldown.Window <= 0 {
		errs = append(errs, errors.New("EMAIL_COOLDOWN_MINUTES must be > 0"))
	}
	if cfg.Scheduler.Interval <= 0 {
		errs = append(errs, errors.New("EMAIL_SCHEDULE_INTERVAL_MINUTES must be > 0"))
	}
	if cfg.Email.DefaultOrgID == "" {
		errs = append(errs, errors.New("ORG_ID must not be empty"))
	}
	return errs
}

func requireEnv(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return val, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid int for env %s: %q", key, v)
	}
	return i, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("invalid bool for env %s: %q", key, v)
	}
	return b, nil
}

func joinErrors(errs []error) error {
	return errors.Join(errs...)
}
