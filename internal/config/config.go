package config

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var configLog = log.New(os.Stderr, "CONFIG INFO: ", log.Ltime)

var validate = validator.New()

type Config struct {
	GNS3URL           string  `mapstructure:"gns3_url" validate:"required,url"`
	GNS3User          string  `mapstructure:"gns3_user"`
	GNS3Password      string  `mapstructure:"gns3_password"`
	Project           string  `mapstructure:"project" validate:"required"`
	Compute           string  `mapstructure:"compute"`
	RequestTimeoutMs  int     `mapstructure:"request_timeout_ms" validate:"gt=0"`
	RatePerSecond     float64 `mapstructure:"rate_per_second" validate:"gte=0"`
	RateBurst         int     `mapstructure:"rate_burst" validate:"gte=1"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"gte=0,lte=20"`
	RetryBackoffMs    int     `mapstructure:"retry_backoff_ms" validate:"gte=0"`
	DeployConcurrency int     `mapstructure:"deploy_concurrency" validate:"gte=1"`
	GraphDB           string  `mapstructure:"graphdb"`
	GraphDBUser       string  `mapstructure:"graphdb_user"`
	GraphDBPassword   string  `mapstructure:"graphdb_password"`
	MetricsAddr       string  `mapstructure:"metrics_addr"`

	v *viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GNS3_URL", "http://localhost:3080")
	v.SetDefault("GNS3_USER", "")
	v.SetDefault("GNS3_PASSWORD", "")
	v.SetDefault("PROJECT", "untitled")
	v.SetDefault("COMPUTE", "")
	v.SetDefault("REQUEST_TIMEOUT_MS", 10000)
	v.SetDefault("RATE_PER_SECOND", 0)
	v.SetDefault("RATE_BURST", 1)
	v.SetDefault("MAX_RETRIES", 3)
	v.SetDefault("RETRY_BACKOFF_MS", 200)
	v.SetDefault("DEPLOY_CONCURRENCY", 1)
	v.SetDefault("GRAPHDB", "")
	v.SetDefault("GRAPHDB_USER", "")
	v.SetDefault("GRAPHDB_PASSWORD", "")
	v.SetDefault("METRICS_ADDR", "")
}

// Load reads path as a .env file, then lets environment variables override
// it. A missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		configLog.Println(err)
	}
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.v = v
	return cfg, nil
}

func (cfg *Config) RequestTimeout() time.Duration {
	return time.Duration(cfg.RequestTimeoutMs) * time.Millisecond
}

func (cfg *Config) RetryBackoff() time.Duration {
	return time.Duration(cfg.RetryBackoffMs) * time.Millisecond
}

// GraphDBURI is empty when no graph database is configured.
func (cfg *Config) GraphDBURI() string {
	if cfg.GraphDB == "" || strings.Contains(cfg.GraphDB, "://") {
		return cfg.GraphDB
	}
	return "neo4j://" + cfg.GraphDB
}

// PrintVariables logs every setting in key order, passwords masked.
func (cfg *Config) PrintVariables() {
	if cfg.v == nil {
		return
	}
	settings := cfg.v.AllSettings()
	sortedList := make([]string, 0, len(settings))
	for id := range settings {
		sortedList = append(sortedList, id)
	}
	sort.Strings(sortedList)

	for _, id := range sortedList {
		value := settings[id]
		if strings.HasSuffix(id, "password") && fmt.Sprint(value) != "" {
			value = "****"
		}
		configLog.Println(id, value)
	}
}
