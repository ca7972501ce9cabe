package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Source    SourceConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Detection DetectionConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

// SourceConfig describes the upstream noun dataset and the refresh policy
// around it. Durations are configured as plain integers and converted through
// the helper methods.
type SourceConfig struct {
	URL             string
	TimeoutSec      int
	MinPayloadBytes int
	MinValidRows    int
	CacheTTLHours   int
	RefreshHours    int
}

func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSec) * time.Second
}

func (s SourceConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLHours) * time.Hour
}

func (s SourceConfig) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshHours) * time.Hour
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLMin   int
}

type DetectionConfig struct {
	MemoCeiling         int
	ContextWindow       int
	CorrectionThreshold float64
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/artikelservice")

	viper.SetEnvPrefix("ARTIKEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("source.url", "https://raw.githubusercontent.com/gambolputty/german-nouns/main/german_nouns/nouns.csv")
	viper.SetDefault("source.timeoutSec", 30)
	viper.SetDefault("source.minPayloadBytes", 100000)
	viper.SetDefault("source.minValidRows", 1000)
	viper.SetDefault("source.cacheTTLHours", 168)
	viper.SetDefault("source.refreshHours", 12)

	viper.SetDefault("sqlite.path", "./data/artikel.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlMin", 60)

	viper.SetDefault("detection.memoCeiling", 1000)
	viper.SetDefault("detection.contextWindow", 20)
	viper.SetDefault("detection.correctionThreshold", 0.5)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
