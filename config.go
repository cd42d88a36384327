package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Supported backends and drivers.
const (
	BackendRedis  = "redis"
	BackendBolt   = "bolt"
	BackendMemory = "memory"

	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit          string         `yaml:"git_commit" envconfig:"LCAT_GIT_COMMIT"`
	GitTag             string         `yaml:"git_tag" envconfig:"LCAT_GIT_TAG"`
	BuildTime          string         `yaml:"build_time" envconfig:"LCAT_BUILD_TIME"`
	IsProduction       bool           `yaml:"is_production" envconfig:"LCAT_IS_PRODUCTION"`
	LogLevel           zapcore.Level  `yaml:"log_level" envconfig:"LCAT_LOG_LEVEL"`
	LogFolder          string         `yaml:"log_folder" envconfig:"LCAT_LOG_FOLDER"`
	LogMaxSize         int            `yaml:"log_max_size" envconfig:"LCAT_LOG_MAX_SIZE"`
	ProfilerEnable     bool           `yaml:"profiler_enable" envconfig:"LCAT_PROFILER_ENABLE"`
	OpsEndpointsEnable bool           `yaml:"ops_endpoints_enable" envconfig:"LCAT_OPS_ENDPOINTS_ENABLE"`
	Server             ServerConfig   `yaml:"server"`
	Database           DatabaseConfig `yaml:"database"`
	Cache              CacheConfig    `yaml:"cache"`
	Queue              QueueConfig    `yaml:"queue"`
	Redis              RedisConfig    `yaml:"redis"`
	BoltDB             BoltDBConfig   `yaml:"boltdb"`
	Auth               AuthConfig     `yaml:"auth"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"LCAT_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"LCAT_SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"LCAT_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"LCAT_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"LCAT_SERVER_REQUEST_TIMEOUT"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"LCAT_SERVER_SHUTDOWN_TIMEOUT"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver" envconfig:"LCAT_DATABASE_DRIVER"`
	DSN             string        `yaml:"dsn" envconfig:"LCAT_DATABASE_DSN"`
	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"LCAT_DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" envconfig:"LCAT_DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"LCAT_DATABASE_CONN_MAX_LIFETIME"`
}

type CacheConfig struct {
	Backend           string        `yaml:"backend" envconfig:"LCAT_CACHE_BACKEND"`
	TTL               time.Duration `yaml:"ttl" envconfig:"LCAT_CACHE_TTL"`
	DedupeFills       bool          `yaml:"dedupe_fills" envconfig:"LCAT_CACHE_DEDUPE_FILLS"`
	InvalidateOnWrite bool          `yaml:"invalidate_on_write" envconfig:"LCAT_CACHE_INVALIDATE_ON_WRITE"`
	MemoryCapacity    int           `yaml:"memory_capacity" envconfig:"LCAT_CACHE_MEMORY_CAPACITY"`
	MemoryShards      int           `yaml:"memory_shards" envconfig:"LCAT_CACHE_MEMORY_SHARDS"`
}

type QueueConfig struct {
	Backend    string `yaml:"backend" envconfig:"LCAT_QUEUE_BACKEND"`
	BufferSize int    `yaml:"buffer_size" envconfig:"LCAT_QUEUE_BUFFER_SIZE"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"LCAT_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"LCAT_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"LCAT_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"LCAT_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"LCAT_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"LCAT_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"LCAT_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"LCAT_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"LCAT_REDIS_PASSWORD" json:"-"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"LCAT_REDIS_DATABASE_INDEX"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"LCAT_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"LCAT_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"LCAT_BOLTDB_BUCKET_NAME"`
}

type AuthConfig struct {
	Enabled    bool   `yaml:"enabled" envconfig:"LCAT_AUTH_ENABLED"`
	SigningKey string `yaml:"signing_key" envconfig:"LCAT_AUTH_SIGNING_KEY" json:"-"`
	Issuer     string `yaml:"issuer" envconfig:"LCAT_AUTH_ISSUER"`
	Audience   string `yaml:"audience" envconfig:"LCAT_AUTH_AUDIENCE"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and provides an instance of the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	setConfigDefaults(config)

	switch config.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	if len(config.Database.DSN) == 0 {
		return errors.New("make sure to set a valid database dsn in configuration file")
	}

	switch config.Cache.Backend {
	case BackendRedis, BackendBolt, BackendMemory:
	default:
		return fmt.Errorf("unsupported cache backend %q", config.Cache.Backend)
	}

	switch config.Queue.Backend {
	case BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unsupported queue backend %q", config.Queue.Backend)
	}

	if config.UsesRedis() && (len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0) {
		return errors.New("make sure to set valid redis address and port in configuration file")
	}

	if config.Auth.Enabled && len(config.Auth.SigningKey) < 32 {
		return errors.New("auth signing key must be at least 32 characters long")
	}

	return nil
}

func setConfigDefaults(config *Config) {
	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 10
	}
	if len(config.LogFolder) == 0 {
		config.LogFolder = "./logs"
	}
	if config.Server.RequestTimeout <= 0 {
		config.Server.RequestTimeout = 30 * time.Second
	}
	if config.Server.ShutdownTimeout <= 0 {
		config.Server.ShutdownTimeout = 10 * time.Second
	}
	if len(config.Database.Driver) == 0 {
		config.Database.Driver = DriverSQLite
	}
	if len(config.Cache.Backend) == 0 {
		config.Cache.Backend = BackendRedis
	}
	if config.Cache.TTL <= 0 {
		config.Cache.TTL = 5 * time.Minute
	}
	if config.Cache.MemoryCapacity <= 0 {
		config.Cache.MemoryCapacity = 10000
	}
	if config.Cache.MemoryShards <= 0 {
		config.Cache.MemoryShards = 64
	}
	if len(config.Queue.Backend) == 0 {
		config.Queue.Backend = BackendMemory
	}
	if config.Queue.BufferSize <= 0 {
		config.Queue.BufferSize = 1024
	}
	if len(config.BoltDB.BucketName) == 0 {
		config.BoltDB.BucketName = "cache"
	}
}

// UsesRedis tells if any configured backend requires a redis connection.
func (c *Config) UsesRedis() bool {
	return c.Cache.Backend == BackendRedis || c.Queue.Backend == BackendRedis
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(configFile, envFile, gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile(configFile)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration. The file is optional.
	if _, serr := os.Stat(envFile); serr == nil {
		if err = godotenv.Load(envFile); err != nil {
			return config, fmt.Errorf("failed to set environment configurations: %s", err)
		}
	}

	// Use environment variables with prefix `LCAT`.
	err = LoadConfigEnvs("LCAT", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
