package config

import "time"

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	DSN            string                `yaml:"dsn"` // MySQL DSN
	RedisURL       string                `yaml:"redis_url"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	Env            string                `yaml:"env"` // "development" | "production"
	Paths          RuntimePathsConfig    `yaml:"paths"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	Storage        StorageConfig         `yaml:"storage"`
	Slug           SlugConfig            `yaml:"slug"`
	Views          ViewsConfig           `yaml:"views"`
	Ranking        RankingConfig         `yaml:"ranking"`
	Upload         UploadConfig          `yaml:"upload"`
}

type DatabaseRuntimeConfig struct {
	DSN          string            `yaml:"dsn"`
	URL          string            `yaml:"url"`
	Host         string            `yaml:"host"`
	Port         int               `yaml:"port"`
	User         string            `yaml:"user"`
	Username     string            `yaml:"username"`
	Password     string            `yaml:"password"`
	Name         string            `yaml:"name"`
	DBName       string            `yaml:"db_name"`
	Charset      string            `yaml:"charset"`
	ParseTime    bool              `yaml:"parse_time"`
	Loc          string            `yaml:"loc"`
	Params       map[string]string `yaml:"params"`
	MaxOpenConns int               `yaml:"max_open_conns"`
	MaxIdleConns int               `yaml:"max_idle_conns"`
}

type RedisRuntimeConfig struct {
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       int               `yaml:"db"`
	TLS      bool              `yaml:"tls"`
	Scheme   string            `yaml:"scheme"`
	Params   map[string]string `yaml:"params"`
}

type RuntimePathsConfig struct {
	Logs   string `yaml:"logs"`
	Static string `yaml:"static"`
}

// StorageConfig selects and configures the durable object store.
type StorageConfig struct {
	Driver        string   `yaml:"driver"` // "local" | "s3"
	Root          string   `yaml:"root"`
	PublicBaseURL string   `yaml:"public_base_url"`
	S3            S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket          string        `yaml:"bucket"`
	Region          string        `yaml:"region"`
	Endpoint        string        `yaml:"endpoint"`
	AccessKeyID     string        `yaml:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key"`
	UsePathStyle    bool          `yaml:"path_style"`
	CustomDomain    string        `yaml:"custom_domain"`
	Presign         time.Duration `yaml:"-"`
}

type SlugConfig struct {
	Separator    string `yaml:"separator"`
	SuffixLength int    `yaml:"suffix_length"`
	MaxAttempts  int    `yaml:"max_attempts"`
	OnUpdate     bool   `yaml:"on_update"`
}

type ViewsConfig struct {
	MarkerTTL     time.Duration `yaml:"-"`
	SessionCookie string        `yaml:"session_cookie"`
}

type RankingConfig struct {
	MaxPage      int `yaml:"max_page"`
	TrendingDays int `yaml:"trending_days"`
}

type UploadConfig struct {
	MaxSizeMB    int           `yaml:"max_size_mb"`
	Timeout      time.Duration `yaml:"-"`
	ImageMaxDim  int           `yaml:"image_max_dimension"`
	ImageQuality int           `yaml:"image_quality"`
}

type rawAppConfig struct {
	Port           int               `yaml:"port"`
	DSN            string            `yaml:"dsn"`
	DatabaseURL    string            `yaml:"database_url"`
	RedisURL       string            `yaml:"redis_url"`
	Database       rawDatabaseConfig `yaml:"database"`
	Redis          rawRedisConfig    `yaml:"redis"`
	Env            string            `yaml:"env"`
	Paths          rawPathsConfig    `yaml:"paths"`
	LogDir         string            `yaml:"log_dir"`
	StaticDir      string            `yaml:"static_dir"`
	AllowedOrigins []string          `yaml:"allowed_origins"`
	Storage        rawStorageConfig  `yaml:"storage"`
	Slug           rawSlugConfig     `yaml:"slug"`
	Views          rawViewsConfig    `yaml:"views"`
	Ranking        rawRankingConfig  `yaml:"ranking"`
	Upload         rawUploadConfig   `yaml:"upload"`
}

type rawDatabaseConfig struct {
	DSN          string            `yaml:"dsn"`
	URL          string            `yaml:"url"`
	Host         string            `yaml:"host"`
	Port         int               `yaml:"port"`
	User         string            `yaml:"user"`
	Username     string            `yaml:"username"`
	Password     string            `yaml:"password"`
	Name         string            `yaml:"name"`
	DBName       string            `yaml:"db_name"`
	Charset      string            `yaml:"charset"`
	ParseTime    *bool             `yaml:"parse_time"`
	Loc          string            `yaml:"loc"`
	Params       map[string]string `yaml:"params"`
	MaxOpenConns int               `yaml:"max_open_conns"`
	MaxIdleConns int               `yaml:"max_idle_conns"`
}

type rawRedisConfig struct {
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       *int              `yaml:"db"`
	TLS      *bool             `yaml:"tls"`
	Scheme   string            `yaml:"scheme"`
	Params   map[string]string `yaml:"params"`
}

type rawPathsConfig struct {
	Logs   string `yaml:"logs"`
	Static string `yaml:"static"`
}

type rawStorageConfig struct {
	Driver        string      `yaml:"driver"`
	Root          string      `yaml:"root"`
	PublicBaseURL string      `yaml:"public_base_url"`
	S3            rawS3Config `yaml:"s3"`
}

type rawS3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       *bool  `yaml:"path_style"`
	CustomDomain    string `yaml:"custom_domain"`
	PresignMinutes  int    `yaml:"presign_minutes"`
}

type rawSlugConfig struct {
	Separator    string `yaml:"separator"`
	SuffixLength *int   `yaml:"suffix_length"`
	MaxAttempts  int    `yaml:"max_attempts"`
	OnUpdate     *bool  `yaml:"on_update"`
}

type rawViewsConfig struct {
	MarkerTTLHours int    `yaml:"marker_ttl_hours"`
	SessionCookie  string `yaml:"session_cookie"`
}

type rawRankingConfig struct {
	MaxPage      int `yaml:"max_page"`
	TrendingDays int `yaml:"trending_days"`
}

type rawUploadConfig struct {
	MaxSizeMB      int `yaml:"max_size_mb"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
	ImageMaxDim    int `yaml:"image_max_dimension"`
	ImageQuality   int `yaml:"image_quality"`
}
