package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads, decodes and validates the YAML config at configPath.
// Unknown keys are rejected so typos fail at startup instead of silently defaulting.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}
	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML content on top of the defaults.
func Parse(content []byte) (*AppConfig, error) {
	cfg := defaultAppConfig()
	raw := rawAppConfig{}
	if len(bytes.TrimSpace(content)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
	}

	applyRawAppConfig(&cfg, raw)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port)
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
	}
	switch c.Storage.Driver {
	case StorageDriverLocal:
	case StorageDriverS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when storage.driver is s3")
		}
	default:
		return fmt.Errorf("invalid storage.driver %q, expected local or s3", c.Storage.Driver)
	}
	return nil
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseRuntimeConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		Storage: StorageConfig{Driver: defaultStorageDriver, Root: defaultStorageRoot},
		Slug: SlugConfig{
			Separator:    defaultSlugSeparator,
			SuffixLength: defaultSlugSuffixLen,
			MaxAttempts:  defaultSlugAttempts,
			OnUpdate:     true,
		},
	}
	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.Storage = normalizeStorageConfig(cfg.Storage)
	cfg.Slug = normalizeSlugConfig(cfg.Slug)
	cfg.Views = normalizeViewsConfig(cfg.Views)
	cfg.Ranking = normalizeRankingConfig(cfg.Ranking)
	cfg.Upload = normalizeUploadConfig(cfg.Upload)
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	return cfg
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw)
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.Paths.Logs); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.Paths.Static); v != "" {
		cfg.Paths.Static = v
	}
	if v := strings.TrimSpace(raw.StaticDir); v != "" {
		cfg.Paths.Static = v
	}
	if raw.AllowedOrigins != nil {
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	}

	cfg.Storage = applyRawStorageConfig(cfg.Storage, raw.Storage)
	if cfg.Storage.Driver == StorageDriverLocal && cfg.Paths.Static != "" && strings.TrimSpace(raw.Storage.Root) == "" {
		cfg.Storage.Root = cfg.Paths.Static
	}

	slug := cfg.Slug
	if raw.Slug.Separator != "" {
		slug.Separator = raw.Slug.Separator
	}
	if raw.Slug.SuffixLength != nil {
		slug.SuffixLength = *raw.Slug.SuffixLength
	}
	if raw.Slug.MaxAttempts != 0 {
		slug.MaxAttempts = raw.Slug.MaxAttempts
	}
	if raw.Slug.OnUpdate != nil {
		slug.OnUpdate = *raw.Slug.OnUpdate
	}
	cfg.Slug = normalizeSlugConfig(slug)

	views := cfg.Views
	if raw.Views.MarkerTTLHours > 0 {
		views.MarkerTTL = time.Duration(raw.Views.MarkerTTLHours) * time.Hour
	}
	if v := strings.TrimSpace(raw.Views.SessionCookie); v != "" {
		views.SessionCookie = v
	}
	cfg.Views = normalizeViewsConfig(views)

	ranking := cfg.Ranking
	if raw.Ranking.MaxPage != 0 {
		ranking.MaxPage = raw.Ranking.MaxPage
	}
	if raw.Ranking.TrendingDays != 0 {
		ranking.TrendingDays = raw.Ranking.TrendingDays
	}
	cfg.Ranking = normalizeRankingConfig(ranking)

	upload := cfg.Upload
	if raw.Upload.MaxSizeMB != 0 {
		upload.MaxSizeMB = raw.Upload.MaxSizeMB
	}
	if raw.Upload.TimeoutSeconds > 0 {
		upload.Timeout = time.Duration(raw.Upload.TimeoutSeconds) * time.Second
	}
	if raw.Upload.ImageMaxDim != 0 {
		upload.ImageMaxDim = raw.Upload.ImageMaxDim
	}
	if raw.Upload.ImageQuality != 0 {
		upload.ImageQuality = raw.Upload.ImageQuality
	}
	cfg.Upload = normalizeUploadConfig(upload)

	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	cfg.Paths = normalizeRuntimePaths(cfg.Paths)
	cfg.Env = normalizeEnv(cfg.Env)
}

func applyRawDatabaseConfig(current DatabaseRuntimeConfig, raw rawAppConfig) DatabaseRuntimeConfig {
	cfg := current

	if v := strings.TrimSpace(raw.Database.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.Database.URL); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.DatabaseURL); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.Database.Host); v != "" {
		cfg.Host = v
	}
	if raw.Database.Port != 0 {
		cfg.Port = raw.Database.Port
	}
	if v := strings.TrimSpace(raw.Database.User); v != "" {
		cfg.User = v
	}
	if v := strings.TrimSpace(raw.Database.Username); v != "" {
		cfg.User = v
	}
	if v := strings.TrimSpace(raw.Database.Password); v != "" {
		cfg.Password = v
	}
	if v := strings.TrimSpace(raw.Database.Name); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(raw.Database.DBName); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(raw.Database.Charset); v != "" {
		cfg.Charset = v
	}
	if raw.Database.ParseTime != nil {
		cfg.ParseTime = *raw.Database.ParseTime
	}
	if v := strings.TrimSpace(raw.Database.Loc); v != "" {
		cfg.Loc = v
	}
	if raw.Database.Params != nil {
		cfg.Params = copyStringMap(raw.Database.Params)
	}
	if raw.Database.MaxOpenConns > 0 {
		cfg.MaxOpenConns = raw.Database.MaxOpenConns
	}
	if raw.Database.MaxIdleConns > 0 {
		cfg.MaxIdleConns = raw.Database.MaxIdleConns
	}

	return normalizeDatabaseConfig(cfg)
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawAppConfig) RedisRuntimeConfig {
	cfg := current

	if v := strings.TrimSpace(raw.Redis.URL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(raw.RedisURL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(raw.Redis.Host); v != "" {
		cfg.Host = v
	}
	if raw.Redis.Port != 0 {
		cfg.Port = raw.Redis.Port
	}
	if v := strings.TrimSpace(raw.Redis.Username); v != "" {
		cfg.Username = v
	}
	if v := strings.TrimSpace(raw.Redis.Password); v != "" {
		cfg.Password = v
	}
	if raw.Redis.DB != nil {
		cfg.DB = *raw.Redis.DB
	}
	if raw.Redis.TLS != nil {
		cfg.TLS = *raw.Redis.TLS
	}
	if v := strings.TrimSpace(raw.Redis.Scheme); v != "" {
		cfg.Scheme = v
	}
	if raw.Redis.Params != nil {
		cfg.Params = copyStringMap(raw.Redis.Params)
	}

	return normalizeRedisConfig(cfg)
}

func applyRawStorageConfig(current StorageConfig, raw rawStorageConfig) StorageConfig {
	cfg := current
	if v := strings.TrimSpace(raw.Driver); v != "" {
		cfg.Driver = v
	}
	if v := strings.TrimSpace(raw.Root); v != "" {
		cfg.Root = v
	}
	if v := strings.TrimSpace(raw.PublicBaseURL); v != "" {
		cfg.PublicBaseURL = v
	}
	if v := strings.TrimSpace(raw.S3.Bucket); v != "" {
		cfg.S3.Bucket = v
	}
	if v := strings.TrimSpace(raw.S3.Region); v != "" {
		cfg.S3.Region = v
	}
	if v := strings.TrimSpace(raw.S3.Endpoint); v != "" {
		cfg.S3.Endpoint = v
	}
	if v := strings.TrimSpace(raw.S3.AccessKeyID); v != "" {
		cfg.S3.AccessKeyID = v
	}
	if v := strings.TrimSpace(raw.S3.SecretAccessKey); v != "" {
		cfg.S3.SecretAccessKey = v
	}
	if raw.S3.PathStyle != nil {
		cfg.S3.UsePathStyle = *raw.S3.PathStyle
	}
	if v := strings.TrimSpace(raw.S3.CustomDomain); v != "" {
		cfg.S3.CustomDomain = v
	}
	if raw.S3.PresignMinutes > 0 {
		cfg.S3.Presign = time.Duration(raw.S3.PresignMinutes) * time.Minute
	}
	return normalizeStorageConfig(cfg)
}

func (c *AppConfig) IsDev() bool { return c.Env == "development" || c.Env == "dev" }

// LogDir resolves the log directory against the executable directory.
func (c *AppConfig) LogDir() string {
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}

// StorageRoot resolves the local object store root.
func (c *AppConfig) StorageRoot() string {
	return ResolveRuntimePath(c.Storage.Root, defaultStorageRoot)
}
