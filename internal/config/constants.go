package config

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 2333
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "publisher"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379
	defaultRedisDB    = 0

	defaultStorageDriver   = StorageDriverLocal
	defaultStorageRoot     = "static"
	defaultS3Region        = "us-east-1"
	defaultPresignMinutes  = 15
	defaultSlugSeparator   = "-"
	defaultSlugSuffixLen   = 12
	defaultSlugAttempts    = 5
	defaultMarkerTTLHours  = 24
	defaultRankingMaxPage  = 100
	defaultTrendingDays    = 7
	defaultUploadMaxSizeMB = 50
	defaultUploadTimeout   = 60
	defaultImageMaxDim     = 600
	defaultImageQuality    = 80
	defaultSessionCookie   = "pub_sid"
)

const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)
