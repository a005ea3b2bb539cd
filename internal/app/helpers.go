package app

import (
	"context"

	"github.com/mx-space/publisher/internal/config"
	"github.com/mx-space/publisher/internal/pkg/objectstore"
	pkgredis "github.com/mx-space/publisher/internal/pkg/redis"
	"github.com/mx-space/publisher/internal/pkg/session"
	"go.uber.org/zap"
)

// openStore builds the object store selected by storage.driver.
func openStore(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (objectstore.Store, error) {
	st := cfg.Storage
	if st.Driver == config.StorageDriverS3 {
		publicBase := st.PublicBaseURL
		if st.S3.CustomDomain != "" {
			publicBase = st.S3.CustomDomain
		}
		return objectstore.NewS3(ctx, objectstore.S3Config{
			Bucket:          st.S3.Bucket,
			Region:          st.S3.Region,
			Endpoint:        st.S3.Endpoint,
			AccessKeyID:     st.S3.AccessKeyID,
			SecretAccessKey: st.S3.SecretAccessKey,
			UsePathStyle:    st.S3.UsePathStyle,
		},
			objectstore.WithLogger(logger),
			objectstore.WithPresignExpiration(st.S3.Presign),
			objectstore.WithPublicBaseURL(publicBase),
		)
	}
	return objectstore.NewDisk(cfg.StorageRoot(), st.PublicBaseURL, objectstore.WithDiskLogger(logger))
}

// openSessions prefers Redis for visitor markers. Without Redis, markers live
// in process memory and are lost on restart.
func openSessions(cfg *config.AppConfig, logger *zap.Logger) (session.Store, func() error) {
	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, view markers fall back to memory", zap.Error(err))
		return session.NewMemoryStore(session.WithTTL(cfg.Views.MarkerTTL)), nil
	}
	return session.NewRedisStore(rc, cfg.Views.MarkerTTL), rc.Close
}
