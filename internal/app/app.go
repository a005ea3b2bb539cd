package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mx-space/publisher/internal/config"
	"github.com/mx-space/publisher/internal/database"
	"github.com/mx-space/publisher/internal/middleware"
	"github.com/mx-space/publisher/internal/modules/content/category"
	"github.com/mx-space/publisher/internal/modules/content/post"
	"github.com/mx-space/publisher/internal/modules/stats/ranking"
	"github.com/mx-space/publisher/internal/modules/stats/views"
	"github.com/mx-space/publisher/internal/modules/storage/asset"
	pkgcron "github.com/mx-space/publisher/internal/pkg/cron"
	"github.com/mx-space/publisher/internal/pkg/imageproc"
	"github.com/mx-space/publisher/internal/pkg/objectstore"
	"github.com/mx-space/publisher/internal/pkg/session"
	"github.com/mx-space/publisher/internal/pkg/slug"
	"github.com/mx-space/publisher/internal/pkg/tenant"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the external resources the application runs on.
type Deps struct {
	DB       *gorm.DB
	Store    objectstore.Store
	Sessions session.Store
	// Close releases resources opened for Deps, if any.
	Close func() error
}

// App holds all application dependencies.
type App struct {
	cfg     *config.AppConfig
	router  *gin.Engine
	deps    Deps
	logger  *zap.Logger
	cancel  context.CancelFunc
	sched   *pkgcron.Scheduler
	lookup  *tenant.Lookup
	posts   *post.Service
	terms   *category.Service
	library *asset.Library
	counter *views.Counter
	ranking *ranking.Engine
}

// New initializes the application: config → DB → Redis → object store → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	store, err := openStore(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	sessions, closeRedis := openSessions(cfg, logger)

	app := Build(logger, cfg, Deps{DB: db, Store: store, Sessions: sessions, Close: closeRedis})
	app.startCron()
	return app, nil
}

// Build wires services and routes on top of deps without starting background jobs.
func Build(logger *zap.Logger, cfg *config.AppConfig, deps Deps) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewMemoryStore(session.WithTTL(cfg.Views.MarkerTTL))
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(corsConfig(cfg)))
	router.Use(middleware.Visitor(cfg.Views.SessionCookie, !cfg.IsDev()))

	upload := cfg.Upload
	pipeline := asset.NewPipeline(deps.Store,
		asset.WithLogger(logger),
		asset.WithTransformer(imageproc.NewResizer(upload.ImageMaxDim, upload.ImageQuality)),
		asset.WithMaxBytes(maxUploadBytes(cfg)),
		asset.WithTimeout(upload.Timeout),
	)
	library := asset.NewLibrary(deps.DB, pipeline, logger)

	slugs := slug.NewGenerator(slug.NewGormChecker(deps.DB), slug.Config{
		Separator:    cfg.Slug.Separator,
		SuffixLength: cfg.Slug.SuffixLength,
		MaxAttempts:  cfg.Slug.MaxAttempts,
		OnUpdate:     cfg.Slug.OnUpdate,
	}, slug.WithLogger(logger))
	terms := category.NewService(deps.DB,
		category.WithLogger(logger),
		category.WithSlugConfig(slugs.Config()),
	)

	a := &App{
		cfg:     cfg,
		router:  router,
		deps:    deps,
		logger:  logger,
		cancel:  func() {},
		sched:   pkgcron.New(logger),
		lookup:  tenant.NewLookup(deps.DB),
		posts:   post.NewService(deps.DB, slugs, terms, post.WithLogger(logger), post.WithLibrary(library)),
		terms:   terms,
		library: library,
		counter: views.NewCounter(deps.DB, views.WithLogger(logger)),
		ranking: ranking.NewEngine(deps.DB,
			ranking.WithMaxPage(cfg.Ranking.MaxPage),
			ranking.WithTrendingDays(cfg.Ranking.TrendingDays),
		),
	}
	registerCronJobs(a.sched, a.lookup, a.posts, logger)
	a.registerRoutes()
	return a
}

func (a *App) startCron() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.sched.Start(ctx)
}

func corsConfig(cfg *config.AppConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		c.AllowOriginFunc = func(origin string) bool {
			host := extractOriginHost(origin)
			for _, pattern := range patterns {
				if matchOriginPattern(pattern, host) {
					return true
				}
			}
			return false
		}
	} else {
		c.AllowOriginFunc = func(origin string) bool { return true }
	}
	return c
}

func maxUploadBytes(cfg *config.AppConfig) int64 {
	return int64(cfg.Upload.MaxSizeMB) << 20
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Scheduler exposes background jobs, mostly for manual runs.
func (a *App) Scheduler() *pkgcron.Scheduler { return a.sched }

// Shutdown stops background jobs and closes owned resources.
func (a *App) Shutdown() {
	a.cancel()
	if a.deps.Close != nil {
		if err := a.deps.Close(); err != nil {
			a.logger.Warn("close resources", zap.Error(err))
		}
	}
}
