// Package app assembles the configured application: database, repositories,
// services, HTTP surface, observability runtime, and background janitor.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mswierczewski/socialwall/internal/config"
	"github.com/mswierczewski/socialwall/internal/domain"
	"github.com/mswierczewski/socialwall/internal/http/handler"
	"github.com/mswierczewski/socialwall/internal/http/middleware"
	"github.com/mswierczewski/socialwall/internal/http/router"
	"github.com/mswierczewski/socialwall/internal/observability"
	"github.com/mswierczewski/socialwall/internal/repository"
	"github.com/mswierczewski/socialwall/internal/security"
	"github.com/mswierczewski/socialwall/internal/service"
	"github.com/mswierczewski/socialwall/internal/storage"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *gorm.DB
	Server        *http.Server
	Sessions      *service.SessionService
	Auth          *service.AuthService
	Observability *observability.Runtime

	verifications repository.VerificationTokenRepository
	redisClient   *redis.Client
}

// Build wires every component from config. The returned App is ready for Run.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}

	runtime, err := observability.InitRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	files, err := storage.NewFSStore(cfg.StorageDir)
	if err != nil {
		return nil, err
	}

	tokens := repository.NewTokenRepository(db)
	users := repository.NewUserRepository(db)
	verifications := repository.NewVerificationTokenRepository(db)
	posts := repository.NewPostRepository(db)
	comments := repository.NewCommentRepository(db)
	votes := repository.NewVoteRepository(db)

	codec := security.NewTokenCodec(cfg.JWTSecret)
	sessions := service.NewSessionService(tokens, users, codec, cfg.TokenValidity)

	var mail service.MailSender
	if cfg.MailEnabled {
		mail = service.NewSMTPMailSender(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	} else {
		mail = service.NewLogMailSender(logger)
	}

	auth := service.NewAuthService(users, verifications, sessions, mail, logger, cfg.BaseURL, cfg.VerificationTokenValidity)
	userSvc := service.NewUserService(users, files, logger)
	postSvc := service.NewPostService(posts, comments, votes, files, logger)

	var redisClient *redis.Client
	limiter := middleware.NewLocalLimiter()
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		limiter = middleware.NewRedisLimiter(redisClient, "socialwall:ratelimit")
	}

	handlerDeps := router.Dependencies{
		AuthHandler: handler.NewAuthHandler(auth, userSvc),
		UserHandler: handler.NewUserHandler(userSvc),
		PostHandler: handler.NewPostHandler(postSvc),
		Sessions:    sessions,
		Logger:      logger,
		APILimiter:  middleware.RateLimit(limiter, cfg.APIRateLimitRPM, time.Minute, middleware.FailOpen, logger),
		AuthLimiter: middleware.RateLimit(limiter, cfg.AuthRateLimitRPM, time.Minute, middleware.FailClosed, logger),
		Readiness: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		EnableOTelHTTP: cfg.EnableOTelHTTP,
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.NewRouter(handlerDeps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            db,
		Server:        server,
		Sessions:      sessions,
		Auth:          auth,
		Observability: runtime,
		verifications: verifications,
		redisClient:   redisClient,
	}, nil
}

// Run serves HTTP and the token janitor until ctx is cancelled, then drains.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("http server listening", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.runJanitor(ctx)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return a.Server.Shutdown(drainCtx)
	})

	err := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if a.Observability != nil {
		if oerr := a.Observability.Shutdown(shutdownCtx); oerr != nil {
			a.Logger.Error("observability shutdown failed", "error", oerr)
		}
	}
	if a.redisClient != nil {
		_ = a.redisClient.Close()
	}
	return err
}

// runJanitor periodically deletes expired auth and verification token
// records. Revocation never deletes rows; only this loop does.
func (a *App) runJanitor(ctx context.Context) {
	ticker := time.NewTicker(a.Config.TokenJanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned, err := a.Sessions.PruneExpired(ctx)
			if err != nil {
				a.Logger.ErrorContext(ctx, "auth token prune failed", "error", err)
			} else if pruned > 0 {
				a.Logger.InfoContext(ctx, "pruned expired auth tokens", "count", pruned)
			}
			prunedVerifications, err := a.verifications.DeleteExpired(time.Now())
			if err != nil {
				a.Logger.ErrorContext(ctx, "verification token prune failed", "error", err)
			} else if prunedVerifications > 0 {
				a.Logger.InfoContext(ctx, "pruned expired verification tokens", "count", prunedVerifications)
			}
		}
	}
}

// Migrate applies the schema for every entity.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.UserRole{},
		&domain.Profile{},
		&domain.Follow{},
		&domain.AuthToken{},
		&domain.VerificationToken{},
		&domain.Post{},
		&domain.PostImage{},
		&domain.Comment{},
		&domain.Vote{},
	); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DatabaseDriver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), gormCfg)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.DatabaseDSN), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DatabaseDriver, err)
	}
	return db, nil
}
