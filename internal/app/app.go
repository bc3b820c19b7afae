package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/theoryboard/theoryboard/internal/config"
	"github.com/theoryboard/theoryboard/internal/db"
	"github.com/theoryboard/theoryboard/internal/docstore"
	"github.com/theoryboard/theoryboard/internal/identity"
	"github.com/theoryboard/theoryboard/internal/metrics"
	"github.com/theoryboard/theoryboard/internal/model"
	"github.com/theoryboard/theoryboard/internal/repository"
	"github.com/theoryboard/theoryboard/internal/service"
	"github.com/theoryboard/theoryboard/internal/storage"
	"github.com/theoryboard/theoryboard/internal/upload"
)

type App struct {
	Cfg               *config.Config
	Store             docstore.Store
	Bus               identity.Bus
	Sessions          *identity.Provider
	Registry          *prometheus.Registry
	Metrics           *metrics.Collector
	Fallback          model.Display
	AuthService       *service.AuthService
	ProfileService    *service.ProfileService
	FeedService       *service.FeedService
	SubmissionService *service.SubmissionService
	FileService       *service.FileService // Nil when no bucket is configured

	stopEvents func()
	eventsDone chan struct{}
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	bus, err := openBus(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// Storage (optional when an external upload endpoint is configured)
	var fileStorage storage.Storage
	if cfg.S3Bucket != "" {
		fileStorage, err = storage.New(ctx, cfg)
		if err != nil {
			_ = bus.Close()
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
	}

	theoryUploader, avatarUploader := newUploaders(cfg, fileStorage)

	// Repositories
	postRepository := repository.NewPostRepository(store)
	profileRepository := repository.NewProfileRepository(store)
	accountRepository := repository.NewAccountRepository(store)
	fileRepository := repository.NewFileRepository(store)

	fallback := model.Display{Name: model.DefaultDisplayName, Avatar: cfg.DefaultAvatarURL}

	// Services
	sessions := identity.NewProvider(cfg.JWTSecret, cfg.JWTExpiry, cfg.IsProduction(), bus)
	authService := service.NewAuthService(accountRepository, profileRepository)
	profileService := service.NewProfileService(profileRepository, avatarUploader)
	feedService := service.NewFeedService(postRepository, profileRepository, fallback, cfg.FeedLookupConcurrency, collector)
	submissionService := service.NewSubmissionService(postRepository, theoryUploader, collector)

	var fileService *service.FileService
	if fileStorage != nil {
		fileService = service.NewFileService(fileRepository, fileStorage, upload.TheoryPrefix)
	}

	a := &App{
		Cfg:               cfg,
		Store:             store,
		Bus:               bus,
		Sessions:          sessions,
		Registry:          registry,
		Metrics:           collector,
		Fallback:          fallback,
		AuthService:       authService,
		ProfileService:    profileService,
		FeedService:       feedService,
		SubmissionService: submissionService,
		FileService:       fileService,
	}
	a.watchSessionEvents()

	return a, nil
}

// OpenStore connects the document store selected by STORE_DRIVER
func OpenStore(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverSQL:
		database, err := db.Open(ctx, cfg.DBDriver, cfg.DBConnection)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return docstore.NewSQL(database), nil
	case config.StoreDriverMongo:
		store, err := docstore.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mongo: %w", err)
		}
		return store, nil
	case config.StoreDriverMemory:
		slog.Warn("using in-memory document store, data is lost on restart")
		return docstore.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openBus(ctx context.Context, cfg *config.Config) (identity.Bus, error) {
	if cfg.RedisURL == "" {
		return identity.NewMemoryBus(), nil
	}

	bus, err := identity.NewRedisBus(ctx, cfg.RedisURL, cfg.RedisChannel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session event bus: %w", err)
	}
	slog.Info("session events over redis", "channel", cfg.RedisChannel)
	return bus, nil
}

// newUploaders picks the external endpoint when configured, else direct bucket writes
func newUploaders(cfg *config.Config, s storage.Storage) (theories, avatars upload.Uploader) {
	if cfg.UploadEndpoint != "" {
		client := upload.NewClient(cfg.UploadEndpoint, cfg.UploadTimeout, cfg.UploadToken)
		return client, client
	}
	return upload.NewDirect(s, upload.TheoryPrefix), upload.NewDirect(s, upload.AvatarPrefix)
}

// watchSessionEvents counts sign-ins and sign-outs until Close
func (a *App) watchSessionEvents() {
	ctx, cancel := context.WithCancel(context.Background())
	events, unsubscribe := a.Sessions.Subscribe(ctx)

	a.stopEvents = func() {
		unsubscribe()
		cancel()
	}
	a.eventsDone = make(chan struct{})

	go func() {
		defer close(a.eventsDone)
		for ev := range events {
			a.Metrics.RecordSessionEvent(string(ev.Kind))
		}
	}()
}

func (a *App) Close() error {
	if a.stopEvents != nil {
		a.stopEvents()
		<-a.eventsDone
	}

	var errs []error
	if a.Bus != nil {
		errs = append(errs, a.Bus.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
