package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/tourism-backend/internal/cfg"
	v1Grpc "github.com/DRSN-tech/tourism-backend/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/tourism-backend/internal/delivery/v1/http"
	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/infrastructure/kafka"
	minioInfra "github.com/DRSN-tech/tourism-backend/internal/infrastructure/minio"
	ml_service "github.com/DRSN-tech/tourism-backend/internal/infrastructure/ml-service"
	"github.com/DRSN-tech/tourism-backend/internal/repository/dataset"
	"github.com/DRSN-tech/tourism-backend/internal/repository/indexfile"
	s3Repo "github.com/DRSN-tech/tourism-backend/internal/repository/minio"
	"github.com/DRSN-tech/tourism-backend/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/tourism-backend/internal/repository/pgdb/converter"
	qdrantRepo "github.com/DRSN-tech/tourism-backend/internal/repository/qdrant"
	"github.com/DRSN-tech/tourism-backend/internal/repository/redis"
	"github.com/DRSN-tech/tourism-backend/internal/usecase"
	"github.com/DRSN-tech/tourism-backend/pkg/auth"
	"github.com/DRSN-tech/tourism-backend/pkg/clients"
	"github.com/DRSN-tech/tourism-backend/pkg/closer"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
	"github.com/DRSN-tech/tourism-backend/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	migrationsDir   = "db/migrations"
	shutdownTimeout = 10 * time.Second
	startupTimeout  = 10 * time.Second
)

// App связывает хранилища, юзкейсы и оба транспорта.
type App struct {
	cfg     *config.Config
	logger  logger.Logger
	closer  *closer.Closer
	httpSrv *v1Http.Server
	grpcSrv *v1Grpc.GRPCServer
	outbox  *kafka.OutboxWorker

	// отменяется при завершении: фоновые задачи MinIO и outbox
	bgCtx    context.Context
	bgCancel context.CancelFunc
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	bgCtx, bgCancel := context.WithCancel(context.Background())
	a := &App{
		cfg:      cfg,
		logger:   log,
		closer:   closer.NewCloser(2 * time.Second),
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}

	if err := a.init(); err != nil {
		bgCancel()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := a.closer.Close(ctx); cerr != nil {
			log.Warnf("partial init cleanup: %v", cerr)
		}
		return nil, err
	}

	return a, nil
}

func (a *App) init() error {
	cfg, log := a.cfg, a.logger

	catalog, err := dataset.NewLoader(cfg.Dataset.Dir, log).Load()
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	db, err := initPGDB(log, cfg)
	if err != nil {
		return err
	}
	a.closer.Add("postgres", func(context.Context) error {
		db.Close()
		return nil
	})

	userRepo := pgdb.NewUserRepo(db.Pool, pgdbConv.UserConverterImpl{})
	favoriteRepo := pgdb.NewFavoriteRepo(db.Pool, pgdbConv.SavedItemConverterImpl{})
	cartRepo := pgdb.NewCartRepo(db.Pool, pgdbConv.SavedItemConverterImpl{})
	itineraryRepo := pgdb.NewItineraryRepo(db.Pool, pgdbConv.ItineraryConverterImpl{})
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, pgdbConv.OutboxEventConverterImpl{})

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("redis", func(context.Context) error { return redisClient.Close() })
	cacheRepo := redis.NewSimilarityCacheRepo(redisClient, cfg.Redis.SimilarityTTL, log)

	var embeddingRepo usecase.EmbeddingRepository
	if cfg.Qdrant.Enabled() {
		qdrantClient, err := clients.NewQdrantClient(cfg.Qdrant)
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}
		a.closer.Add("qdrant", func(context.Context) error { return qdrantClient.Close() })

		qdrantCtx, qdrantCancel := context.WithTimeout(context.Background(), startupTimeout)
		defer qdrantCancel()
		if err := clients.EnsureCollection(qdrantCtx, qdrantClient); err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}
		embeddingRepo = qdrantRepo.NewEmbeddingRepo(qdrantClient.Client, cfg.Qdrant)
	}

	if err := a.fetchIndex(); err != nil {
		return err
	}

	conn, err := grpc.NewClient(
		cfg.Ml.Addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("ml-service conn", func(context.Context) error { return conn.Close() })
	extractor := ml_service.NewFeatureExtractor(conn, cfg.Ml, log)

	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("kafka producer", func(context.Context) error { return producer.Close() })
	if err := producer.EnsureTopic(startupTimeout); err != nil {
		log.Warnf("kafka topic %q not ensured: %v", cfg.Kafka.Topic, err)
	}

	a.outbox = kafka.NewOutboxWorker(outboxRepo, log, producer, cfg.Outbox, db.Dsn)

	ranker, err := usecase.NewRanker(cfg.Index.Backend, embeddingRepo)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	geoUC := usecase.NewGeoUC(catalog, cfg.Search.NearbyCacheTTL, log)
	catalogUC := usecase.NewCatalogUC(catalog)
	visualUC := usecase.NewVisualUC(catalog, extractor, indexfile.NewCache().Load, cfg.Index.Path, ranker, cacheRepo, log)
	memberUC := usecase.NewMemberUC(
		userRepo,
		favoriteRepo,
		cartRepo,
		itineraryRepo,
		outboxRepo,
		db.Pool,
		tokens,
		catalog,
		log,
	)

	// предобработка индекса обязана совпадать с конвейером запроса
	if _, err := visualUC.CheckIndex(domain.DefaultPreprocessing()); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	a.grpcSrv = v1Grpc.NewGRPCServer(cfg.Grpc, log)
	a.grpcSrv.RegisterServices(geoUC, visualUC)

	r := chi.NewRouter()
	v1Http.NewRouter(r, cfg.Http, log).Init(v1Http.UseCases{
		Geo:     geoUC,
		Visual:  visualUC,
		Catalog: catalogUC,
		Member:  memberUC,
		Tokens:  tokens,
	})
	a.httpSrv = v1Http.NewServer(r, cfg.Http, log)

	return nil
}

// fetchIndex скачивает опубликованный индекс из MinIO, если задан INDEX_OBJECT_KEY.
func (a *App) fetchIndex() error {
	if a.cfg.Index.ObjectKey == "" {
		return nil
	}

	minioClient, err := clients.NewMinIOClient(a.cfg.Minio)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := clients.EnsureBucket(ctx, minioClient, a.cfg.Minio.BucketName); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	storage := minioInfra.NewMinioInfrastructure(s3Repo.NewObjectRepo(minioClient, a.cfg.Minio), a.cfg.Minio, a.logger, a.bgCtx)
	if err := storage.FetchIndex(ctx, a.cfg.Index.ObjectKey, a.cfg.Index.Path); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.logger.Infof("Embedding index %s fetched to %s", a.cfg.Index.ObjectKey, a.cfg.Index.Path)

	return nil
}

// Run запускает серверы и outbox и блокируется до сигнала или фатальной ошибки сервера.
func (a *App) Run() error {
	a.outbox.Start(a.bgCtx)

	grpcErrCh := make(chan error, 1)
	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			grpcErrCh <- err
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case appErr = <-grpcErrCh:
		a.logger.Errorf(appErr, "gRPC server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	a.shutdown()

	return appErr
}

func (a *App) shutdown() {
	// === Graceful shutdown ===
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.httpSrv.Stop(ctx); err != nil {
		a.logger.Errorf(err, "HTTP server shutdown error")
	} else {
		a.logger.Infof("HTTP server stopped")
	}

	if err := a.grpcSrv.Stop(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		a.logger.Errorf(err, "gRPC server shutdown error")
	}

	a.outbox.Stop()
	a.bgCancel()

	if err := a.closer.Close(ctx); err != nil {
		a.logger.Warnf("%v", err)
	}

	a.logger.Infof("Application shutdown complete")
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger, migrationsDir); err != nil {
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
