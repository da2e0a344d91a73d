package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/tourism-backend/internal/cfg"
	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/imageproc"
	"github.com/DRSN-tech/tourism-backend/internal/infrastructure/kafka"
	minioInfra "github.com/DRSN-tech/tourism-backend/internal/infrastructure/minio"
	ml_service "github.com/DRSN-tech/tourism-backend/internal/infrastructure/ml-service"
	"github.com/DRSN-tech/tourism-backend/internal/repository/indexfile"
	s3Repo "github.com/DRSN-tech/tourism-backend/internal/repository/minio"
	qdrantRepo "github.com/DRSN-tech/tourism-backend/internal/repository/qdrant"
	"github.com/DRSN-tech/tourism-backend/internal/search"
	"github.com/DRSN-tech/tourism-backend/internal/usecase"
	"github.com/DRSN-tech/tourism-backend/pkg/clients"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type options struct {
	imagesDir string
	output    string
	model     string
	workers   int
	upload    bool
	qdrant    bool
	publish   bool
	check     string
	checkK    int
}

func parseFlags(cfg *config.IndexerConfig) *options {
	opts := &options{}

	flag.StringVar(&opts.imagesDir, "images", "", "directory with reference images (required)")
	flag.StringVar(&opts.output, "out", cfg.Index.Path, "output index file")
	flag.StringVar(&opts.model, "model", cfg.Index.Model, "feature extractor model name recorded in the index")
	flag.IntVar(&opts.workers, "workers", 4, "concurrent extraction workers")
	flag.BoolVar(&opts.upload, "upload", false, "upload reference images to MinIO")
	flag.BoolVar(&opts.qdrant, "qdrant", false, "upsert embeddings into Qdrant")
	flag.BoolVar(&opts.publish, "publish", false, "publish the index file to MinIO and announce it on Kafka")
	flag.StringVar(&opts.check, "check", "", "query image to search against the fresh index")
	flag.IntVar(&opts.checkK, "k", 5, "results for -check")
	flag.Parse()

	return opts
}

func main() {
	log := logger.NewSlogLogger()

	cfg, err := config.LoadIndexer(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	opts := parseFlags(cfg)
	if opts.imagesDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, log); err != nil {
		log.Errorf(err, "indexer failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.IndexerConfig, opts *options, log logger.Logger) error {
	conn, err := grpc.NewClient(cfg.Ml.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer conn.Close()
	extractor := ml_service.NewFeatureExtractor(conn, cfg.Ml, log)

	// незапрошенные хранилища остаются nil-интерфейсами
	var (
		imagesInfra   usecase.ImagesInfra
		indexStorage  usecase.IndexStorageInfra
		embeddingRepo usecase.EmbeddingRepository
		producer      usecase.MessageProducer
	)

	if opts.upload || opts.publish {
		minioClient, err := clients.NewMinIOClient(cfg.Minio)
		if err != nil {
			return err
		}
		if err := clients.EnsureBucket(ctx, minioClient, cfg.Minio.BucketName); err != nil {
			return err
		}

		infra := minioInfra.NewMinioInfrastructure(s3Repo.NewObjectRepo(minioClient, cfg.Minio), cfg.Minio, log, ctx)
		defer func() {
			waitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := infra.WaitForCleanup(waitCtx); err != nil {
				log.Warnf("%v", err)
			}
		}()
		imagesInfra, indexStorage = infra, infra
	}

	if opts.qdrant {
		if !cfg.Qdrant.Enabled() {
			return errors.New("-qdrant requires QDRANT_HOST")
		}
		qdrantClient, err := clients.NewQdrantClient(cfg.Qdrant)
		if err != nil {
			return err
		}
		defer qdrantClient.Close()

		if err := clients.EnsureCollection(ctx, qdrantClient); err != nil {
			return err
		}
		embeddingRepo = qdrantRepo.NewEmbeddingRepo(qdrantClient.Client, cfg.Qdrant)
	}

	if opts.publish {
		if cfg.Kafka == nil {
			return errors.New("-publish requires KAFKA_BROKERS")
		}
		p, err := kafka.NewProducer(log, cfg.Kafka)
		if err != nil {
			return err
		}
		defer p.Close()

		if err := p.EnsureTopic(10 * time.Second); err != nil {
			log.Warnf("kafka topic %q not ensured: %v", cfg.Kafka.Topic, err)
		}
		producer = p
	}

	indexUC := usecase.NewIndexUC(
		extractor,
		indexfile.Write,
		domain.DefaultPreprocessing(),
		imagesInfra,
		indexStorage,
		embeddingRepo,
		producer,
		log,
	)

	res, err := indexUC.BuildIndex(ctx, &usecase.BuildIndexReq{
		ImagesDir:     opts.imagesDir,
		OutputPath:    opts.output,
		Model:         opts.model,
		Workers:       opts.workers,
		UploadObjects: opts.upload,
		SyncQdrant:    opts.qdrant,
		Publish:       opts.publish,
	})
	if err != nil {
		return err
	}

	for _, s := range res.Skipped {
		log.Warnf("skipped %s: %s", s.Path, s.Reason)
	}
	log.Infof("Index ready: %d entries, dim %d, %d skipped", res.Index.Len(), res.Index.Meta.Dim, len(res.Skipped))
	if res.ObjectKey != "" {
		log.Infof("Published as %s", res.ObjectKey)
	}

	if opts.check != "" {
		return selfCheck(ctx, extractor, opts, log)
	}

	return nil
}

// selfCheck ищет по только что записанному индексу тем же путём, что и сервер.
func selfCheck(ctx context.Context, extractor search.Extractor, opts *options, log logger.Logger) error {
	data, err := os.ReadFile(opts.check)
	if err != nil {
		return err
	}

	img, err := imageproc.Decode(data)
	if err != nil {
		return err
	}

	matches, err := search.VisualSimilaritySearch(ctx, extractor, indexfile.Read, img, opts.output, opts.checkK)
	if err != nil {
		return err
	}

	for n, m := range matches {
		log.Infof("%2d. %s  %.4f", n+1, m.ID, m.Score)
	}

	return nil
}
