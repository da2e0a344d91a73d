package usecase

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/imageproc"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
	"github.com/google/uuid"
)

const defaultIndexWorkers = 4

// IndexWriter сохраняет снимок индекса по пути.
type IndexWriter func(path string, index *domain.EmbeddingIndex) error

// IndexUseCase строит индекс эмбеддингов эталонных изображений.
// Внешние хранилища опциональны: nil означает, что синхронизация не настроена.
type IndexUseCase struct {
	extractor     FeatureExtractor
	write         IndexWriter
	preprocessing domain.Preprocessing
	imagesInfra   ImagesInfra
	indexStorage  IndexStorageInfra
	embeddingRepo EmbeddingRepository
	producer      MessageProducer
	logger        logger.Logger
	now           func() time.Time
}

func NewIndexUC(
	extractor FeatureExtractor,
	write IndexWriter,
	preprocessing domain.Preprocessing,
	imagesInfra ImagesInfra,
	indexStorage IndexStorageInfra,
	embeddingRepo EmbeddingRepository,
	producer MessageProducer,
	logger logger.Logger,
) *IndexUseCase {
	return &IndexUseCase{
		extractor:     extractor,
		write:         write,
		preprocessing: preprocessing,
		imagesInfra:   imagesInfra,
		indexStorage:  indexStorage,
		embeddingRepo: embeddingRepo,
		producer:      producer,
		logger:        logger,
		now:           time.Now,
	}
}

type indexedImage struct {
	path     string
	id       string
	vector   domain.Vector
	data     []byte
	mimeType string
	err      error
}

// BuildIndex обходит каталог изображений, извлекает эмбеддинги и записывает индекс.
// Ошибки отдельных изображений логируются и пропускаются; сборка падает, только если не проиндексировано ничего.
func (i *IndexUseCase) BuildIndex(ctx context.Context, req *BuildIndexReq) (*BuildIndexRes, error) {
	const op = "IndexUseCase.BuildIndex"

	if err := i.validate(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	paths, skipped, err := collectImages(req.ImagesDir)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	i.logger.Infof("Indexing %d images from %s", len(paths), req.ImagesDir)

	images, err := i.extractAll(ctx, paths, req.Workers, req.UploadObjects)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var (
		entries = make([]domain.IndexEntry, 0, len(images))
		kept    = make([]indexedImage, 0, len(images))
		dim     int
	)
	for _, img := range images {
		if img.err == nil && dim != 0 && len(img.vector) != dim {
			img.err = e.ErrDimensionMismatch
		}
		if img.err != nil {
			i.logger.Warnf("Skipping %s: %v", img.path, img.err)
			skipped = append(skipped, SkippedImage{Path: img.path, Reason: img.err.Error()})
			continue
		}

		dim = len(img.vector)
		entries = append(entries, domain.IndexEntry{ID: img.id, Vector: img.vector})
		kept = append(kept, img)
	}

	if len(entries) == 0 {
		return nil, e.Wrap(op, fmt.Errorf("%w: nothing indexed in %s", e.ErrNoImages, req.ImagesDir))
	}

	index, err := domain.NewEmbeddingIndex(domain.IndexMeta{
		Model:         req.Model,
		Dim:           dim,
		Preprocessing: i.preprocessing,
		CreatedAt:     i.now().UTC(),
	}, entries)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := i.write(req.OutputPath, index); err != nil {
		return nil, e.Wrap(op, err)
	}
	i.logger.Infof("Index written to %s: %d entries, %d skipped", req.OutputPath, index.Len(), len(skipped))

	res := &BuildIndexRes{Index: index, Skipped: skipped}
	if err := i.syncSinks(ctx, req, index, kept, res); err != nil {
		return nil, e.Wrap(op, err)
	}

	return res, nil
}

func (i *IndexUseCase) validate(req *BuildIndexReq) error {
	if req.ImagesDir == "" || req.OutputPath == "" || req.Model == "" {
		return e.ErrMissingFields
	}
	if req.Workers <= 0 {
		req.Workers = defaultIndexWorkers
	}

	switch {
	case req.UploadObjects && i.imagesInfra == nil,
		req.SyncQdrant && i.embeddingRepo == nil,
		req.Publish && (i.indexStorage == nil || i.producer == nil):
		return fmt.Errorf("%w: requested sink is not configured", e.ErrInvalidInput)
	}

	return nil
}

// extractAll обрабатывает изображения параллельно, сохраняя порядок обхода каталога.
func (i *IndexUseCase) extractAll(ctx context.Context, paths []string, workers int, keepData bool) ([]indexedImage, error) {
	results := make([]indexedImage, len(paths))
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for idx, path := range paths {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = i.extractOne(ctx, path, keepData)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

func (i *IndexUseCase) extractOne(ctx context.Context, path string, keepData bool) indexedImage {
	res := indexedImage{path: path, id: imageID(path)}

	if err := ctx.Err(); err != nil {
		res.err = err
		return res
	}

	data, err := os.ReadFile(path)
	if err != nil {
		res.err = err
		return res
	}

	img, err := imageproc.Decode(data)
	if err != nil {
		res.err = err
		return res
	}

	tensor, err := imageproc.Preprocess(img, i.preprocessing)
	if err != nil {
		res.err = err
		return res
	}

	vector, err := i.extractor.Extract(ctx, tensor)
	if err != nil {
		res.err = err
		return res
	}

	res.vector, res.err = vector.NormalizedFloat32()
	if keepData {
		res.data = data
		res.mimeType = http.DetectContentType(data)
	}

	return res
}

// syncSinks загружает эталоны в S3, векторы в Qdrant и публикует индекс.
func (i *IndexUseCase) syncSinks(
	ctx context.Context,
	req *BuildIndexReq,
	index *domain.EmbeddingIndex,
	images []indexedImage,
	res *BuildIndexRes,
) (err error) {
	var uploaded *UploadImagesRes
	defer func() {
		if err != nil && uploaded != nil {
			i.logger.Warnf("Cleaning up reference images after sync failure: %v", err)
			i.imagesInfra.CleanupImages(uploaded.ImagesKeys)
		}
	}()

	if req.UploadObjects {
		refs := make([]ReferenceImage, 0, len(images))
		for _, img := range images {
			refs = append(refs, ReferenceImage{ID: img.id, Data: img.data, MimeType: img.mimeType})
		}

		prefix := fmt.Sprintf("reference/%s", index.Meta.CreatedAt.Format("20060102T150405Z"))
		uploaded, err = i.imagesInfra.UploadImages(ctx, NewUploadImagesReq(prefix, refs))
		if err != nil {
			return err
		}
	}

	if req.SyncQdrant {
		embeddings := make([]domain.Embedding, 0, len(images))
		for n, img := range images {
			location := img.path
			if uploaded != nil {
				location = uploaded.ImagesKeys[n]
			}
			embeddings = append(embeddings, *domain.NewEmbedding(
				pointID(img.id),
				img.vector,
				domain.NewPayload(img.id, location, index.Meta.Model),
			))
		}

		if err = i.embeddingRepo.Upsert(ctx, embeddings); err != nil {
			return err
		}
	}

	if req.Publish {
		res.ObjectKey, err = i.indexStorage.PublishIndex(ctx, req.OutputPath, index.Meta.CreatedAt)
		if err != nil {
			return err
		}

		err = i.producer.WriteMessage(ctx, NewWriteMessageReq(index.Meta.Model, EventIndexPublished, map[string]any{
			"object_key": res.ObjectKey,
			"model":      index.Meta.Model,
			"dim":        index.Meta.Dim,
			"entries":    index.Len(),
			"created_at": index.Meta.CreatedAt.Format(time.RFC3339Nano),
		}))
		if err != nil {
			return err
		}
	}

	return nil
}

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// collectImages возвращает пути изображений в лексикографическом порядке.
// Повторяющиеся идентификаторы (одинаковое имя файла без расширения) пропускаются.
func collectImages(dir string) ([]string, []SkippedImage, error) {
	var (
		paths   []string
		skipped []SkippedImage
		seen    = make(map[string]string)
	)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := imageExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		id := imageID(path)
		if first, dup := seen[id]; dup {
			skipped = append(skipped, SkippedImage{Path: path, Reason: "duplicate id, already indexed from " + first})
			return nil
		}
		seen[id] = path
		paths = append(paths, path)

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Strings(paths)

	return paths, skipped, nil
}

func imageID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// pointID — детерминированный UUID точки Qdrant для идентификатора эталона.
func pointID(refID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("tourism-ref:"+refID)).String()
}
