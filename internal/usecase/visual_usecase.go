package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/imageproc"
	"github.com/DRSN-tech/tourism-backend/internal/search"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
	"github.com/DRSN-tech/tourism-backend/pkg/metrics"
	"github.com/cespare/xxhash/v2"
)

const (
	DefaultTopK = 15
	MaxTopK     = 100
)

// VisualUseCase ищет эталонные изображения, похожие на загруженное фото.
type VisualUseCase struct {
	catalog   *domain.Catalog
	extractor FeatureExtractor
	load      search.IndexLoader
	indexPath string
	ranker    SimilarityRanker
	cacheRepo SimilarityCacheRepository
	logger    logger.Logger
}

func NewVisualUC(
	catalog *domain.Catalog,
	extractor FeatureExtractor,
	load search.IndexLoader,
	indexPath string,
	ranker SimilarityRanker,
	cacheRepo SimilarityCacheRepository,
	logger logger.Logger,
) *VisualUseCase {
	return &VisualUseCase{
		catalog:   catalog,
		extractor: extractor,
		load:      load,
		indexPath: indexPath,
		ranker:    ranker,
		cacheRepo: cacheRepo,
		logger:    logger,
	}
}

// CheckIndex читает индекс при старте и сверяет параметры предобработки с ожидаемыми.
func (v *VisualUseCase) CheckIndex(expected domain.Preprocessing) (*domain.IndexMeta, error) {
	const op = "VisualUseCase.CheckIndex"

	index, err := v.load(v.indexPath)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if !index.Meta.Preprocessing.Equal(expected) {
		return nil, e.Wrap(op, fmt.Errorf("%w: index %+v, expected %+v",
			e.ErrPreprocessMismatch, index.Meta.Preprocessing, expected))
	}

	metrics.IndexEntries.Set(float64(index.Len()))
	v.logger.Infof("Embedding index loaded: model=%s dim=%d entries=%d", index.Meta.Model, index.Meta.Dim, index.Len())

	return &index.Meta, nil
}

// SimilarImages готовит изображение параметрами снимка индекса, извлекает эмбеддинг и ранжирует эталоны.
func (v *VisualUseCase) SimilarImages(ctx context.Context, req *SimilarImagesReq) (*SimilarImagesRes, error) {
	const op = "VisualUseCase.SimilarImages"

	if req.Image == nil {
		return nil, e.Wrap(op, e.ErrInvalidImage)
	}

	k, err := normalizeTopK(req.K)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	index, err := v.load(v.indexPath)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	tensor, err := imageproc.Preprocess(req.Image, index.Meta.Preprocessing)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Кэш по тензору: одинаковое фото не требует повторного обращения к модели
	key := similarityCacheKey(index.Meta, tensor, k)
	if matches, ok := v.getCached(ctx, key); ok {
		metrics.SimilarityCache.WithLabelValues("hit").Inc()
		return v.newSimilarImagesRes(index.Meta.Model, matches, true), nil
	}
	metrics.SimilarityCache.WithLabelValues("miss").Inc()

	query, err := v.extractor.Extract(ctx, tensor)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	matches, err := v.ranker.Rank(ctx, query, index, k)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	v.setCached(key, matches)

	return v.newSimilarImagesRes(index.Meta.Model, matches, false), nil
}

func (v *VisualUseCase) getCached(ctx context.Context, key string) ([]domain.Match, bool) {
	const op = "VisualUseCase.getCached"

	if v.cacheRepo == nil {
		return nil, false
	}

	matches, ok, err := v.cacheRepo.GetMatches(ctx, key)
	if err != nil {
		v.logger.Warnf("Failed to read similarity cache: %v", e.Wrap(op, err))
		return nil, false
	}

	return matches, ok
}

// setCached пишет в кэш в фоне, чтобы не задерживать ответ.
func (v *VisualUseCase) setCached(key string, matches []domain.Match) {
	const op = "VisualUseCase.setCached"

	if v.cacheRepo == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := v.cacheRepo.SetMatches(ctx, key, matches); err != nil {
			v.logger.Warnf("Failed to cache similarity result: %v", e.Wrap(op, err))
		}
	}()
}

func (v *VisualUseCase) newSimilarImagesRes(model string, matches []domain.Match, cached bool) *SimilarImagesRes {
	res := &SimilarImagesRes{
		Model:  model,
		Cached: cached,
		Items:  make([]SimilarItem, 0, len(matches)),
	}

	for _, m := range matches {
		var info *domain.POI
		if poi, ok := v.catalog.ByID(m.ID); ok {
			info = &poi
		}
		res.Items = append(res.Items, NewSimilarItem(m.ID, m.Score, info))
	}

	return res
}

func normalizeTopK(k int) (int, error) {
	switch {
	case k < 0:
		return 0, e.ErrInvalidK
	case k == 0:
		return DefaultTopK, nil
	case k > MaxTopK:
		return MaxTopK, nil
	default:
		return k, nil
	}
}

// similarityCacheKey привязан к снимку индекса: пересборка индекса делает старые ключи недостижимыми.
func similarityCacheKey(meta domain.IndexMeta, tensor *imageproc.Tensor, k int) string {
	return fmt.Sprintf("similar:%s:%d:%d:%016x", meta.Model, meta.CreatedAt.UnixNano(), k, xxhash.Sum64(tensor.Bytes()))
}
