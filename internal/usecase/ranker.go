package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/search"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
)

const (
	BackendLinear = "linear"
	BackendQdrant = "qdrant"
)

// SimilarityRanker ранжирует эталонные эмбеддинги по косинусному сходству с запросом.
type SimilarityRanker interface {
	Rank(ctx context.Context, query domain.Vector, index *domain.EmbeddingIndex, k int) ([]domain.Match, error)
}

// NewRanker выбирает реализацию по имени бэкенда из конфигурации.
func NewRanker(backend string, embeddingRepo EmbeddingRepository) (SimilarityRanker, error) {
	switch strings.ToLower(backend) {
	case "", BackendLinear:
		return linearRanker{}, nil
	case BackendQdrant:
		if embeddingRepo == nil {
			return nil, fmt.Errorf("%w: qdrant repository is not configured", e.ErrUnknownBackend)
		}
		return vectorStoreRanker{repo: embeddingRepo}, nil
	default:
		return nil, fmt.Errorf("%w: %q", e.ErrUnknownBackend, backend)
	}
}

// linearRanker — точный полный перебор по снимку индекса в памяти.
type linearRanker struct{}

func (linearRanker) Rank(_ context.Context, query domain.Vector, index *domain.EmbeddingIndex, k int) ([]domain.Match, error) {
	return search.RankBySimilarity(query, index, k)
}

// vectorStoreRanker делегирует перебор векторному хранилищу (точный поиск, косинусная мера).
type vectorStoreRanker struct {
	repo EmbeddingRepository
}

func (r vectorStoreRanker) Rank(ctx context.Context, query domain.Vector, index *domain.EmbeddingIndex, k int) ([]domain.Match, error) {
	if k < 1 {
		return nil, e.ErrInvalidK
	}
	if index != nil && index.Meta.Dim > 0 && len(query) != index.Meta.Dim {
		return nil, e.ErrDimensionMismatch
	}

	normalized, err := query.NormalizedFloat32()
	if err != nil {
		return nil, err
	}

	return r.repo.Search(ctx, normalized, k)
}
