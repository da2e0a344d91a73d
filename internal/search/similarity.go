package search

import (
	"context"
	"image"
	"sort"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/imageproc"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
)

// Extractor извлекает эмбеддинг из подготовленного тензора.
type Extractor interface {
	Extract(ctx context.Context, tensor *imageproc.Tensor) (domain.Vector, error)
}

// IndexLoader читает снимок индекса по пути.
type IndexLoader func(path string) (*domain.EmbeddingIndex, error)

// RankBySimilarity сравнивает запрос со всеми записями индекса по косинусной мере.
// Обе стороны нормализуются в момент сравнения независимо от того, как хранились.
// Возвращает min(k, размер индекса) результатов по убыванию сходства, при равенстве — в порядке индекса.
func RankBySimilarity(query domain.Vector, index *domain.EmbeddingIndex, k int) ([]domain.Match, error) {
	if k < 1 {
		return nil, e.ErrInvalidK
	}

	q, err := query.Normalized()
	if err != nil {
		return nil, err
	}

	if index.Len() == 0 {
		return []domain.Match{}, nil
	}
	if len(q) != index.Meta.Dim {
		return nil, e.ErrDimensionMismatch
	}

	matches := make([]domain.Match, 0, len(index.Entries))
	for _, entry := range index.Entries {
		if len(entry.Vector) != len(q) {
			return nil, e.Wrap(entry.ID, e.ErrDimensionMismatch)
		}

		ref, err := entry.Vector.Normalized()
		if err != nil {
			return nil, e.Wrap(entry.ID, err)
		}

		matches = append(matches, domain.Match{ID: entry.ID, Score: domain.Dot(q, ref)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > k {
		matches = matches[:k]
	}

	return matches, nil
}

// VisualSimilaritySearch загружает индекс по indexPath, готовит изображение теми же параметрами,
// что использовались при построении индекса, извлекает эмбеддинг и ранжирует записи.
// Отсутствующий или повреждённый индекс — фатальная ошибка конфигурации, повторов нет.
func VisualSimilaritySearch(
	ctx context.Context,
	extractor Extractor,
	load IndexLoader,
	img image.Image,
	indexPath string,
	k int,
) ([]domain.Match, error) {
	const op = "search.VisualSimilaritySearch"

	if img == nil {
		return nil, e.Wrap(op, e.ErrInvalidImage)
	}
	if k < 1 {
		return nil, e.Wrap(op, e.ErrInvalidK)
	}

	index, err := load(indexPath)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	tensor, err := imageproc.Preprocess(img, index.Meta.Preprocessing)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	query, err := extractor.Extract(ctx, tensor)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	matches, err := RankBySimilarity(query, index, k)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return matches, nil
}
