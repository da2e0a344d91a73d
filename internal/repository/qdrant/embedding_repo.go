package qdrant

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/tourism-backend/internal/cfg"
	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

// EmbeddingRepo хранит эмбеддинги эталонных изображений в Qdrant.
type EmbeddingRepo struct {
	client *qdrant.Client
	cfg    *cfg.QdrantCfg
}

func NewEmbeddingRepo(client *qdrant.Client, cfg *cfg.QdrantCfg) *EmbeddingRepo {
	return &EmbeddingRepo{
		client: client,
		cfg:    cfg,
	}
}

// Upsert сохраняет или обновляет embedding-векторы в коллекции.
func (q *EmbeddingRepo) Upsert(ctx context.Context, vectors []domain.Embedding) error {
	if len(vectors) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(vectors))
	for _, vector := range vectors {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(vector.ID),
			Vectors: qdrant.NewVectors(vector.Vector...),
			Payload: qdrant.NewValueMap(vector.Payload),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.QdrantCollectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Search выполняет точный (без HNSW) поиск k ближайших по косинусу.
// Идентификатор совпадения берётся из payload ref_id.
func (q *EmbeddingRepo) Search(ctx context.Context, query domain.Vector, k int) ([]domain.Match, error) {
	limit := uint64(k)
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.cfg.QdrantCollectionName,
		Query: &qdrant.Query{
			Variant: &qdrant.Query_Nearest{
				Nearest: &qdrant.VectorInput{
					Variant: &qdrant.VectorInput_Dense{
						Dense: &qdrant.DenseVector{Data: query},
					},
				},
			},
		},
		Limit:       &limit,
		Params:      &qdrant.SearchParams{Exact: qdrant.PtrOf(true)},
		WithPayload: qdrant.NewWithPayloadInclude(domain.PayloadRefID),
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	matches := make([]domain.Match, 0, len(points))
	for _, point := range points {
		match, err := toMatch(point)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		matches = append(matches, match)
	}

	return matches, nil
}

func toMatch(point *qdrant.ScoredPoint) (domain.Match, error) {
	refID := point.GetPayload()[domain.PayloadRefID].GetStringValue()
	if refID == "" {
		return domain.Match{}, fmt.Errorf("%w: point %s has no %s", e.ErrIndexCorrupted, point.GetId().GetUuid(), domain.PayloadRefID)
	}

	return domain.Match{ID: refID, Score: float64(point.GetScore())}, nil
}
