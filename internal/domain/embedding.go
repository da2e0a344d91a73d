package domain

import "time"

// Payload описывает дополнительную информацию вектора
type Payload map[string]any

// Embedding представляет эмбеддинг одного эталонного изображения в векторном хранилище
type Embedding struct {
	ID      string // uuid точки в Qdrant
	Vector  Vector
	Payload Payload
}

func NewEmbedding(id string, vector Vector, payload Payload) *Embedding {
	return &Embedding{
		ID:      id,
		Vector:  vector,
		Payload: payload,
	}
}

// PayloadRefID — ключ payload с идентификатором эталонного изображения (он же ID POI).
const PayloadRefID = "ref_id"

func NewPayload(refID string, imagePath string, modelVersion string) Payload {
	return Payload{
		PayloadRefID:    refID,
		"image_path":    imagePath,
		"created_at":    time.Now().UTC().UnixNano(),
		"model_version": modelVersion,
	}
}
