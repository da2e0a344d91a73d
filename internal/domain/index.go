package domain

import (
	"time"

	"github.com/DRSN-tech/tourism-backend/pkg/e"
)

// Preprocessing описывает конвейер подготовки изображения перед извлечением признаков.
// Параметры сохраняются в файле индекса и сверяются при запросе.
type Preprocessing struct {
	ResizeShortSide int
	CropSize        int
	Mean            [3]float32
	Std             [3]float32
}

// DefaultPreprocessing — параметры ImageNet для ResNet-50.
func DefaultPreprocessing() Preprocessing {
	return Preprocessing{
		ResizeShortSide: 256,
		CropSize:        224,
		Mean:            [3]float32{0.485, 0.456, 0.406},
		Std:             [3]float32{0.229, 0.224, 0.225},
	}
}

// Equal сравнивает параметры побитово.
func (p Preprocessing) Equal(other Preprocessing) bool {
	return p == other
}

// IndexMeta — заголовок индекса эмбеддингов.
type IndexMeta struct {
	Model         string
	Dim           int
	Preprocessing Preprocessing
	CreatedAt     time.Time
}

// IndexEntry — одна запись индекса: идентификатор эталонного изображения и его вектор.
type IndexEntry struct {
	ID     string
	Vector Vector
}

// EmbeddingIndex — неизменяемый снимок индекса, построенный офлайн.
type EmbeddingIndex struct {
	Meta    IndexMeta
	Entries []IndexEntry
}

func NewEmbeddingIndex(meta IndexMeta, entries []IndexEntry) (*EmbeddingIndex, error) {
	for _, entry := range entries {
		if len(entry.Vector) != meta.Dim {
			return nil, e.ErrDimensionMismatch
		}
	}

	return &EmbeddingIndex{Meta: meta, Entries: entries}, nil
}

func (i *EmbeddingIndex) Len() int {
	if i == nil {
		return 0
	}

	return len(i.Entries)
}

// Match — результат поиска похожих изображений.
type Match struct {
	ID    string
	Score float64
}
