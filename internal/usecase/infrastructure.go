package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/imageproc"
)

// FeatureExtractor — внешняя модель, превращающая подготовленный тензор в эмбеддинг.
type FeatureExtractor interface {
	Extract(ctx context.Context, tensor *imageproc.Tensor) (domain.Vector, error)
}

type ImagesInfra interface {
	UploadImages(ctx context.Context, req *UploadImagesReq) (*UploadImagesRes, error)
	CleanupImages(keys []string)
}

type IndexStorageInfra interface {
	// PublishIndex загружает файл индекса и возвращает ключ объекта.
	PublishIndex(ctx context.Context, path string, createdAt time.Time) (string, error)
	// FetchIndex скачивает опубликованный индекс в path.
	FetchIndex(ctx context.Context, objectKey string, path string) error
}

type MessageProducer interface {
	WriteMessage(ctx context.Context, req *WriteMessageReq) error
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}

type TokenManager interface {
	Issue(userID int64, username string) (token string, expiresAt time.Time, err error)
}
