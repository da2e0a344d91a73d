package minio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/cfg"
	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/infrastructure"
	"github.com/DRSN-tech/tourism-backend/internal/usecase"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/jitter"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
)

const (
	indexPrefix      = "indexes"
	indexContentType = "application/octet-stream"
	cleanupAttempts  = 3
)

// MinioInfrastructure управляет эталонными изображениями и файлами индекса в MinIO.
type MinioInfrastructure struct {
	objectRepo        usecase.ObjectRepository
	cfg               *cfg.MinIOCfg
	logger            logger.Logger
	shutdownCtx       context.Context
	wg                sync.WaitGroup
	uploadImagesLimit int
	backoff           jitter.Backoff
}

func NewMinioInfrastructure(objectRepo usecase.ObjectRepository, cfg *cfg.MinIOCfg, logger logger.Logger, shutdownCtx context.Context) *MinioInfrastructure {
	limit := cfg.UploadImagesLimit
	if limit < 1 {
		limit = 1
	}

	return &MinioInfrastructure{
		objectRepo:        objectRepo,
		cfg:               cfg,
		logger:            logger,
		shutdownCtx:       shutdownCtx,
		uploadImagesLimit: limit,
		backoff:           jitter.NewBackoff(time.Second, 4*time.Second),
	}
}

type uploadedKey struct {
	idx int
	key string
}

// UploadImages загружает эталонные изображения параллельно с ограничением одновременных операций.
// Ключи возвращаются в порядке запроса. При первой ошибке остальные загрузки отменяются,
// а уже загруженные файлы удаляются в фоне.
func (m *MinioInfrastructure) UploadImages(ctx context.Context, req *usecase.UploadImagesReq) (*usecase.UploadImagesRes, error) {
	const op = "MinioInfrastructure.UploadImages"

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keyCh := make(chan uploadedKey, len(req.Images))
	errCh := make(chan error, len(req.Images))
	sem := make(chan struct{}, m.uploadImagesLimit)

	var uploadWg sync.WaitGroup
	for i, image := range req.Images {
		uploadWg.Add(1)
		go func() {
			defer uploadWg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			ext, err := infrastructure.GetExtensionFromMIME(image.MimeType)
			if err != nil {
				errCh <- fmt.Errorf("invalid mime type %s for %s: %w", image.MimeType, image.ID, err)
				return
			}

			objKey := fmt.Sprintf("%s/%s.%s", req.Prefix, image.ID, ext)
			object := domain.NewObject(m.cfg.BucketName, objKey, image.Data, image.MimeType)

			key, err := m.objectRepo.Upload(ctx, object)
			if err != nil {
				errCh <- fmt.Errorf("upload %s failed: %w", image.ID, err)
				return
			}

			keyCh <- uploadedKey{idx: i, key: key}
		}()
	}

	go func() {
		uploadWg.Wait()
		close(errCh)
		close(keyCh)
	}()

	keys := make([]string, len(req.Images))
	uploaded := make([]string, 0, len(req.Images))
	ok := false
	defer func() {
		if !ok {
			m.CleanupImages(uploaded)
		}
	}()

	for completed := 0; completed < len(req.Images); {
		select {
		case res, open := <-keyCh:
			if open {
				keys[res.idx] = res.key
				uploaded = append(uploaded, res.key)
				completed++
			}
		case err, open := <-errCh:
			if open {
				cancel()
				uploadWg.Wait()
				uploaded = drainKeys(keyCh, uploaded)
				return nil, e.Wrap(op, err)
			}
		case <-ctx.Done():
			uploadWg.Wait()
			uploaded = drainKeys(keyCh, uploaded)
			return nil, e.Wrap(op, ctx.Err())
		}
	}

	ok = true
	return usecase.NewUploadImagesRes(keys), nil
}

// drainKeys собирает ключи, успевшие загрузиться после отмены, чтобы их тоже удалить.
func drainKeys(keyCh <-chan uploadedKey, uploaded []string) []string {
	for res := range keyCh {
		uploaded = append(uploaded, res.key)
	}

	return uploaded
}

// CleanupImages запускает фоновую очистку указанных ключей MinIO
func (m *MinioInfrastructure) CleanupImages(keys []string) {
	if len(keys) == 0 {
		return
	}
	m.wg.Add(1)
	go m.cleanupUploadedKeys(keys)
}

// cleanupUploadedKeys удаляет объекты с экспоненциальной задержкой и jitter.
func (m *MinioInfrastructure) cleanupUploadedKeys(keys []string) {
	defer m.wg.Done()
	const op = "MinioInfrastructure.cleanupUploadedKeys"
	m.logger.Infof("%s: cleaning up %d uploaded keys", op, len(keys))

	ctx, cancel := context.WithTimeout(m.shutdownCtx, 30*time.Second)
	defer cancel()

	for _, key := range keys {
		for attempt := 0; attempt < cleanupAttempts; attempt++ {
			err := m.objectRepo.Delete(ctx, key)
			if err == nil {
				break
			}

			if attempt == cleanupAttempts-1 {
				m.logger.Warnf("%s: giving up on key=%s: %v", op, key, err)
				break
			}

			if !m.backoff.Wait(ctx, attempt) {
				m.logger.Warnf("cleanup interrupted by shutdown, key=%v", key)
				return
			}
		}
	}
}

// WaitForCleanup ожидает завершения всех фоновых задач очистки с учётом таймаута завершения приложения.
func (m *MinioInfrastructure) WaitForCleanup(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("minio cleanup timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}

// PublishIndex загружает файл индекса под ключом indexes/<время сборки><расширение>.
func (m *MinioInfrastructure) PublishIndex(ctx context.Context, path string, createdAt time.Time) (string, error) {
	const op = "MinioInfrastructure.PublishIndex"

	data, err := os.ReadFile(path)
	if err != nil {
		return "", e.Wrap(op, err)
	}

	objKey := fmt.Sprintf("%s/%s%s", indexPrefix, createdAt.UTC().Format("20060102T150405Z"), filepath.Ext(path))
	key, err := m.objectRepo.Upload(ctx, domain.NewObject(m.cfg.BucketName, objKey, data, indexContentType))
	if err != nil {
		return "", e.Wrap(op, err)
	}

	m.logger.Infof("%s: published %s (%d bytes)", op, key, len(data))
	return key, nil
}

// FetchIndex скачивает опубликованный индекс и атомарно заменяет файл path.
func (m *MinioInfrastructure) FetchIndex(ctx context.Context, objectKey string, path string) error {
	const op = "MinioInfrastructure.FetchIndex"

	data, err := m.objectRepo.Download(ctx, objectKey)
	if err != nil {
		return e.Wrap(op, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return e.Wrap(op, err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*")
	if err != nil {
		return e.Wrap(op, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return e.Wrap(op, err)
	}
	if err := tmp.Close(); err != nil {
		return e.Wrap(op, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return e.Wrap(op, err)
	}

	m.logger.Infof("%s: fetched %s into %s", op, objectKey, path)
	return nil
}
