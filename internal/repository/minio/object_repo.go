package minio

import (
	"bytes"
	"context"
	"io"

	"github.com/DRSN-tech/tourism-backend/internal/cfg"
	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

const noSuchKey = "NoSuchKey"

// ObjectRepo реализует хранилище объектов поверх MinIO.
type ObjectRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewObjectRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *ObjectRepo {
	return &ObjectRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Upload загружает объект в MinIO и возвращает его ключ.
func (o *ObjectRepo) Upload(ctx context.Context, object *domain.Object) (string, error) {
	bucket := object.Bucket
	if bucket == "" {
		bucket = o.cfg.BucketName
	}

	info, err := o.mc.PutObject(ctx, bucket, object.ObjectKey, bytes.NewReader(object.Data), object.Size, minio.PutObjectOptions{
		ContentType: object.ContentType,
	})
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return info.Key, nil
}

// Download читает объект целиком. Отсутствующий ключ — e.ErrNotFound.
func (o *ObjectRepo) Download(ctx context.Context, key string) ([]byte, error) {
	obj, err := o.mc.GetObject(ctx, o.cfg.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), mapMinioErr(err))
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), mapMinioErr(err))
	}

	return data, nil
}

// Delete удаляет объект из MinIO по указанному ключу.
func (o *ObjectRepo) Delete(ctx context.Context, key string) error {
	if err := o.mc.RemoveObject(ctx, o.cfg.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func mapMinioErr(err error) error {
	if minio.ToErrorResponse(err).Code == noSuchKey {
		return e.ErrNotFound
	}

	return err
}
