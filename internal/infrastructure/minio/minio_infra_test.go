package minio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/cfg"
	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/usecase"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/jitter"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockObjectRepo struct {
	mock.Mock
}

func (m *MockObjectRepo) Upload(ctx context.Context, object *domain.Object) (string, error) {
	args := m.Called(ctx, object)
	return args.String(0), args.Error(1)
}

func (m *MockObjectRepo) Download(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockObjectRepo) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func newInfra(repo *MockObjectRepo, limit int) *MinioInfrastructure {
	infra := NewMinioInfrastructure(repo, &cfg.MinIOCfg{BucketName: "tourism", UploadImagesLimit: limit}, logger.NewNop(), context.Background())
	infra.backoff = jitter.NewBackoff(time.Millisecond, 4*time.Millisecond)
	return infra
}

func objectKey(key string) interface{} {
	return mock.MatchedBy(func(o *domain.Object) bool { return o.ObjectKey == key })
}

func TestUploadImages_KeysInRequestOrder(t *testing.T) {
	repo := new(MockObjectRepo)
	infra := newInfra(repo, 2)

	repo.On("Upload", mock.Anything, objectKey("ref/A1.jpg")).Return("ref/A1.jpg", nil).Once()
	repo.On("Upload", mock.Anything, objectKey("ref/A2.png")).Return("ref/A2.png", nil).Once()
	repo.On("Upload", mock.Anything, objectKey("ref/A3.webp")).Return("ref/A3.webp", nil).Once()

	res, err := infra.UploadImages(context.Background(), usecase.NewUploadImagesReq("ref", []usecase.ReferenceImage{
		{ID: "A1", Data: []byte{1}, MimeType: "image/jpeg"},
		{ID: "A2", Data: []byte{2}, MimeType: "image/png"},
		{ID: "A3", Data: []byte{3}, MimeType: "image/webp"},
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"ref/A1.jpg", "ref/A2.png", "ref/A3.webp"}, res.ImagesKeys)
	repo.AssertExpectations(t)
}

func TestUploadImages_UnsupportedMimeCleansUp(t *testing.T) {
	repo := new(MockObjectRepo)
	infra := newInfra(repo, 1)

	repo.On("Upload", mock.Anything, objectKey("ref/A1.jpg")).Return("ref/A1.jpg", nil).Maybe()
	repo.On("Delete", mock.Anything, "ref/A1.jpg").Return(nil).Maybe()

	_, err := infra.UploadImages(context.Background(), usecase.NewUploadImagesReq("ref", []usecase.ReferenceImage{
		{ID: "A1", Data: []byte{1}, MimeType: "image/jpeg"},
		{ID: "A2", Data: []byte{2}, MimeType: "image/gif"},
	}))
	require.ErrorIs(t, err, e.ErrUnsupportedMedia)

	require.NoError(t, infra.WaitForCleanup(context.Background()))
	repo.AssertExpectations(t)
}

func TestCleanupImages_RetriesThenGivesUp(t *testing.T) {
	repo := new(MockObjectRepo)
	infra := newInfra(repo, 1)

	repo.On("Delete", mock.Anything, "ref/A1.jpg").Return(errors.New("unavailable")).Times(cleanupAttempts)
	repo.On("Delete", mock.Anything, "ref/A2.jpg").Return(errors.New("unavailable")).Once()
	repo.On("Delete", mock.Anything, "ref/A2.jpg").Return(nil).Once()

	infra.CleanupImages([]string{"ref/A1.jpg", "ref/A2.jpg"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, infra.WaitForCleanup(ctx))
	repo.AssertExpectations(t)
}

func TestPublishIndex(t *testing.T) {
	repo := new(MockObjectRepo)
	infra := newInfra(repo, 1)

	path := filepath.Join(t.TempDir(), "index.tidx")
	require.NoError(t, os.WriteFile(path, []byte("TIDX"), 0o600))
	createdAt := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

	repo.On("Upload", mock.Anything, mock.MatchedBy(func(o *domain.Object) bool {
		return o.ObjectKey == "indexes/20260301T123000Z.tidx" &&
			string(o.Data) == "TIDX" &&
			o.ContentType == indexContentType &&
			o.Bucket == "tourism"
	})).Return("indexes/20260301T123000Z.tidx", nil).Once()

	key, err := infra.PublishIndex(context.Background(), path, createdAt)
	require.NoError(t, err)
	assert.Equal(t, "indexes/20260301T123000Z.tidx", key)
	repo.AssertExpectations(t)
}

func TestFetchIndex(t *testing.T) {
	repo := new(MockObjectRepo)
	infra := newInfra(repo, 1)

	path := filepath.Join(t.TempDir(), "nested", "index.tidx")
	repo.On("Download", mock.Anything, "indexes/x.tidx").Return([]byte("payload"), nil).Once()

	require.NoError(t, infra.FetchIndex(context.Background(), "indexes/x.tidx", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFetchIndex_NotFound(t *testing.T) {
	repo := new(MockObjectRepo)
	infra := newInfra(repo, 1)

	repo.On("Download", mock.Anything, "indexes/missing.tidx").Return(nil, e.ErrNotFound).Once()

	err := infra.FetchIndex(context.Background(), "indexes/missing.tidx", filepath.Join(t.TempDir(), "index.tidx"))
	assert.ErrorIs(t, err, e.ErrNotFound)
}
