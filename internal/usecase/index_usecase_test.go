package usecase

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/imageproc"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixedExtractor struct {
	vector domain.Vector
}

func (f fixedExtractor) Extract(_ context.Context, tensor *imageproc.Tensor) (domain.Vector, error) {
	if tensor.Height != 224 || tensor.Width != 224 {
		return nil, errors.New("unexpected tensor shape")
	}
	return f.vector, nil
}

type capturedIndex struct {
	path  string
	index *domain.EmbeddingIndex
}

func (c *capturedIndex) write(path string, index *domain.EmbeddingIndex) error {
	c.path, c.index = path, index
	return nil
}

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 24, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 24; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func referenceDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), color.RGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, "b.png"), color.RGBA{B: 255, A: 255})
	writePNG(t, filepath.Join(dir, "sub", "a.png"), color.RGBA{G: 255, A: 255})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not a jpeg"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	return dir
}

func TestIndexUseCase_BuildIndex(t *testing.T) {
	dir := referenceDir(t)
	captured := &capturedIndex{}
	uc := NewIndexUC(fixedExtractor{vector: domain.Vector{1, 2, 2}}, captured.write, domain.DefaultPreprocessing(),
		nil, nil, nil, nil, logger.NewNop())
	uc.now = func() time.Time { return time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC) }

	res, err := uc.BuildIndex(context.Background(), &BuildIndexReq{
		ImagesDir:  dir,
		OutputPath: "out/index.tidx",
		Model:      "resnet50",
		Workers:    2,
	})
	require.NoError(t, err)

	assert.Equal(t, "out/index.tidx", captured.path)
	assert.Same(t, captured.index, res.Index)
	require.Equal(t, 2, res.Index.Len())
	assert.Equal(t, "a", res.Index.Entries[0].ID)
	assert.Equal(t, "b", res.Index.Entries[1].ID)
	assert.InDeltaSlice(t, []float32{1.0 / 3, 2.0 / 3, 2.0 / 3}, []float32(res.Index.Entries[0].Vector), 1e-6)

	assert.Equal(t, "resnet50", res.Index.Meta.Model)
	assert.Equal(t, 3, res.Index.Meta.Dim)
	assert.Equal(t, domain.DefaultPreprocessing(), res.Index.Meta.Preprocessing)
	assert.Equal(t, time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC), res.Index.Meta.CreatedAt)

	skipped := make([]string, 0, len(res.Skipped))
	for _, s := range res.Skipped {
		skipped = append(skipped, filepath.Base(filepath.Dir(s.Path))+"/"+filepath.Base(s.Path))
	}
	assert.ElementsMatch(t, []string{"sub/a.png", filepath.Base(dir) + "/broken.jpg"}, skipped)
}

func TestIndexUseCase_NothingIndexed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("garbage"), 0o644))

	uc := NewIndexUC(fixedExtractor{vector: domain.Vector{1}}, (&capturedIndex{}).write, domain.DefaultPreprocessing(),
		nil, nil, nil, nil, logger.NewNop())

	_, err := uc.BuildIndex(context.Background(), &BuildIndexReq{ImagesDir: dir, OutputPath: "x", Model: "m"})
	assert.ErrorIs(t, err, e.ErrNoImages)

	_, err = uc.BuildIndex(context.Background(), &BuildIndexReq{ImagesDir: dir})
	assert.ErrorIs(t, err, e.ErrMissingFields)

	_, err = uc.BuildIndex(context.Background(), &BuildIndexReq{ImagesDir: dir, OutputPath: "x", Model: "m", Publish: true})
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestIndexUseCase_ZeroVectorsAreSkipped(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), color.White)

	uc := NewIndexUC(fixedExtractor{vector: domain.Vector{0, 0}}, (&capturedIndex{}).write, domain.DefaultPreprocessing(),
		nil, nil, nil, nil, logger.NewNop())

	_, err := uc.BuildIndex(context.Background(), &BuildIndexReq{ImagesDir: dir, OutputPath: "x", Model: "m"})
	assert.ErrorIs(t, err, e.ErrNoImages)
}

func TestIndexUseCase_Sinks(t *testing.T) {
	dir := referenceDir(t)
	images := new(MockImagesInfra)
	storage := new(MockIndexStorage)
	embeddings := new(MockEmbeddingRepo)
	producer := new(MockProducer)

	uc := NewIndexUC(fixedExtractor{vector: domain.Vector{0, 3, 4}}, (&capturedIndex{}).write, domain.DefaultPreprocessing(),
		images, storage, embeddings, producer, logger.NewNop())

	images.On("UploadImages", mock.Anything, mock.MatchedBy(func(req *UploadImagesReq) bool {
		return len(req.Images) == 2 && req.Images[0].ID == "a" && req.Images[0].MimeType == "image/png"
	})).Return(NewUploadImagesRes([]string{"reference/a.png", "reference/b.png"}), nil).Once()
	embeddings.On("Upsert", mock.Anything, mock.MatchedBy(func(vectors []domain.Embedding) bool {
		return len(vectors) == 2 &&
			vectors[0].ID == pointID("a") &&
			vectors[0].Payload[domain.PayloadRefID] == "a" &&
			vectors[1].Payload["image_path"] == "reference/b.png"
	})).Return(nil).Once()
	storage.On("PublishIndex", mock.Anything, "index.tidx", mock.AnythingOfType("time.Time")).
		Return("indexes/resnet50.tidx", nil).Once()
	producer.On("WriteMessage", mock.Anything, mock.MatchedBy(func(req *WriteMessageReq) bool {
		return req.EventType == EventIndexPublished && req.Key == "resnet50" &&
			req.Fields["object_key"] == "indexes/resnet50.tidx" && req.Fields["entries"] == 2
	})).Return(nil).Once()

	res, err := uc.BuildIndex(context.Background(), &BuildIndexReq{
		ImagesDir:     dir,
		OutputPath:    "index.tidx",
		Model:         "resnet50",
		UploadObjects: true,
		SyncQdrant:    true,
		Publish:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, "indexes/resnet50.tidx", res.ObjectKey)

	images.AssertExpectations(t)
	storage.AssertExpectations(t)
	embeddings.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestIndexUseCase_SinkFailureCleansUpImages(t *testing.T) {
	dir := referenceDir(t)
	images := new(MockImagesInfra)
	embeddings := new(MockEmbeddingRepo)

	uc := NewIndexUC(fixedExtractor{vector: domain.Vector{1, 0}}, (&capturedIndex{}).write, domain.DefaultPreprocessing(),
		images, nil, embeddings, nil, logger.NewNop())

	keys := []string{"reference/a.png", "reference/b.png"}
	images.On("UploadImages", mock.Anything, mock.Anything).Return(NewUploadImagesRes(keys), nil).Once()
	embeddings.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("qdrant unavailable")).Once()
	images.On("CleanupImages", keys).Once()

	_, err := uc.BuildIndex(context.Background(), &BuildIndexReq{
		ImagesDir: dir, OutputPath: "index.tidx", Model: "m", UploadObjects: true, SyncQdrant: true,
	})
	assert.Error(t, err)

	images.AssertExpectations(t)
	embeddings.AssertExpectations(t)
}
