package ml_service

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/cfg"
	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/imageproc"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/jitter"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
	"github.com/DRSN-tech/tourism-backend/pkg/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ExtractMethod = "/ml.v1.FeatureExtractor/Extract"
	// ShapeHeader передаёт размерность тензора в виде "C,H,W".
	ShapeHeader = "x-tensor-shape"
)

// FeatureExtractor — клиент внешнего ML-сервиса, который превращает тензор изображения в эмбеддинг.
// Тело запроса — float32 little-endian в порядке CHW, ответ — float32 little-endian вектор.
type FeatureExtractor struct {
	conn       grpc.ClientConnInterface
	sem        chan struct{}
	maxRetries int
	timeout    time.Duration
	backoff    jitter.Backoff
	logger     logger.Logger
}

func NewFeatureExtractor(conn grpc.ClientConnInterface, cfg *cfg.MLServiceCfg, logger logger.Logger) *FeatureExtractor {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	return &FeatureExtractor{
		conn:       conn,
		sem:        make(chan struct{}, maxConcurrent),
		maxRetries: maxRetries,
		timeout:    cfg.Timeout,
		backoff:    jitter.NewBackoff(time.Second, 30*time.Second),
		logger:     logger,
	}
}

// Extract выполняет извлечение признаков с retry-логикой и экспоненциальной задержкой.
// Повторяются только временные ошибки (Unavailable, DeadlineExceeded, ResourceExhausted, Aborted).
func (f *FeatureExtractor) Extract(ctx context.Context, tensor *imageproc.Tensor) (domain.Vector, error) {
	const op = "FeatureExtractor.Extract"

	started := time.Now()
	defer func() { metrics.ExtractorDuration.Observe(time.Since(started).Seconds()) }()

	select {
	case f.sem <- struct{}{}:
		defer func() { <-f.sem }()
	case <-ctx.Done():
		return nil, e.Wrap(op, ctx.Err())
	}

	req := wrapperspb.Bytes(tensor.Bytes())
	shape := fmt.Sprintf("%d,%d,%d", tensor.Channels, tensor.Height, tensor.Width)

	var lastErr error
	for attempt := 0; attempt < f.maxRetries; attempt++ {
		vector, err := f.call(ctx, req, shape)
		if err == nil {
			return vector, nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == f.maxRetries-1 {
			break
		}

		f.logger.Warnf("feature extraction failed, retrying (attempt %d): %v", attempt+1, err)
		if !f.backoff.Wait(ctx, attempt) {
			return nil, e.Wrap(op, ctx.Err())
		}
	}

	return nil, e.Wrap(op, lastErr)
}

func (f *FeatureExtractor) call(ctx context.Context, req *wrapperspb.BytesValue, shape string) (domain.Vector, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	ctx = metadata.AppendToOutgoingContext(ctx, ShapeHeader, shape)

	res := new(wrapperspb.BytesValue)
	if err := f.conn.Invoke(ctx, ExtractMethod, req, res); err != nil {
		return nil, err
	}

	return DecodeVector(res.GetValue())
}

// DecodeVector разбирает float32 little-endian вектор.
func DecodeVector(data []byte) (domain.Vector, error) {
	if len(data) == 0 {
		return nil, e.ErrVectorEmbeddingEmpty
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("embedding length %d is not a multiple of 4", len(data))
	}

	out := make(domain.Vector, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}

	return out, nil
}

func isRetryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}
