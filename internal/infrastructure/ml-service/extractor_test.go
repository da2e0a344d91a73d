package ml_service

import (
	"context"
	"encoding/binary"
	"math"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/cfg"
	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/imageproc"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/jitter"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type extractServer interface {
	Extract(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

var extractorDesc = grpc.ServiceDesc{
	ServiceName: "ml.v1.FeatureExtractor",
	HandlerType: (*extractServer)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "Extract",
		Handler: func(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
			in := new(wrapperspb.BytesValue)
			if err := dec(in); err != nil {
				return nil, err
			}
			return srv.(extractServer).Extract(ctx, in)
		},
	}},
}

// fakeModel возвращает [сумма тензора, C, H, W] и умеет падать заданное число раз.
type fakeModel struct {
	calls    atomic.Int32
	failures int32
	failCode codes.Code
	empty    bool
}

func (f *fakeModel) Extract(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	n := f.calls.Add(1)
	if n <= f.failures {
		return nil, status.Error(f.failCode, "model busy")
	}
	if f.empty {
		return wrapperspb.Bytes(nil), nil
	}

	md, _ := metadata.FromIncomingContext(ctx)
	shape := md.Get(ShapeHeader)
	if len(shape) != 1 {
		return nil, status.Error(codes.InvalidArgument, "missing shape")
	}

	out := domain.Vector{sum(in.GetValue())}
	for _, p := range strings.Split(shape[0], ",") {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "bad shape")
		}
		out = append(out, float32(v))
	}

	return wrapperspb.Bytes(encodeVector(out)), nil
}

func sum(data []byte) float32 {
	var s float32
	for i := 0; i+4 <= len(data); i += 4 {
		s += math.Float32frombits(binary.LittleEndian.Uint32(data[i:]))
	}
	return s
}

func encodeVector(v domain.Vector) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func startExtractor(t *testing.T, model *fakeModel, maxRetries int) *FeatureExtractor {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	srv.RegisterService(&extractorDesc, model)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	extractor := NewFeatureExtractor(conn, &cfg.MLServiceCfg{
		MaxConcurrent: 2,
		MaxRetries:    maxRetries,
		Timeout:       5 * time.Second,
	}, logger.NewNop())
	extractor.backoff = jitter.NewBackoff(time.Millisecond, 5*time.Millisecond)

	return extractor
}

func testTensor() *imageproc.Tensor {
	return &imageproc.Tensor{Channels: 1, Height: 1, Width: 3, Data: []float32{0.5, 1.5, 2}}
}

func TestExtract_RoundTrip(t *testing.T) {
	model := &fakeModel{}
	extractor := startExtractor(t, model, 3)

	vec, err := extractor.Extract(context.Background(), testTensor())
	require.NoError(t, err)
	assert.Equal(t, domain.Vector{4, 1, 1, 3}, vec)
	assert.Equal(t, int32(1), model.calls.Load())
}

func TestExtract_RetriesUnavailable(t *testing.T) {
	model := &fakeModel{failures: 2, failCode: codes.Unavailable}
	extractor := startExtractor(t, model, 3)

	vec, err := extractor.Extract(context.Background(), testTensor())
	require.NoError(t, err)
	assert.Len(t, vec, 4)
	assert.Equal(t, int32(3), model.calls.Load())
}

func TestExtract_GivesUpAfterMaxRetries(t *testing.T) {
	model := &fakeModel{failures: 10, failCode: codes.Unavailable}
	extractor := startExtractor(t, model, 2)

	_, err := extractor.Extract(context.Background(), testTensor())
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Equal(t, int32(2), model.calls.Load())
}

func TestExtract_DoesNotRetryInvalidArgument(t *testing.T) {
	model := &fakeModel{failures: 10, failCode: codes.InvalidArgument}
	extractor := startExtractor(t, model, 3)

	_, err := extractor.Extract(context.Background(), testTensor())
	require.Error(t, err)
	assert.Equal(t, int32(1), model.calls.Load())
}

func TestExtract_EmptyEmbedding(t *testing.T) {
	extractor := startExtractor(t, &fakeModel{empty: true}, 1)

	_, err := extractor.Extract(context.Background(), testTensor())
	assert.ErrorIs(t, err, e.ErrVectorEmbeddingEmpty)
}

func TestDecodeVector(t *testing.T) {
	vec, err := DecodeVector(encodeVector(domain.Vector{1, -2.5}))
	require.NoError(t, err)
	assert.Equal(t, domain.Vector{1, -2.5}, vec)

	_, err = DecodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
