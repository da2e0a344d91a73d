package grpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"net"
	"testing"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/cfg"
	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/usecase"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type MockGeoUC struct{ mock.Mock }

func (m *MockGeoUC) Nearby(ctx context.Context, req *usecase.NearbyReq) (*usecase.NearbyRes, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.NearbyRes), args.Error(1)
}

type MockVisualUC struct{ mock.Mock }

func (m *MockVisualUC) SimilarImages(ctx context.Context, req *usecase.SimilarImagesReq) (*usecase.SimilarImagesRes, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.SimilarImagesRes), args.Error(1)
}

func startServer(t *testing.T, geo *MockGeoUC, visual *MockVisualUC) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(&cfg.GRPCConfig{}, logger.NewNop())
	srv.RegisterServices(geo, visual)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func invoke(t *testing.T, conn *grpc.ClientConn, method string, in map[string]any) (*structpb.Struct, error) {
	t.Helper()

	req, err := structpb.NewStruct(in)
	require.NoError(t, err)

	out := new(structpb.Struct)
	err = conn.Invoke(context.Background(), "/"+SearchServiceName+"/"+method, req, out)
	return out, err
}

func TestNearby(t *testing.T) {
	geo, visual := new(MockGeoUC), new(MockVisualUC)
	conn := startServer(t, geo, visual)

	lat, lon := 43.58, 39.72
	geo.On("Nearby", mock.Anything, mock.MatchedBy(func(req *usecase.NearbyReq) bool {
		return req.Anchor == "Морвокзал" && req.RadiusKm == defaultRadiusKm &&
			req.Limit == 10 && len(req.Categories) == 1 && req.Categories[0] == domain.CategoryHotel
	})).Return(&usecase.NearbyRes{
		Center: domain.NewPoint(lat, lon),
		Anchor: &usecase.AnchorInfo{ID: "a7", Name: "Морвокзал", Matches: 2, Ambiguous: true},
		Items: []domain.POIDistance{{
			POI:        domain.POI{ID: "h1", Name: "Жемчужина", Category: domain.CategoryHotel, Lat: &lat, Lon: &lon},
			DistanceKm: 0,
		}},
		Total: 1,
	}, nil).Once()

	out, err := invoke(t, conn, "Nearby", map[string]any{
		"anchor":     "Морвокзал",
		"categories": []any{"hotels"},
		"limit":      10,
	})
	require.NoError(t, err)

	res := out.AsMap()
	assert.Equal(t, 1.0, res["total"])
	anchor := res["anchor"].(map[string]any)
	assert.Equal(t, true, anchor["ambiguous"])
	items := res["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "h1", items[0].(map[string]any)["id"])

	geo.AssertExpectations(t)
}

func TestNearby_ErrorCodes(t *testing.T) {
	geo, visual := new(MockGeoUC), new(MockVisualUC)
	conn := startServer(t, geo, visual)

	_, err := invoke(t, conn, "Nearby", map[string]any{"lat": "north"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	geo.On("Nearby", mock.Anything, mock.Anything).Return(nil, e.Wrap("x", e.ErrAnchorNotFound)).Once()
	_, err = invoke(t, conn, "Nearby", map[string]any{"anchor": "x"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestSimilar(t *testing.T) {
	geo, visual := new(MockGeoUC), new(MockVisualUC)
	conn := startServer(t, geo, visual)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))

	visual.On("SimilarImages", mock.Anything, mock.MatchedBy(func(req *usecase.SimilarImagesReq) bool {
		return req.K == 2 && req.Image != nil
	})).Return(&usecase.SimilarImagesRes{
		Model:  "resnet50",
		Cached: true,
		Items:  []usecase.SimilarItem{usecase.NewSimilarItem("ref-1", 0.5, nil)},
	}, nil).Once()

	out, err := invoke(t, conn, "Similar", map[string]any{
		"image": base64.StdEncoding.EncodeToString(buf.Bytes()),
		"k":     2,
	})
	require.NoError(t, err)

	res := out.AsMap()
	assert.Equal(t, true, res["cached"])
	assert.Len(t, res["items"], 1)

	visual.On("SimilarImages", mock.Anything, mock.Anything).Return(nil, e.ErrIndexUnavailable).Once()
	_, err = invoke(t, conn, "Similar", map[string]any{"image": base64.StdEncoding.EncodeToString(buf.Bytes())})
	assert.Equal(t, codes.Unavailable, status.Code(err))

	_, err = invoke(t, conn, "Similar", map[string]any{"image": "not base64!"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHealth(t *testing.T) {
	conn := startServer(t, new(MockGeoUC), new(MockVisualUC))

	res, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: SearchServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, res.GetStatus())
}
