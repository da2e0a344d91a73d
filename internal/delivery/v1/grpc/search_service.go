package grpc

import (
	"context"
	"encoding/base64"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/imageproc"
	"github.com/DRSN-tech/tourism-backend/internal/usecase"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	SearchServiceName = "tourism.v1.SearchService"
	defaultRadiusKm   = 5.0
)

// SearchServer — контракт сервиса поиска. Сообщения передаются как structpb.Struct.
type SearchServer interface {
	Nearby(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Similar(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var SearchServiceDesc = grpc.ServiceDesc{
	ServiceName: SearchServiceName,
	HandlerType: (*SearchServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Nearby", Handler: unaryHandler("Nearby", SearchServer.Nearby)},
		{MethodName: "Similar", Handler: unaryHandler("Similar", SearchServer.Similar)},
	},
	Metadata: "tourism/v1/search.proto",
}

func unaryHandler(method string, call func(SearchServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SearchServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + SearchServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SearchServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type SearchService struct {
	geoUC    usecase.GeoUC
	visualUC usecase.VisualUC
	logger   logger.Logger
}

func NewSearchService(geoUC usecase.GeoUC, visualUC usecase.VisualUC, logger logger.Logger) *SearchService {
	return &SearchService{geoUC: geoUC, visualUC: visualUC, logger: logger}
}

// Nearby принимает {lat, lon | anchor, radius_km, categories[], keyword, limit}.
func (s *SearchService) Nearby(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.Nearby"

	req, err := toNearbyReq(in)
	if err != nil {
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	res, err := s.geoUC.Nearby(ctx, req)
	if err != nil {
		s.logger.Warnf("%s: %v", op, err)
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	return toGRPCNearby(res)
}

// Similar принимает {image: base64, k}.
func (s *SearchService) Similar(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.Similar"

	raw, err := optString(in, "image")
	if err != nil {
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}
	if raw == "" {
		return nil, GRPCErrorResponse(e.Wrap(op, e.ErrNoImages))
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, GRPCErrorResponse(e.Wrap(op, e.ErrInvalidImage))
	}

	img, err := imageproc.Decode(data)
	if err != nil {
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	k, err := optNumber(in, "k")
	if err != nil {
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	req := &usecase.SimilarImagesReq{Image: img}
	if k != nil {
		req.K = int(*k)
	}

	res, err := s.visualUC.SimilarImages(ctx, req)
	if err != nil {
		s.logger.Errorf(err, "%s", op)
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	return toGRPCSimilar(res)
}

func toNearbyReq(in *structpb.Struct) (*usecase.NearbyReq, error) {
	lat, err := optNumber(in, "lat")
	if err != nil {
		return nil, err
	}
	lon, err := optNumber(in, "lon")
	if err != nil {
		return nil, err
	}
	radius, err := optNumber(in, "radius_km")
	if err != nil {
		return nil, err
	}
	limit, err := optNumber(in, "limit")
	if err != nil {
		return nil, err
	}
	anchor, err := optString(in, "anchor")
	if err != nil {
		return nil, err
	}
	keyword, err := optString(in, "keyword")
	if err != nil {
		return nil, err
	}
	rawCategories, err := optStringList(in, "categories")
	if err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(rawCategories))
	for _, raw := range rawCategories {
		c, err := domain.ParseCategory(raw)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	req := &usecase.NearbyReq{
		Lat:        lat,
		Lon:        lon,
		Anchor:     anchor,
		RadiusKm:   defaultRadiusKm,
		Categories: categories,
		Keyword:    keyword,
	}
	if radius != nil {
		req.RadiusKm = *radius
	}
	if limit != nil {
		req.Limit = int(*limit)
	}

	return req, nil
}

func toGRPCPOI(p domain.POI) map[string]any {
	out := map[string]any{
		"id":       p.ID,
		"name":     p.Name,
		"category": string(p.Category),
	}
	if p.City != "" {
		out["city"] = p.City
	}
	if p.Lat != nil && p.Lon != nil {
		out["lat"] = *p.Lat
		out["lon"] = *p.Lon
	}

	return out
}

func toGRPCNearby(res *usecase.NearbyRes) (*structpb.Struct, error) {
	items := make([]any, 0, len(res.Items))
	for _, item := range res.Items {
		poi := toGRPCPOI(item.POI)
		poi["distance_km"] = item.DistanceKm
		items = append(items, poi)
	}

	out := map[string]any{
		"center":  map[string]any{"lat": res.Center.Lat, "lon": res.Center.Lon},
		"items":   items,
		"total":   res.Total,
		"skipped": res.Skipped,
	}
	if res.Anchor != nil {
		out["anchor"] = map[string]any{
			"id":        res.Anchor.ID,
			"name":      res.Anchor.Name,
			"matches":   res.Anchor.Matches,
			"ambiguous": res.Anchor.Ambiguous,
		}
	}

	return structpb.NewStruct(out)
}

func toGRPCSimilar(res *usecase.SimilarImagesRes) (*structpb.Struct, error) {
	items := make([]any, 0, len(res.Items))
	for _, item := range res.Items {
		entry := map[string]any{"id": item.ID, "score": item.Score}
		if item.POI != nil {
			entry["poi"] = toGRPCPOI(*item.POI)
		}
		items = append(items, entry)
	}

	return structpb.NewStruct(map[string]any{
		"model":  res.Model,
		"cached": res.Cached,
		"items":  items,
	})
}
