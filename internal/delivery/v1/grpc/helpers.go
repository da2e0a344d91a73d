package grpc

import (
	"errors"

	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func GRPCErrorResponse(err error) error {
	switch {
	case errors.Is(err, e.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, e.ErrNotFound):
		return status.Error(codes.NotFound, e.ErrNotFound.Error())
	case errors.Is(err, e.ErrIndexUnavailable),
		errors.Is(err, e.ErrPreprocessMismatch),
		errors.Is(err, e.ErrDimensionMismatch),
		errors.Is(err, e.ErrUnknownBackend):
		return status.Error(codes.Unavailable, e.ErrIndexUnavailable.Error())
	default:
		return status.Error(codes.Internal, e.ErrInternalServerError.Error())
	}
}

// Поля structpb.Struct: числа приходят как float64, отсутствующее поле — nil.

func optNumber(s *structpb.Struct, key string) (*float64, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil, nil
	}

	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return nil, e.Wrap(key+" must be a number", e.ErrInvalidInput)
	}

	return &n.NumberValue, nil
}

func optString(s *structpb.Struct, key string) (string, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return "", nil
	}

	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", e.Wrap(key+" must be a string", e.ErrInvalidInput)
	}

	return str.StringValue, nil
}

func optStringList(s *structpb.Struct, key string) ([]string, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil, nil
	}

	list, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, e.Wrap(key+" must be a list", e.ErrInvalidInput)
	}

	out := make([]string, 0, len(list.ListValue.GetValues()))
	for _, item := range list.ListValue.GetValues() {
		str, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, e.Wrap(key+" must contain strings", e.ErrInvalidInput)
		}
		out = append(out, str.StringValue)
	}

	return out, nil
}
