package grpcserver

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
)

var (
	ErrRoutingNotConfigured = errors.New("routing service not configured")
	ErrConfigNotConfigured  = errors.New("config service not configured")
)

// toStatus переводит доменную ошибку в gRPC-статус. Текст ошибки сохраняется.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codeOf(err), err.Error())
}

func codeOf(err error) codes.Code {
	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, domain.ErrUnauthenticated):
		return codes.Unauthenticated
	case errors.Is(err, domain.ErrCorruptState):
		return codes.Internal
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrDeserializationFailed),
		errors.Is(err, domain.ErrConfig),
		errors.Is(err, domain.ErrUnknownAlgorithm):
		return codes.InvalidArgument
	case errors.Is(err, domain.ErrContractNotFound),
		errors.Is(err, domain.ErrKeyNotFound):
		return codes.NotFound
	case errors.Is(err, domain.ErrStore):
		return codes.Unavailable
	case errors.Is(err, ErrRoutingNotConfigured),
		errors.Is(err, ErrConfigNotConfigured):
		return codes.Unimplemented
	default:
		return codes.Internal
	}
}
