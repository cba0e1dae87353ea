package grpcsvc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// codeFor переводит доменную ошибку в gRPC-код.
func codeFor(err error) codes.Code {
	switch {
	case domain.IsValidation(err):
		return codes.InvalidArgument
	case domain.IsConflict(err):
		return codes.AlreadyExists
	case domain.IsNotFound(err):
		return codes.NotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		return codes.FailedPrecondition
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	default:
		return codes.Internal
	}
}

// toStatus логирует ошибку и возвращает gRPC-статус. Детали ошибок
// хранилища наружу не отдаются.
func (s *StoreService) toStatus(err error, operation string) error {
	code := codeFor(err)
	entry := s.logger.WithError(err).WithField("operation", operation)

	if code == codes.Internal {
		entry.Error("request failed")
		return status.Error(codes.Internal, "internal storage error")
	}

	entry.WithField("code", code.String()).Debug("request rejected")
	return status.Error(code, err.Error())
}
