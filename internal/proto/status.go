package proto

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/recviewer/internal/common"
)

// CodeFor maps the error taxonomy onto gRPC codes.
func CodeFor(err error) codes.Code {
	var verrs validation.Errors
	switch {
	case err == nil:
		return codes.OK
	case errors.As(err, &verrs), errors.Is(err, common.ErrorValidation):
		return codes.InvalidArgument
	case errors.Is(err, common.ErrorNotFound):
		return codes.NotFound
	case errors.Is(err, common.ErrorTransport):
		return codes.Unavailable
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

// ErrorFromStatus is the client-side inverse of CodeFor: it wraps the status
// message in the matching sentinel so callers can use errors.Is.
func ErrorFromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok || err == nil {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", st.Message(), common.ErrorNotFound)
	case codes.InvalidArgument:
		return common.NewValidationError("", st.Message())
	case codes.Unavailable:
		return common.NewTransportError("rpc", errors.New(st.Message()))
	case codes.Canceled:
		return fmt.Errorf("%s: %w", st.Message(), context.Canceled)
	case codes.DeadlineExceeded:
		return fmt.Errorf("%s: %w", st.Message(), context.DeadlineExceeded)
	default:
		return fmt.Errorf("%s: %w", st.Message(), common.ErrorInternal)
	}
}
