package services

import (
	"context"
	"errors"

	apperrors "github.com/iilkane/Legerity/common/errors"
	"github.com/iilkane/Legerity/database"
)

// storageError maps a storage failure that callers cannot fix onto unavailable
// or internal. Application errors pass through untouched.
func storageError(err error) error {
	var appErr *apperrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.Unavailable(err)
	case database.IsTransient(err):
		return apperrors.Unavailable(err)
	default:
		return apperrors.Internal(err)
	}
}
