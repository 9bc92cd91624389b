package repository

import (
	"errors"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"

	"gorm.io/gorm"
)

// translate maps gorm errors onto the apierror taxonomy. The DB is opened with
// TranslateError so unique violations arrive as gorm.ErrDuplicatedKey.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apierror.NotFound(what + " not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apierror.Conflict(what+" already exists", err)
	default:
		return err
	}
}
