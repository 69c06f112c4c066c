package repository

import (
	"errors"

	"github.com/amirasaad/corebank/pkg/domain"
	"gorm.io/gorm"
)

// mapErr translates driver errors into the domain error taxonomy so services
// never see gorm sentinels.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrDuplicateReference
	default:
		return err
	}
}
