package validator

import (
	"errors"
	"fmt"

	"gearbase/pkg/logger"
	"gearbase/pkg/model"

	"github.com/go-playground/validator/v10"
)

type AssetValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAssetValidator(log *logger.Logger) *AssetValidator {
	return &AssetValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *AssetValidator) Validate(asset *model.Asset) error {
	if err := v.validate.Struct(asset); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translate(validationErrs)
		}
		return err
	}
	return nil
}

func (v *AssetValidator) ValidateUpdate(update *model.AssetUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translate(validationErrs)
		}
		return err
	}
	return nil
}

func translate(errs validator.ValidationErrors) error {
	first := errs[0]
	switch first.Tag() {
	case "required":
		return fmt.Errorf("%s is required", first.Field())
	case "min":
		return fmt.Errorf("%s must be at least %s characters", first.Field(), first.Param())
	case "max":
		return fmt.Errorf("%s must be at most %s", first.Field(), first.Param())
	case "mongodb":
		return fmt.Errorf("%s must be a valid MongoDB ObjectID", first.Field())
	}
	return fmt.Errorf("%s is invalid", first.Field())
}
