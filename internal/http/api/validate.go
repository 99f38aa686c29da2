package api

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/iqamah"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/model"
)

// RegisterValidators adds the `hhmm`, `isodate` and `prayer` binding tags to
// gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	rules := map[string]validator.Func{
		"hhmm": func(fl validator.FieldLevel) bool {
			return iqamah.ValidTime(fl.Field().String())
		},
		"isodate": func(fl validator.FieldLevel) bool {
			_, ok := iqamah.ParseDate(fl.Field().String())
			return ok
		},
		"prayer": func(fl validator.FieldLevel) bool {
			return model.PrayerName(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}
