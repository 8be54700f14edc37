package schedule

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/coding7860/sparkminds-backend/core"
)

var (
	classDateTag  = "classdate"
	classDateText = "date must be in YYYY-MM-DD format"

	classTimeTag  = "classtime"
	classTimeText = "time must be in HH:MM:SS format"
)

// InitValidators registers the class schedule validation tags and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(classDateTag, layoutValidation(DateLayout))
	core.RegisterCustomTranslation(validate, translator, classDateTag, classDateText)

	_ = validate.RegisterValidation(classTimeTag, layoutValidation(TimeLayout))
	core.RegisterCustomTranslation(validate, translator, classTimeTag, classTimeText)
}

func layoutValidation(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		val := fl.Field().String()
		if len(val) != len(layout) {
			return false
		}
		_, err := time.Parse(layout, val)
		return err == nil
	}
}
