package evaluation

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/observa/core"
)

const (
	MinRating = 1
	MaxRating = 5
)

var (
	obsTypeTag  = "obstype"
	obsTypeText = "observation type must be formal or informal"

	ratingTag  = "rating"
	ratingText = "rating must be between 1 and 5"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(obsTypeTag, obsTypeValidation)
	core.RegisterCustomTranslation(validate, translator, obsTypeTag, obsTypeText)

	validate.RegisterStructValidation(formStructValidation, Form{})
	core.RegisterCustomTranslation(validate, translator, ratingTag, ratingText)
}

// Validate expects a Form built by NormalizePayload.
func (f *Form) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.TranslateErrors(validate.Struct(f), translator)
}

// Custom Validators

// obsTypeValidation accepts an empty or a known ObservationType.
func obsTypeValidation(fl validator.FieldLevel) bool {
	obsType, ok := fl.Field().Interface().(ObservationType)
	if !ok {
		return false
	}
	switch obsType {
	case "", ObservationFormal, ObservationInformal:
		return true
	}
	return false
}

// formStructValidation checks ratings of known criteria are within the scale.
// Ratings of indexes outside the catalog ranges are not stored, hence not checked.
func formStructValidation(sl validator.StructLevel) {
	form, ok := sl.Current().Interface().(Form)
	if !ok {
		return
	}
	for _, cat := range Categories {
		for idx := 0; idx < cat.CriteriaCount(); idx++ {
			rating, ok := form.Ratings.Get(cat, idx)
			if ok && (rating.Value < MinRating || rating.Value > MaxRating) {
				field := ratingField(cat, idx)
				sl.ReportError(rating.Value, field, field, ratingTag, "")
			}
		}
	}
}
