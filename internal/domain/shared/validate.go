package shared

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// TimeLayout is the timestamp format stored on every record.
const TimeLayout = "2006-01-02T15:04:05Z07:00"

// NormalizeTime rewrites an RFC 3339 timestamp as UTC in TimeLayout, so that
// stored timestamps compare as strings in time order. Unparsable values are
// returned unchanged for the validator to reject.
func NormalizeTime(value string) string {
	t, err := time.Parse(TimeLayout, value)
	if err != nil {
		return value
	}
	return t.UTC().Format(TimeLayout)
}

var (
	validatorOnce sync.Once
	validate      *validator.Validate
)

// Validator returns the process-wide record validator.
func Validator() *validator.Validate {
	validatorOnce.Do(func() {
		validate = newValidator()
	})
	return validate
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Amounts are validated as floats so gte/lte apply
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	v.RegisterAlias("isotime", "datetime="+TimeLayout)

	return v
}

// Validate checks record against its struct tags. entity names the record in
// the returned message, e.g. "Invalid user data: email: Invalid email format".
func Validate(entity string, record any) error {
	err := Validator().Struct(record)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Internal(fmt.Sprintf("Invalid %s data", entity), err)
	}

	details := make([]FieldError, 0, len(verrs))
	for _, e := range verrs {
		details = append(details, FieldError{
			Field:   fieldPath(e),
			Message: validationMessage(e),
		})
	}
	return Unprocessable(fmt.Sprintf("Invalid %s data: %s", entity, joinFieldErrors(details)), details...)
}

// fieldPath drops the root struct name from the namespace: "Profile.monastic.gender" -> "monastic.gender"
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "required_if":
		return "This field is required for this kind"
	case "excluded_unless":
		return "This field is not allowed for this kind"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "uri":
		return "Invalid URI format"
	case "isotime":
		return "Must be an ISO 8601 date-time"
	default:
		return "Invalid value"
	}
}
