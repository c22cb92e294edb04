package core

// validation.go checks records arriving through the JSON import endpoint and
// criteria built by callers. CSV rows are not validated here: the parser
// already coerces every cell and drops rows without the required IDs.

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrInvalidCriteria marks criteria that fail validation.
var ErrInvalidCriteria = errors.New("invalid criteria")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so messages match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	// min/max on money fields compare the decimal as a float.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return v
}

// ValidateRecords checks every record and reports the first failing one.
// The error text starts with "invalid record" so it maps to VAL001.
func ValidateRecords(records []Record) error {
	for i := range records {
		if err := validate.Struct(&records[i]); err != nil {
			return fmt.Errorf("invalid record at index %d: %s", i, describe(err))
		}
	}
	return nil
}

// ValidateCriteria checks criteria after defaults have been applied.
func ValidateCriteria(c Criteria) error {
	if err := validate.Struct(&c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCriteria, describe(err))
	}
	return nil
}

// describe flattens validator errors into "field: rule" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fe.Field()+": "+rule)
	}
	return strings.Join(parts, ", ")
}
