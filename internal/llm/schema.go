package llm

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateSchema checks v's struct tags (oneof, required, gte/lte, etc.),
// the checkable subset of the original system's jsonschema.validate call.
func ValidateSchema(v interface{}) error {
	return validatorInstance().Struct(v)
}
