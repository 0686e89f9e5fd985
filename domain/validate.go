package domain

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// Validate runs struct-tag validation on any domain value using a
// single shared validator instance.
func Validate(v any) error {
	return validate.Struct(v)
}
