package lesson

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Validate cleans and validates a lesson submission. It performs no store calls.
func (nl *NewLesson) Validate(validate *validator.Validate) error {
	nl.Outline = core.CleanString(nl.Outline)
	return validate.Struct(nl)
}
