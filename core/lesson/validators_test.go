package lesson_test

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/lesson"
)

func TestNewLesson_Validate(t *testing.T) {
	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	tests := []struct {
		name        string
		outline     string
		wantErr     bool
		wantOutline string
	}{
		{name: "empty", outline: "", wantErr: true},
		{name: "blank", outline: "  \t\n ", wantErr: true},
		{name: "valid", outline: "The Water Cycle", wantOutline: "The Water Cycle"},
		{name: "valid is trimmed", outline: "  The Water Cycle  ", wantOutline: "The Water Cycle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nl := lesson.NewLesson{Outline: tt.outline}
			err := nl.Validate(validate)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && nl.Outline != tt.wantOutline {
				t.Errorf("Outline = %q, want %q", nl.Outline, tt.wantOutline)
			}
		})
	}
}
