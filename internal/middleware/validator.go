package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ikkim/campus-backend/internal/app/model"
)

// RegisterValidators adds the project tags to gin's validator and reports
// fields by their json names.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v.RegisterValidation("ir_mobile", func(fl validator.FieldLevel) bool {
		return model.PhonePattern.MatchString(fl.Field().String())
	})
}
