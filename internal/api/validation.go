package api

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

var validate = newValidator()

// fieldErrors are the domain errors a struct field may name through its
// errkey tag.
var fieldErrors = map[string]*types.Error{
	types.ErrPasswordLengthInvalid.Key: types.ErrPasswordLengthInvalid,
	types.ErrPhoneInvalid.Key:          types.ErrPhoneInvalid,
	types.ErrPersonalIDInvalid.Key:     types.ErrPersonalIDInvalid,
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the validate tags of a request struct. The first failing
// field decides the error: its errkey tag when present, VALIDATION_FAILED
// otherwise.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return types.ErrValidationFailed.Wrap(err)
	}

	fe := ves[0]
	if e, ok := fieldErrors[errKey(v, fe.StructField())]; ok {
		return e
	}
	if fe.Param() != "" {
		return types.ErrValidationFailed.WithDetail("%s failed on %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
	return types.ErrValidationFailed.WithDetail("%s failed on %s", fe.Field(), fe.Tag())
}

func errKey(v interface{}, field string) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return ""
	}
	f, ok := t.FieldByName(field)
	if !ok {
		return ""
	}
	return f.Tag.Get("errkey")
}
