package core

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError maps input field names to user facing messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func validateStruct(s any) error {
	return newValidationError(fieldErrors(validate.Struct(s)))
}

// fieldErrors flattens a validator error into a field -> message map.
// It never returns nil.
func fieldErrors(err error) map[string]string {
	fields := map[string]string{}
	if err == nil {
		return fields
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		for k, v := range verr.Fields {
			fields[k] = v
		}
		return fields
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		fields["_"] = err.Error()
		return fields
	}
	for _, fe := range ves {
		fields[fieldName(fe)] = message(fe)
	}
	return fields
}

func newValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// fieldName drops the root struct name from the namespace so nested
// fields read like "ninos[0].id".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es obligatorio"
	case "email":
		return "no es un email válido"
	case "datetime":
		return "formato inválido (" + fe.Param() + ")"
	case "max":
		return "supera el máximo de " + fe.Param()
	case "min":
		return "debe tener al menos " + fe.Param() + " caracteres"
	case "gt":
		return "debe ser mayor a " + fe.Param()
	case "gte":
		return "debe ser mayor o igual a " + fe.Param()
	case "lte":
		return "debe ser menor o igual a " + fe.Param()
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "eqfield":
		return "no coincide"
	default:
		return "no es válido"
	}
}
