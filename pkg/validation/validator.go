package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// Register configures gin's validator engine: field names come from json
// tags, the "filled" rule rejects blank strings and "bytesmax" caps the
// encoded length of a string.
func Register() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		Configure(v)
	})
}

// Configure applies the same setup to any validator instance.
func Configure(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("filled", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return true
		}
		return strings.TrimSpace(field.String()) != ""
	})
	// max counts runes; bcrypt and similar sinks count bytes.
	_ = v.RegisterValidation("bytesmax", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return true
		}
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(field.String()) <= limit
	})
}

// Translate converts a binding error into a field error bag. It reports false
// when err is not a validation or type error, i.e. the body was not valid JSON.
func Translate(err error) (map[string][]string, bool) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string][]string, len(verrs))
		for _, e := range verrs {
			field := e.Field()
			fields[field] = append(fields[field], Message(field, e.Tag(), e.Param()))
		}
		return fields, true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		field := typeErr.Field
		tag := "invalid"
		switch typeErr.Type.Kind() {
		case reflect.String:
			tag = "string"
		case reflect.Bool:
			tag = "boolean"
		}
		return map[string][]string{field: {Message(field, tag, "")}}, true
	}

	return nil, false
}
