package models

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their column/json name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("web_url", isWebURL); err != nil {
		panic(err)
	}
	return v
}

var webURLSchemes = map[string]bool{"http": true, "https": true, "ftp": true, "ftps": true}

// isWebURL accepts absolute http, https, ftp and ftps URLs that name a host.
func isWebURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return webURLSchemes[strings.ToLower(u.Scheme)] && u.Hostname() != "" && u.Opaque == ""
}

// ValidationErrors maps a field name to the messages describing why its value
// was rejected.
type ValidationErrors map[string][]string

func (ve ValidationErrors) Error() string {
	fields := ve.Fields()
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(ve[f], " ")))
	}
	return "invalid contact: " + strings.Join(parts, "; ")
}

// Add records msg against field.
func (ve ValidationErrors) Add(field, msg string) {
	ve[field] = append(ve[field], msg)
}

// Fields returns the rejected field names in sorted order.
func (ve ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(ve))
	for f := range ve {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Validate checks every field bound of c. It returns nil or ValidationErrors.
func Validate(c Contact) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate contact: %w", err)
	}
	ve := ValidationErrors{}
	for _, fe := range fieldErrs {
		ve.Add(fe.Field(), message(fe))
	}
	return ve
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		length := 0
		switch v := fe.Value().(type) {
		case string:
			length = utf8.RuneCountInString(v)
		case *string:
			if v != nil {
				length = utf8.RuneCountInString(*v)
			}
		}
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", fe.Param(), length)
	case "web_url":
		return "Enter a valid URL."
	default:
		return fmt.Sprintf("Failed on the '%s' rule.", fe.Tag())
	}
}
