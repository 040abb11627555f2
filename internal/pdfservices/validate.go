package pdfservices

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their wire names.
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
	return v
}

var tagMessages = map[string]string{
	"required":           "is required",
	"required_with":      "is required when %s is set",
	"required_if":        "is required when %s",
	"required_unless":    "is required unless %s",
	"required_without":   "is required when %s is not set",
	"oneof":              "must be one of [%s]",
	"min":                "must be at least %s",
	"max":                "must be at most %s",
	"gt":                 "must be greater than %s",
	"gte":                "must be greater than or equal to %s",
	"lte":                "must be less than or equal to %s",
	"gtefield":           "must be greater than or equal to %s",
	"dive":               "is invalid",
	"url":                "must be a valid URL",
	"hostname":           "must be a valid host name",
	"bcp47_language_tag": "must be a BCP 47 language tag",
}

// validateStruct runs the struct tags of v and converts the first failure to
// a ValidationError naming the offending field.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &Error{Kind: KindSDK, Op: "validate", Err: err}
	}
	fe := fieldErrs[0]
	field := fe.Namespace()
	// Drop the root struct name: "ProtectPDFParams.encryptionAlgorithm" -> "encryptionAlgorithm".
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		return validationError(field, "failed %q validation", fe.Tag())
	}
	if strings.Contains(msg, "%s") {
		msg = fmt.Sprintf(msg, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return validationError(field, "%s", msg)
}

// prefixField qualifies the field of a nested ValidationError with its parent.
func prefixField(parent string, err error) error {
	var e *Error
	if parent == "" || !errors.As(err, &e) || e.Kind != KindValidation {
		return err
	}
	out := *e
	if out.Field == "" {
		out.Field = parent
	} else {
		out.Field = parent + "." + out.Field
	}
	return &out
}
