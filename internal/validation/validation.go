// Package validation checks request bodies against the declarative rules
// written as `validate` struct tags on the request models.
//
// Besides the stock go-playground tags it understands:
//
//	isstring    the key must be present and hold a JSON string
//	optstring   the key may be omitted or null, but if sent it must hold a JSON string
//	mobilephone the value must look like a phone number
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/patric-chuzhbe/usrinfo/internal/models"
)

// LocationBody is the location reported for every body field failure.
const LocationBody = "body"

var (
	mobilePhonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	phoneSeparators    = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// Validator evaluates the rule set of a request struct and reports every failure.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator with the custom tags registered.
func New() (*Validator, error) {
	validate := validator.New()

	validate.RegisterTagNameFunc(jsonFieldName)
	validate.RegisterCustomTypeFunc(optionalStringValue, models.OptionalString{})

	customs := map[string]validator.Func{
		"isstring":    validateIsString,
		"optstring":   validateOptString,
		"mobilephone": validateMobilePhone,
	}
	for tag, fn := range customs {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf(
				"in internal/validation/validation.go/New(): error while `validate.RegisterValidation(%q)` calling: %w",
				tag,
				err,
			)
		}
	}

	return &Validator{validate: validate}, nil
}

// Check returns one entry per failing field, in field declaration order.
// A nil result means the request is valid.
func (v *Validator) Check(request any) []models.ValidationError {
	err := v.validate.Struct(request)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []models.ValidationError{{Location: LocationBody, Msg: err.Error()}}
	}

	result := make([]models.ValidationError, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		result = append(result, models.ValidationError{
			Location: LocationBody,
			Param:    fe.Field(),
			Msg:      message(fe),
			Value:    failedValue(request, fe),
		})
	}

	return result
}

// MalformedBody reports a body that could not be decoded at all.
func MalformedBody(err error) []models.ValidationError {
	return []models.ValidationError{{
		Location: LocationBody,
		Msg:      fmt.Sprintf("malformed request body: %s", err),
	}}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "isstring", "optstring":
		return "must be a string"
	case "email":
		return "must be a valid email"
	case "mobilephone":
		return "must be a valid mobile phone number"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	}

	return "Invalid value"
}

func failedValue(request any, fe validator.FieldError) any {
	parent := reflect.Indirect(reflect.ValueOf(request))
	if parent.Kind() == reflect.Struct {
		field := parent.FieldByName(fe.StructField())
		if field.IsValid() {
			if opt, ok := field.Interface().(models.OptionalString); ok && opt.Present && !opt.IsString {
				return opt.Raw
			}
		}
	}

	if value, ok := fe.Value().(string); ok && value == "" {
		return nil
	}

	return fe.Value()
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}

	return name
}

func optionalStringValue(field reflect.Value) interface{} {
	if opt, ok := field.Interface().(models.OptionalString); ok {
		return opt.Value
	}

	return nil
}

// sourceOptional digs the unconverted OptionalString out of the parent struct,
// since fl.Field() only sees the string produced by optionalStringValue.
func sourceOptional(fl validator.FieldLevel) (models.OptionalString, bool) {
	parent := reflect.Indirect(fl.Parent())
	if parent.Kind() != reflect.Struct {
		return models.OptionalString{}, false
	}

	field := parent.FieldByName(fl.StructFieldName())
	if !field.IsValid() {
		return models.OptionalString{}, false
	}

	opt, ok := field.Interface().(models.OptionalString)
	return opt, ok
}

func validateIsString(fl validator.FieldLevel) bool {
	opt, ok := sourceOptional(fl)
	if !ok {
		return fl.Field().Kind() == reflect.String
	}

	return opt.Present && opt.IsString
}

func validateOptString(fl validator.FieldLevel) bool {
	opt, ok := sourceOptional(fl)
	if !ok {
		return true
	}

	return !opt.Present || opt.IsString
}

func validateMobilePhone(fl validator.FieldLevel) bool {
	return mobilePhonePattern.MatchString(phoneSeparators.Replace(fl.Field().String()))
}
