// Package validation wraps go-playground/validator with the USPS field rules
// (ZIP formats, state codes, ISO country codes, closed enumerations) and a
// fluent checker for cross-field rules struct tags cannot express.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/biter777/countries"
	"github.com/go-playground/validator/v10"

	"usps-gateway/internal/common/errors"
)

// Enum is implemented by closed string enumerations
type Enum interface {
	IsValid() bool
}

// FieldError describes a single rejected field
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
}

// Validator validates structs against their `validate` tags
type Validator struct {
	validate *validator.Validate
}

var (
	zip5Pattern = regexp.MustCompile(`^\d{5}$`)
	zip4Pattern = regexp.MustCompile(`^\d{4}$`)
)

// US states, DC, territories and military codes accepted by the Addresses API
var usStates = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true, "CT": true,
	"DE": true, "DC": true, "FL": true, "GA": true, "HI": true, "ID": true, "IL": true,
	"IN": true, "IA": true, "KS": true, "KY": true, "LA": true, "ME": true, "MD": true,
	"MA": true, "MI": true, "MN": true, "MS": true, "MO": true, "MT": true, "NE": true,
	"NV": true, "NH": true, "NJ": true, "NM": true, "NY": true, "NC": true, "ND": true,
	"OH": true, "OK": true, "OR": true, "PA": true, "RI": true, "SC": true, "SD": true,
	"TN": true, "TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true,
	"AS": true, "GU": true, "MP": true, "PR": true, "VI": true, "UM": true,
	"FM": true, "MH": true, "PW": true,
	"AA": true, "AE": true, "AP": true,
}

// New creates a validator with the USPS tags registered
func New() *Validator {
	v := validator.New()

	// Report JSON names so messages match the wire field
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	registerUSPSValidators(v)
	return &Validator{validate: v}
}

// Struct validates s and returns a ValidationError listing every field
func (v *Validator) Struct(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return toAppError(extract(err))
	}
	return nil
}

// Var validates a single value against tag
func (v *Validator) Var(field interface{}, tag string) error {
	if err := v.validate.Var(field, tag); err != nil {
		return toAppError(extract(err))
	}
	return nil
}

// Fields validates s and returns the individual field errors
func (v *Validator) Fields(s interface{}) []FieldError {
	if err := v.validate.Struct(s); err != nil {
		return extract(err)
	}
	return nil
}

// IsZIP5 reports whether s is a 5-digit ZIP code
func IsZIP5(s string) bool { return zip5Pattern.MatchString(s) }

// IsZIP4 reports whether s is a 4-digit ZIP+4 extension
func IsZIP4(s string) bool { return zip4Pattern.MatchString(s) }

// IsUSState reports whether s is a 2-letter state or territory code
func IsUSState(s string) bool { return usStates[strings.ToUpper(s)] }

// IsISO2 reports whether s is an ISO 3166-1 alpha-2 country code
func IsISO2(s string) bool {
	if len(s) != 2 {
		return false
	}
	code := strings.ToUpper(s)
	c := countries.ByName(code)
	return c.IsValid() && c.Alpha2() == code
}

// CountryName returns the English name for an alpha-2 code, or "" if unknown
func CountryName(code string) string {
	c := countries.ByName(strings.ToUpper(code))
	if !c.IsValid() {
		return ""
	}
	return c.String()
}

func registerUSPSValidators(v *validator.Validate) {
	_ = v.RegisterValidation("zip5", func(fl validator.FieldLevel) bool {
		return IsZIP5(fl.Field().String())
	})
	_ = v.RegisterValidation("zip4", func(fl validator.FieldLevel) bool {
		return IsZIP4(fl.Field().String())
	})
	_ = v.RegisterValidation("usstate", func(fl validator.FieldLevel) bool {
		return IsUSState(fl.Field().String())
	})
	_ = v.RegisterValidation("iso2", func(fl validator.FieldLevel) bool {
		return IsISO2(fl.Field().String())
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
		if e, ok := fl.Field().Interface().(Enum); ok {
			return e.IsValid()
		}
		return false
	})
}

func extract(err error) []FieldError {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "unknown", Tag: "error", Message: err.Error()}}
	}

	fieldErrors := make([]FieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		field := fieldPath(fe)
		fieldErrors = append(fieldErrors, FieldError{
			Field:   field,
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: formatFieldError(field, fe),
			Param:   fe.Param(),
		})
	}
	return fieldErrors
}

// fieldPath drops the root struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func formatFieldError(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "zip5":
		return fmt.Sprintf("%s must be 5 digits", field)
	case "zip4":
		return fmt.Sprintf("%s must be 4 digits", field)
	case "usstate":
		return fmt.Sprintf("%s must be a valid 2-letter state code", field)
	case "iso2":
		return fmt.Sprintf("%s must be a valid ISO 3166-1 alpha-2 country code", field)
	case "date":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "enum":
		return fmt.Sprintf("%s has an unsupported value '%v'", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

func toAppError(fieldErrors []FieldError) error {
	messages := make([]string, len(fieldErrors))
	for i, e := range fieldErrors {
		messages[i] = e.Message
	}
	if len(messages) == 1 {
		return errors.ValidationError(messages[0]).WithDetails(messages...)
	}
	return errors.ValidationError("validation failed: " + strings.Join(messages, "; ")).WithDetails(messages...)
}

var globalValidator = New()

// ValidateStruct validates a struct using the shared validator
func ValidateStruct(s interface{}) error {
	return globalValidator.Struct(s)
}

// ValidateVar validates a variable using the shared validator
func ValidateVar(field interface{}, tag string) error {
	return globalValidator.Var(field, tag)
}
