package addresses

import (
	"net/url"
	"strings"

	"usps-gateway/internal/common/errors"
	"usps-gateway/internal/common/validation"
)

// Query is an address to standardize or look up. ZIPCode is optional for
// standardization when City is given.
type Query struct {
	StreetAddress    string `json:"streetAddress" validate:"required,max=100"`
	SecondaryAddress string `json:"secondaryAddress,omitempty" validate:"max=50"`
	City             string `json:"city,omitempty" validate:"max=50"`
	State            string `json:"state" validate:"required,usstate"`
	ZIPCode          string `json:"ZIPCode,omitempty" validate:"omitempty,zip5"`
	ZIPPlus4         string `json:"ZIPPlus4,omitempty" validate:"omitempty,zip4"`
	Firm             string `json:"firm,omitempty" validate:"max=50"`
	Urbanization     string `json:"urbanization,omitempty" validate:"max=50"`
}

// Normalize trims every field and upper-cases the state
func (q Query) Normalize() Query {
	q.StreetAddress = strings.TrimSpace(q.StreetAddress)
	q.SecondaryAddress = strings.TrimSpace(q.SecondaryAddress)
	q.City = strings.TrimSpace(q.City)
	q.State = strings.ToUpper(strings.TrimSpace(q.State))
	q.ZIPCode = strings.TrimSpace(q.ZIPCode)
	q.ZIPPlus4 = strings.TrimSpace(q.ZIPPlus4)
	q.Firm = strings.TrimSpace(q.Firm)
	q.Urbanization = strings.TrimSpace(q.Urbanization)
	return q
}

// Values encodes the non-empty fields as query parameters
func (q Query) Values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("streetAddress", q.StreetAddress)
	set("secondaryAddress", q.SecondaryAddress)
	set("city", q.City)
	set("state", q.State)
	set("ZIPCode", q.ZIPCode)
	set("ZIPPlus4", q.ZIPPlus4)
	set("firm", q.Firm)
	set("urbanization", q.Urbanization)
	return v
}

// BuildStandardize validates q for GET /address
func BuildStandardize(q Query) (url.Values, error) {
	q = q.Normalize()
	if err := validation.ValidateStruct(q); err != nil {
		return nil, invalid("Invalid address data", err)
	}
	if q.City == "" && q.ZIPCode == "" {
		return nil, errors.ValidationError("Either city or ZIP code must be provided")
	}
	return q.Values(), nil
}

// BuildCityState validates zip for GET /city-state
func BuildCityState(zip string) (url.Values, error) {
	zip = strings.TrimSpace(zip)
	if !validation.IsZIP5(zip) {
		return nil, errors.ValidationError("Invalid ZIP code format. Must be 5 digits.")
	}
	return url.Values{"ZIPCode": {zip}}, nil
}

// BuildZIPCodeLookup validates q for GET /zipcode, which needs the city
func BuildZIPCodeLookup(q Query) (url.Values, error) {
	q = q.Normalize()
	c := validation.NewChecker()
	c.Merge(validation.ValidateStruct(q))
	c.Require(q.City, "city")
	if err := c.Err(); err != nil {
		return nil, invalid("Invalid ZIP code lookup data", err)
	}
	return q.Values(), nil
}

// invalid prefixes the first violation and keeps all of them as details
func invalid(prefix string, err error) error {
	appErr, ok := errors.As(err)
	if !ok || len(appErr.Details) == 0 {
		return errors.ValidationError(prefix + ": " + err.Error())
	}
	return errors.ValidationError(prefix + ": " + appErr.Details[0]).WithDetails(appErr.Details...)
}
