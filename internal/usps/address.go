package usps

import (
	"fmt"
	"strings"

	"usps-gateway/internal/common/errors"
	"usps-gateway/internal/common/validation"
)

// Address is a domestic address as sent on label requests
type Address struct {
	StreetAddress    string `json:"streetAddress"`
	SecondaryAddress string `json:"secondaryAddress,omitempty"`
	City             string `json:"city"`
	State            string `json:"state"`
	ZIPCode          string `json:"ZIPCode"`
	ZIPPlus4         string `json:"ZIPPlus4,omitempty"`
	Urbanization     string `json:"urbanization,omitempty"`
	FirmName         string `json:"firmName,omitempty"`
	FirstName        string `json:"firstName,omitempty"`
	LastName         string `json:"lastName,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Email            string `json:"email,omitempty"`

	IgnoreBadAddress     *bool  `json:"ignoreBadAddress,omitempty"`
	ParcelLockerDelivery *bool  `json:"parcelLockerDelivery,omitempty"`
	HoldForPickup        *bool  `json:"holdForPickup,omitempty"`
	FacilityID           string `json:"facilityId,omitempty"`
}

// AddressLimits are the maximum field lengths an API accepts
type AddressLimits struct {
	Street int
	City   int
	Name   int
}

var (
	// DomesticLabelLimits apply to every address on a domestic label
	DomesticLabelLimits = AddressLimits{Street: 100, City: 50, Name: 50}
	// InternationalSenderLimits apply to the US addresses on an international label
	InternationalSenderLimits = AddressLimits{Street: 50, City: 28, Name: 50}
)

// IsZero reports whether no field is set
func (a Address) IsZero() bool {
	return a == Address{}
}

// HasName reports whether either name form is present
func (a Address) HasName() bool {
	return strings.TrimSpace(a.FirmName) != "" || strings.TrimSpace(a.FirstName) != ""
}

// Validate checks a under limits. addressType names the address in messages.
func (a Address) Validate(addressType string, limits AddressLimits) error {
	c := validation.NewCheckerWithPrefix(addressType)
	c.Require(a.StreetAddress, "streetAddress").MaxLength(a.StreetAddress, limits.Street, "streetAddress")
	c.Require(a.City, "city").MaxLength(a.City, limits.City, "city")
	c.Check(validation.IsUSState(a.State), "state must be a valid 2-letter state code")
	c.Check(validation.IsZIP5(a.ZIPCode), "ZIPCode must be 5 digits")
	c.Check(a.ZIPPlus4 == "" || validation.IsZIP4(a.ZIPPlus4), "ZIPPlus4 must be 4 digits")
	c.MaxLength(a.FirmName, limits.Name, "firmName")
	c.MaxLength(a.FirstName, limits.Name, "firstName")
	c.MaxLength(a.LastName, limits.Name, "lastName")
	if a.Email != "" {
		c.Merge(validation.ValidateVar(a.Email, "email"))
	}
	if err := c.Err(); err != nil {
		return err
	}
	return ValidateNameFields(addressType, a.FirmName, a.FirstName, a.LastName)
}

// Basic drops the delivery options that only domestic labels accept
func (a Address) Basic() Address {
	a.IgnoreBadAddress = nil
	a.ParcelLockerDelivery = nil
	a.HoldForPickup = nil
	a.FacilityID = ""
	return a
}

// WithSingleName keeps only firmName when it is set, so a payload never
// carries both name forms
func (a Address) WithSingleName() Address {
	if strings.TrimSpace(a.FirmName) != "" {
		a.FirstName = ""
		a.LastName = ""
	}
	return a
}

// ValidateNameFields enforces that exactly one of firmName or the
// firstName+lastName pair is present.
func ValidateNameFields(addressType, firmName, firstName, lastName string) error {
	hasFirm := strings.TrimSpace(firmName) != ""
	hasPersonal := strings.TrimSpace(firstName) != "" && strings.TrimSpace(lastName) != ""

	if !hasFirm && !hasPersonal {
		return errors.ValidationError(fmt.Sprintf("%s must have either firmName OR firstName and lastName", addressType)).
			WithContext("field", addressType)
	}
	if hasFirm && hasPersonal {
		return errors.ValidationError(fmt.Sprintf("%s cannot have both firmName AND firstName/lastName", addressType)).
			WithContext("field", addressType)
	}
	return nil
}
