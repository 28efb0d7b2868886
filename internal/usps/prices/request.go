package prices

import (
	"usps-gateway/internal/common/utils"
	"usps-gateway/internal/common/validation"
	"usps-gateway/internal/usps"
)

// PriceType selects the price list a search is quoted from
type PriceType string

const (
	PriceRetail     PriceType = "RETAIL"
	PriceCommercial PriceType = "COMMERCIAL"
	PriceContract   PriceType = "CONTRACT"
)

func (p PriceType) IsValid() bool {
	return p == PriceRetail || p == PriceCommercial || p == PriceContract
}

// BaseRatesQuery is the body of a base-rates search
type BaseRatesQuery struct {
	OriginZIPCode                 string                            `json:"originZIPCode"`
	DestinationZIPCode            string                            `json:"destinationZIPCode"`
	Weight                        float64                           `json:"weight"`
	Length                        float64                           `json:"length"`
	Width                         float64                           `json:"width"`
	Height                        float64                           `json:"height"`
	MailClass                     usps.MailClass                    `json:"mailClass"`
	ProcessingCategory            usps.ProcessingCategory           `json:"processingCategory"`
	RateIndicator                 usps.RateIndicator                `json:"rateIndicator"`
	DestinationEntryFacilityType  usps.DestinationEntryFacilityType `json:"destinationEntryFacilityType"`
	PriceType                     PriceType                         `json:"priceType"`
	MailingDate                   string                            `json:"mailingDate,omitempty"`
	AccountType                   string                            `json:"accountType,omitempty"`
	AccountNumber                 string                            `json:"accountNumber,omitempty"`
	HasNonstandardCharacteristics *bool                             `json:"hasNonstandardCharacteristics,omitempty"`
}

// TotalRatesQuery prices a piece together with its extra services
type TotalRatesQuery struct {
	BaseRatesQuery
	ExtraServices []usps.ExtraService `json:"extraServices,omitempty"`
	ItemValue     float64             `json:"itemValue"`
}

// ExtraServiceRatesQuery prices extra services on their own
type ExtraServiceRatesQuery struct {
	MailClass                    usps.MailClass                    `json:"mailClass"`
	PriceType                    PriceType                         `json:"priceType"`
	ExtraServices                []usps.ExtraService               `json:"extraServices"`
	ItemValue                    float64                           `json:"itemValue"`
	Weight                       float64                           `json:"weight,omitempty"`
	OriginZIPCode                string                            `json:"originZIPCode,omitempty"`
	DestinationZIPCode           string                            `json:"destinationZIPCode,omitempty"`
	ProcessingCategory           usps.ProcessingCategory           `json:"processingCategory,omitempty"`
	RateIndicator                usps.RateIndicator                `json:"rateIndicator,omitempty"`
	DestinationEntryFacilityType usps.DestinationEntryFacilityType `json:"destinationEntryFacilityType,omitempty"`
	MailingDate                  string                            `json:"mailingDate,omitempty"`
	AccountType                  string                            `json:"accountType,omitempty"`
	AccountNumber                string                            `json:"accountNumber,omitempty"`
}

// RatesListQuery asks for every eligible product between two ZIP codes.
// MailClass is optional here.
type RatesListQuery struct {
	OriginZIPCode                string                            `json:"originZIPCode"`
	DestinationZIPCode           string                            `json:"destinationZIPCode"`
	Weight                       float64                           `json:"weight"`
	Length                       float64                           `json:"length"`
	Width                        float64                           `json:"width"`
	Height                       float64                           `json:"height"`
	MailClass                    usps.MailClass                    `json:"mailClass,omitempty"`
	ProcessingCategory           usps.ProcessingCategory           `json:"processingCategory"`
	RateIndicator                usps.RateIndicator                `json:"rateIndicator"`
	DestinationEntryFacilityType usps.DestinationEntryFacilityType `json:"destinationEntryFacilityType"`
	PriceType                    PriceType                         `json:"priceType"`
	MailingDate                  string                            `json:"mailingDate"`
	AccountType                  string                            `json:"accountType,omitempty"`
	AccountNumber                string                            `json:"accountNumber,omitempty"`
}

// LetterRatesQuery prices a letter or flat. NonMachinableIndicators is
// either false or an object of indicator flags.
type LetterRatesQuery struct {
	Weight                  float64                 `json:"weight"`
	Length                  float64                 `json:"length"`
	Height                  float64                 `json:"height"`
	Thickness               float64                 `json:"thickness"`
	ProcessingCategory      usps.ProcessingCategory `json:"processingCategory"`
	OriginZIPCode           string                  `json:"originZIPCode"`
	DestinationZIPCode      string                  `json:"destinationZIPCode"`
	MailingDate             string                  `json:"mailingDate"`
	NonMachinableIndicators interface{}             `json:"nonMachinableIndicators"`
	ExtraServices           []usps.ExtraService     `json:"extraServices,omitempty"`
	ItemValue               *float64                `json:"itemValue,omitempty"`
}

// LetterDefaults fill the ZIP codes of a letter query that names none
type LetterDefaults struct {
	OriginZIPCode      string
	DestinationZIPCode string
}

// Builder turns queries into validated search bodies
type Builder struct {
	clock   utils.Clock
	letters LetterDefaults
}

// NewBuilder creates a prices builder
func NewBuilder(clock utils.Clock, letters LetterDefaults) *Builder {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &Builder{clock: clock, letters: letters}
}

// BaseRates validates a base-rates search
func (b *Builder) BaseRates(q BaseRatesQuery) (*BaseRatesQuery, error) {
	c := validation.NewChecker()
	checkPiece(c, q)
	if err := c.Err(); err != nil {
		return nil, err
	}
	return &q, nil
}

// TotalRates validates a total-rates search. itemValue defaults to 0.
func (b *Builder) TotalRates(q TotalRatesQuery) (*TotalRatesQuery, error) {
	c := validation.NewChecker()
	checkPiece(c, q.BaseRatesQuery)
	checkExtraServices(c, q.ExtraServices)
	c.Check(q.ItemValue >= 0, "itemValue must not be negative")
	if err := c.Err(); err != nil {
		return nil, err
	}
	return &q, nil
}

// ExtraServiceRates validates an extra-service-rates search
func (b *Builder) ExtraServiceRates(q ExtraServiceRatesQuery) (*ExtraServiceRatesQuery, error) {
	c := validation.NewChecker()
	if q.MailClass == "" || q.PriceType == "" {
		c.Addf("Missing required fields: mailClass and priceType are required")
	} else {
		checkEnum(c, q.MailClass, "mailClass")
		checkEnum(c, q.PriceType, "priceType")
	}
	if len(q.ExtraServices) == 0 {
		c.Addf("Missing required field: extraServices array is required")
	}
	checkExtraServices(c, q.ExtraServices)
	c.Check(q.ItemValue >= 0, "itemValue must not be negative")
	checkOptionalZIP(c, q.OriginZIPCode, "originZIPCode")
	checkOptionalZIP(c, q.DestinationZIPCode, "destinationZIPCode")
	if q.ProcessingCategory != "" {
		checkEnum(c, q.ProcessingCategory, "processingCategory")
	}
	if q.DestinationEntryFacilityType != "" {
		checkEnum(c, q.DestinationEntryFacilityType, "destinationEntryFacilityType")
	}
	checkOptionalDate(c, q.MailingDate)
	if err := c.Err(); err != nil {
		return nil, err
	}
	return &q, nil
}

// RatesList applies the list defaults and validates a base-rates-list search
func (b *Builder) RatesList(q RatesListQuery) (*RatesListQuery, error) {
	if q.ProcessingCategory == "" {
		q.ProcessingCategory = usps.ProcessingMachinable
	}
	if q.RateIndicator == "" {
		q.RateIndicator = "SP"
	}
	if q.DestinationEntryFacilityType == "" {
		q.DestinationEntryFacilityType = usps.FacilityNone
	}
	if q.PriceType == "" {
		q.PriceType = PriceCommercial
	}
	if q.MailingDate == "" {
		q.MailingDate = utils.MailingDate(b.clock, 0)
	}

	c := validation.NewChecker()
	checkRoute(c, q.OriginZIPCode, q.DestinationZIPCode)
	checkDimensions(c, q.Weight, q.Length, q.Width, q.Height)
	if q.MailClass != "" {
		checkEnum(c, q.MailClass, "mailClass")
	}
	checkEnum(c, q.ProcessingCategory, "processingCategory")
	checkEnum(c, q.RateIndicator, "rateIndicator")
	checkEnum(c, q.DestinationEntryFacilityType, "destinationEntryFacilityType")
	checkEnum(c, q.PriceType, "priceType")
	checkOptionalDate(c, q.MailingDate)
	if err := c.Err(); err != nil {
		return nil, err
	}
	return &q, nil
}

// LetterRates applies the letter defaults and validates a letter-rates search
func (b *Builder) LetterRates(q LetterRatesQuery) (*LetterRatesQuery, error) {
	c := validation.NewChecker()
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"weight", q.Weight},
		{"length", q.Length},
		{"height", q.Height},
		{"thickness", q.Thickness},
	} {
		c.Check(f.value > 0, "Missing required field for letter rates: %s", f.name)
	}
	if q.ProcessingCategory == "" {
		c.Addf("Missing required field for letter rates: processingCategory")
	} else {
		checkEnum(c, q.ProcessingCategory, "processingCategory")
	}

	if q.OriginZIPCode == "" {
		q.OriginZIPCode = b.letters.OriginZIPCode
	}
	if q.DestinationZIPCode == "" {
		q.DestinationZIPCode = b.letters.DestinationZIPCode
	}
	if q.MailingDate == "" {
		q.MailingDate = utils.MailingDate(b.clock, 0)
	}
	if q.NonMachinableIndicators == nil {
		q.NonMachinableIndicators = false
	}
	checkRoute(c, q.OriginZIPCode, q.DestinationZIPCode)
	checkExtraServices(c, q.ExtraServices)
	checkOptionalDate(c, q.MailingDate)
	if err := c.Err(); err != nil {
		return nil, err
	}
	return &q, nil
}

// checkPiece enforces the required fields shared by base and total rates
func checkPiece(c *validation.Checker, q BaseRatesQuery) {
	checkRoute(c, q.OriginZIPCode, q.DestinationZIPCode)
	checkDimensions(c, q.Weight, q.Length, q.Width, q.Height)

	enums := []struct {
		name  string
		value validation.Enum
		empty bool
	}{
		{"mailClass", q.MailClass, q.MailClass == ""},
		{"processingCategory", q.ProcessingCategory, q.ProcessingCategory == ""},
		{"rateIndicator", q.RateIndicator, q.RateIndicator == ""},
		{"destinationEntryFacilityType", q.DestinationEntryFacilityType, q.DestinationEntryFacilityType == ""},
		{"priceType", q.PriceType, q.PriceType == ""},
	}
	for _, e := range enums {
		if e.empty {
			c.Addf("Missing required field: %s", e.name)
			continue
		}
		checkEnum(c, e.value, e.name)
	}
	checkOptionalDate(c, q.MailingDate)
}

func checkRoute(c *validation.Checker, origin, dest string) {
	for _, z := range []struct{ name, value string }{
		{"originZIPCode", origin},
		{"destinationZIPCode", dest},
	} {
		if z.value == "" {
			c.Addf("Missing required field: %s", z.name)
			continue
		}
		c.Check(validation.IsZIP5(z.value), "%s must be 5 digits", z.name)
	}
}

func checkDimensions(c *validation.Checker, weight, length, width, height float64) {
	for _, d := range []struct {
		name  string
		value float64
	}{
		{"weight", weight},
		{"length", length},
		{"width", width},
		{"height", height},
	} {
		c.Check(d.value > 0, "Missing required field: %s", d.name)
	}
}

func checkEnum(c *validation.Checker, value validation.Enum, name string) {
	c.Check(value.IsValid(), "%s has an unsupported value '%v'", name, value)
}

func checkExtraServices(c *validation.Checker, services []usps.ExtraService) {
	for i, s := range services {
		c.Check(s.IsValid(), "extraServices[%d] has an unsupported value '%d'", i, s)
	}
}

func checkOptionalZIP(c *validation.Checker, zip, name string) {
	c.Check(zip == "" || validation.IsZIP5(zip), "%s must be 5 digits", name)
}

func checkOptionalDate(c *validation.Checker, date string) {
	c.Check(date == "" || validation.ValidateVar(date, "date") == nil, "mailingDate must be a date in YYYY-MM-DD format")
}
