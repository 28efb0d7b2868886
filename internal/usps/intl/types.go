package intl

import (
	"strings"

	"usps-gateway/internal/usps"
	"usps-gateway/internal/usps/labels"
)

// MailClass is an international mail class
type MailClass string

const (
	MailClassFirstClassPackage   MailClass = "FIRST-CLASS_PACKAGE_INTERNATIONAL_SERVICE"
	MailClassPriorityMail        MailClass = "PRIORITY_MAIL_INTERNATIONAL"
	MailClassPriorityMailExpress MailClass = "PRIORITY_MAIL_EXPRESS_INTERNATIONAL"
)

func (m MailClass) IsValid() bool {
	switch m {
	case MailClassFirstClassPackage, MailClassPriorityMail, MailClassPriorityMailExpress:
		return true
	}
	return false
}

// DefaultRateIndicator is used when neither packagingType nor rateIndicator
// is given
func DefaultRateIndicator(m MailClass) RateIndicator {
	if m == MailClassPriorityMailExpress {
		return "PA"
	}
	return "SP"
}

// RateIndicator is an international price group code
type RateIndicator string

func (r RateIndicator) IsValid() bool {
	switch r {
	case "E4", "E6", "FA", "FB", "FE", "FP", "FS", "PA", "PL", "SP":
		return true
	}
	return false
}

// PackagingType selects flat rate packaging instead of a rate indicator
type PackagingType string

func (p PackagingType) IsValid() bool {
	switch p {
	case "FLAT_RATE_ENVELOPE", "LEGAL_FLAT_RATE_ENVELOPE", "PADDED_FLAT_RATE_ENVELOPE",
		"SM_FLAT_RATE_BOX", "MD_FLAT_RATE_BOX", "LG_FLAT_RATE_BOX", "VARIABLE":
		return true
	}
	return false
}

// ExtraService is an extra service code accepted on international labels
type ExtraService int

var extraServices = map[ExtraService]string{
	480: "Tracking Plus 6 Months",
	481: "Tracking Plus 1 Year",
	482: "Tracking Plus 3 Years",
	483: "Tracking Plus 5 Years",
	484: "Tracking Plus 7 Years",
	486: "Tracking Plus Signature 3 Years",
	487: "Tracking Plus Signature 5 Years",
	488: "Tracking Plus Signature 7 Years",
	813: "Hazardous Materials - Class 7 Radioactive Materials",
	820: "Hazardous Materials - Class 9 Unmarked Lithium Batteries",
	826: "Hazardous Materials - Division 6.2 Biological Materials",
	857: "Hazardous Materials",
	930: "Insurance <= $500",
	931: "Insurance > $500",
	955: "Return Receipt",
}

func (e ExtraService) IsValid() bool {
	_, ok := extraServices[e]
	return ok
}

func (e ExtraService) Description() string { return extraServices[e] }

// CustomsContentType categorizes the contents for customs
type CustomsContentType string

const (
	ContentMerchandise    CustomsContentType = "MERCHANDISE"
	ContentGift           CustomsContentType = "GIFT"
	ContentDocument       CustomsContentType = "DOCUMENT"
	ContentDangerousGoods CustomsContentType = "DANGEROUS_GOODS"
)

func (c CustomsContentType) IsValid() bool {
	switch c {
	case ContentMerchandise, ContentGift, ContentDocument, "COMMERCIAL_SAMPLE", "RETURNED_GOODS", "OTHER",
		"HUMANITARIAN_DONATIONS", ContentDangerousGoods, "CREMATED_REMAINS", "NON_NEGOTIABLE_DOCUMENT",
		"MEDICAL_SUPPLIES", "PHARMACEUTICALS":
		return true
	}
	return false
}

// RestrictionType is an import restriction declared on the customs form
type RestrictionType string

const RestrictionOther RestrictionType = "OTHER"

func (r RestrictionType) IsValid() bool {
	switch r {
	case "QUARANTINE", "SANITARY_INSPECTION", "PHYTOSANITARY_INSPECTION", RestrictionOther:
		return true
	}
	return false
}

// Address is a foreign destination address
type Address struct {
	StreetAddress        string `json:"streetAddress" validate:"required,max=50"`
	SecondaryAddress     string `json:"secondaryAddress,omitempty" validate:"max=50"`
	City                 string `json:"city" validate:"required,max=28"`
	Province             string `json:"province,omitempty" validate:"max=40"`
	PostalCode           string `json:"postalCode,omitempty" validate:"max=11"`
	Country              string `json:"country" validate:"required,max=50"`
	CountryISOAlpha2Code string `json:"countryISOAlpha2Code" validate:"required,iso2"`
	FirmName             string `json:"firmName,omitempty" validate:"max=50"`
	FirstName            string `json:"firstName,omitempty" validate:"max=50"`
	LastName             string `json:"lastName,omitempty" validate:"max=50"`
	Phone                string `json:"phone,omitempty" validate:"max=20"`
	Email                string `json:"email,omitempty" validate:"omitempty,email"`
}

// HasName reports whether either name form is present
func (a Address) HasName() bool {
	return a.FirmName != "" || a.FirstName != ""
}

// WithSingleName keeps only firmName when it is set
func (a Address) WithSingleName() Address {
	if strings.TrimSpace(a.FirmName) != "" {
		a.FirstName = ""
		a.LastName = ""
	}
	return a
}

// ImageInfo is the imageInfo object of an international label
type ImageInfo struct {
	ImageType             usps.ImageType `json:"imageType,omitempty"`
	LabelType             usps.LabelType `json:"labelType,omitempty"`
	SuppressPostage       bool           `json:"suppressPostage"`
	IncludeLabelBrokerPDF bool           `json:"includeLabelBrokerPDF"`
	AddZPLComments        bool           `json:"addZPLComments"`
}

// PackageDescription describes the piece. Defaults fill empty unit,
// facility and rate fields.
type PackageDescription struct {
	MailClass                    MailClass                         `json:"mailClass" validate:"required,enum"`
	RateIndicator                RateIndicator                     `json:"rateIndicator,omitempty" validate:"omitempty,enum"`
	PackagingType                PackagingType                     `json:"packagingType,omitempty" validate:"omitempty,enum"`
	WeightUOM                    usps.WeightUOM                    `json:"weightUOM,omitempty" validate:"oneof=lb"`
	Weight                       float64                           `json:"weight" validate:"gte=0.01,lte=70"`
	DimensionsUOM                usps.DimensionsUOM                `json:"dimensionsUOM,omitempty" validate:"oneof=in"`
	Length                       float64                           `json:"length" validate:"gte=0.1,lte=108"`
	Width                        float64                           `json:"width" validate:"gte=0.1,lte=108"`
	Height                       float64                           `json:"height" validate:"gte=0.1,lte=108"`
	Girth                        *float64                          `json:"girth,omitempty"`
	Shape                        string                            `json:"shape,omitempty"`
	Diameter                     *float64                          `json:"diameter,omitempty"`
	ProcessingCategory           usps.ProcessingCategory           `json:"processingCategory" validate:"required"`
	DestinationEntryFacilityType usps.DestinationEntryFacilityType `json:"destinationEntryFacilityType,omitempty"`
	MailingDate                  string                            `json:"mailingDate" validate:"required,date"`
	ExtraServices                []ExtraService                    `json:"extraServices,omitempty" validate:"dive,enum"`
	CustomerReference            []labels.CustomerReference        `json:"customerReference,omitempty" validate:"max=4"`
	PackageOptions               map[string]interface{}            `json:"packageOptions,omitempty"`
	InductionZIPCode             string                            `json:"inductionZIPCode,omitempty" validate:"omitempty,zip5"`
	MailOwnerMID                 string                            `json:"mailOwnerMID,omitempty"`
	LogisticsManagerMID          string                            `json:"logisticsManagerMID,omitempty"`
}

// CustomsItem is one line of the customs declaration
type CustomsItem struct {
	ItemDescription string         `json:"itemDescription" validate:"required,max=30"`
	ItemQuantity    int            `json:"itemQuantity" validate:"required,min=1,max=9999"`
	ItemTotalValue  float64        `json:"itemTotalValue" validate:"gte=0.01,lte=999999.99"`
	ItemTotalWeight float64        `json:"itemTotalWeight" validate:"gte=0.0001"`
	WeightUOM       usps.WeightUOM `json:"weightUOM,omitempty" validate:"omitempty,enum"`
	CountryOfOrigin string         `json:"countryofOrigin" validate:"required,iso2"`
	HSTariffNumber  string         `json:"HSTariffNumber,omitempty" validate:"omitempty,min=6,max=14"`
	ItemCategory    string         `json:"itemCategory,omitempty"`
	ItemSubcategory string         `json:"itemSubcategory,omitempty"`
}

// CustomsForm is the customs declaration every international label needs
type CustomsForm struct {
	AESITN              string             `json:"AESITN" validate:"required,max=35"`
	CustomsContentType  CustomsContentType `json:"customsContentType" validate:"required,enum"`
	ContentComments     string             `json:"contentComments,omitempty" validate:"max=25"`
	RestrictionType     RestrictionType    `json:"restrictionType,omitempty" validate:"omitempty,enum"`
	RestrictionComments string             `json:"restrictionComments,omitempty" validate:"max=25"`
	InvoiceNumber       string             `json:"invoiceNumber,omitempty" validate:"max=15"`
	LicenseNumber       string             `json:"licenseNumber,omitempty" validate:"max=16"`
	CertificateNumber   string             `json:"certificateNumber,omitempty" validate:"max=12"`
	ImportersReference  string             `json:"importersReference,omitempty"`
	ExportersReference  string             `json:"exportersReference,omitempty"`
	Contents            []CustomsItem      `json:"contents" validate:"required,min=1,max=30,dive"`
}

// LabelRequest is an international label request. It is also the wire
// payload once defaults are applied.
type LabelRequest struct {
	ImageInfo          ImageInfo          `json:"imageInfo"`
	FromAddress        usps.Address       `json:"fromAddress" validate:"-"`
	ToAddress          Address            `json:"toAddress"`
	SenderAddress      *usps.Address      `json:"senderAddress,omitempty" validate:"-"`
	ReturnAddress      *usps.Address      `json:"returnAddress,omitempty" validate:"-"`
	PackageDescription PackageDescription `json:"packageDescription"`
	CustomsForm        CustomsForm        `json:"customsForm"`
}
