package labels

import (
	"strconv"
	"strings"

	"usps-gateway/internal/common/utils"
	"usps-gateway/internal/common/validation"
	"usps-gateway/internal/config"
	"usps-gateway/internal/usps"
)

const (
	maxExtraServices      = 5
	maxCustomerReferences = 4
	maxReferenceLength    = 30
	maxGirth              = 130
)

// ImageOptions is the caller's imageInfo; nil or empty fields take defaults
type ImageOptions struct {
	ImageType             usps.ImageType           `json:"imageType,omitempty"`
	LabelType             usps.LabelType           `json:"labelType,omitempty"`
	ReceiptOption         usps.ReceiptOption       `json:"receiptOption,omitempty"`
	SuppressPostage       *bool                    `json:"suppressPostage,omitempty"`
	SuppressMailDate      *bool                    `json:"suppressMailDate,omitempty"`
	ReturnLabel           *bool                    `json:"returnLabel,omitempty"`
	ShipInfo              *bool                    `json:"shipInfo,omitempty"`
	BrandingImageFormat   usps.BrandingImageFormat `json:"brandingImageFormat,omitempty"`
	BrandingImageUUIDs    []string                 `json:"brandingImageUUIDs,omitempty"`
	IncludeLabelBrokerPDF *bool                    `json:"includeLabelBrokerPDF,omitempty"`
	AddZPLComments        *bool                    `json:"addZPLComments,omitempty"`
	PackageNumber         *int                     `json:"packageNumber,omitempty"`
	TotalPackages         *int                     `json:"totalPackages,omitempty"`
}

// ImageInfo is the imageInfo object sent upstream
type ImageInfo struct {
	ImageType             usps.ImageType           `json:"imageType"`
	LabelType             usps.LabelType           `json:"labelType"`
	ReceiptOption         usps.ReceiptOption       `json:"receiptOption"`
	SuppressPostage       bool                     `json:"suppressPostage"`
	SuppressMailDate      bool                     `json:"suppressMailDate"`
	ReturnLabel           bool                     `json:"returnLabel"`
	ShipInfo              *bool                    `json:"shipInfo,omitempty"`
	BrandingImageFormat   usps.BrandingImageFormat `json:"brandingImageFormat,omitempty"`
	BrandingImageUUIDs    []string                 `json:"brandingImageUUIDs,omitempty"`
	IncludeLabelBrokerPDF *bool                    `json:"includeLabelBrokerPDF,omitempty"`
	AddZPLComments        *bool                    `json:"addZPLComments,omitempty"`
	PackageNumber         *int                     `json:"packageNumber,omitempty"`
	TotalPackages         *int                     `json:"totalPackages,omitempty"`
}

// CustomerReference is printed on the label when PrintReferenceNumber is set
type CustomerReference struct {
	ReferenceNumber      string `json:"referenceNumber"`
	PrintReferenceNumber bool   `json:"printReferenceNumber,omitempty"`
}

// PackageOptions is the caller's packageDescription
type PackageOptions struct {
	MailClass                     usps.MailClass                    `json:"mailClass"`
	RateIndicator                 usps.RateIndicator                `json:"rateIndicator,omitempty"`
	WeightUOM                     usps.WeightUOM                    `json:"weightUOM,omitempty"`
	Weight                        float64                           `json:"weight"`
	DimensionsUOM                 usps.DimensionsUOM                `json:"dimensionsUOM,omitempty"`
	Length                        float64                           `json:"length"`
	Width                         float64                           `json:"width"`
	Height                        float64                           `json:"height"`
	Girth                         *float64                          `json:"girth,omitempty"`
	ProcessingCategory            usps.ProcessingCategory           `json:"processingCategory"`
	DestinationEntryFacilityType  usps.DestinationEntryFacilityType `json:"destinationEntryFacilityType,omitempty"`
	MailingDate                   string                            `json:"mailingDate"`
	HasNonstandardCharacteristics *bool                             `json:"hasNonstandardCharacteristics,omitempty"`
	ExtraServices                 []usps.ExtraService               `json:"extraServices,omitempty"`
	CustomerReference             []CustomerReference               `json:"customerReference,omitempty"`
	PackageOptions                map[string]interface{}            `json:"packageOptions,omitempty"`
	Containers                    []map[string]interface{}          `json:"containers,omitempty"`
	CarrierRelease                *bool                             `json:"carrierRelease,omitempty"`
	PhysicalSignatureRequired     *bool                             `json:"physicalSignatureRequired,omitempty"`
	InductionZIPCode              string                            `json:"inductionZIPCode,omitempty"`
	ShipperVisibilityMethod       usps.ShipperVisibilityMethod      `json:"shipperVisibilityMethod,omitempty"`
	MailOwnerMID                  string                            `json:"mailOwnerMID,omitempty"`
	LogisticsManagerMID           string                            `json:"logisticsManagerMID,omitempty"`
}

// PackageDescription is the packageDescription object sent upstream.
// extraServices and customerReference are always present, possibly empty.
type PackageDescription struct {
	MailClass                     usps.MailClass                    `json:"mailClass"`
	RateIndicator                 usps.RateIndicator                `json:"rateIndicator"`
	WeightUOM                     usps.WeightUOM                    `json:"weightUOM"`
	Weight                        float64                           `json:"weight"`
	DimensionsUOM                 usps.DimensionsUOM                `json:"dimensionsUOM"`
	Length                        float64                           `json:"length"`
	Width                         float64                           `json:"width"`
	Height                        float64                           `json:"height"`
	Girth                         *float64                          `json:"girth,omitempty"`
	ProcessingCategory            usps.ProcessingCategory           `json:"processingCategory"`
	DestinationEntryFacilityType  usps.DestinationEntryFacilityType `json:"destinationEntryFacilityType"`
	MailingDate                   string                            `json:"mailingDate"`
	HasNonstandardCharacteristics *bool                             `json:"hasNonstandardCharacteristics,omitempty"`
	ExtraServices                 []usps.ExtraService               `json:"extraServices"`
	CustomerReference             []CustomerReference               `json:"customerReference"`
	PackageOptions                map[string]interface{}            `json:"packageOptions,omitempty"`
	Containers                    []map[string]interface{}          `json:"containers,omitempty"`
	CarrierRelease                *bool                             `json:"carrierRelease,omitempty"`
	PhysicalSignatureRequired     *bool                             `json:"physicalSignatureRequired,omitempty"`
	InductionZIPCode              string                            `json:"inductionZIPCode,omitempty"`
	ShipperVisibilityMethod       usps.ShipperVisibilityMethod      `json:"shipperVisibilityMethod,omitempty"`
	MailOwnerMID                  string                            `json:"mailOwnerMID,omitempty"`
	LogisticsManagerMID           string                            `json:"logisticsManagerMID,omitempty"`
}

// LabelRequest is a domestic label request as callers supply it
type LabelRequest struct {
	ImageInfo          ImageOptions           `json:"imageInfo"`
	FromAddress        usps.Address           `json:"fromAddress"`
	ToAddress          usps.Address           `json:"toAddress"`
	SenderAddress      *usps.Address          `json:"senderAddress,omitempty"`
	ReturnAddress      *usps.Address          `json:"returnAddress,omitempty"`
	PackageDescription PackageOptions         `json:"packageDescription"`
	CustomsForm        map[string]interface{} `json:"customsForm,omitempty"`
}

// Payload is the complete body of POST /label and POST /return-label
type Payload struct {
	ImageInfo          ImageInfo              `json:"imageInfo"`
	ToAddress          usps.Address           `json:"toAddress"`
	FromAddress        usps.Address           `json:"fromAddress"`
	SenderAddress      *usps.Address          `json:"senderAddress,omitempty"`
	ReturnAddress      *usps.Address          `json:"returnAddress,omitempty"`
	PackageDescription PackageDescription     `json:"packageDescription"`
	CustomsForm        map[string]interface{} `json:"customsForm,omitempty"`
	PayerCRID          string                 `json:"payerCRID"`
	PayerMID           string                 `json:"payerMID"`
	LabelOwnerCRID     string                 `json:"labelOwnerCRID"`
	LabelOwnerMID      string                 `json:"labelOwnerMID"`
}

// Builder turns a LabelRequest into a Payload
type Builder struct {
	account config.Account
	clock   utils.Clock
}

// NewBuilder creates a builder injecting account identifiers into payloads
func NewBuilder(account config.Account, clock utils.Clock) *Builder {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &Builder{account: account, clock: clock}
}

// Build applies defaults and validates the result. Every violation is
// reported in one ValidationError.
func (b *Builder) Build(req LabelRequest) (*Payload, error) {
	return b.build(req, false)
}

// BuildReturn is Build for return labels: no receipt is printed
func (b *Builder) BuildReturn(req LabelRequest) (*Payload, error) {
	return b.build(req, true)
}

func (b *Builder) build(req LabelRequest, returnLabel bool) (*Payload, error) {
	image := BuildImageInfo(req.ImageInfo)
	if returnLabel {
		image.ReceiptOption = usps.ReceiptNone
	}
	pkg := buildPackage(req.PackageDescription)

	c := validation.NewChecker()
	validateImageInfo(c, image)
	validatePackage(c, pkg, b.clock)
	if err := c.Err(); err != nil {
		return nil, err
	}

	if err := req.FromAddress.Validate("fromAddress", usps.DomesticLabelLimits); err != nil {
		return nil, err
	}
	if err := req.ToAddress.Validate("toAddress", usps.DomesticLabelLimits); err != nil {
		return nil, err
	}
	if req.SenderAddress != nil {
		if err := req.SenderAddress.Validate("senderAddress", usps.DomesticLabelLimits); err != nil {
			return nil, err
		}
	}
	if req.ReturnAddress != nil {
		if err := req.ReturnAddress.Validate("returnAddress", usps.DomesticLabelLimits); err != nil {
			return nil, err
		}
	}

	return &Payload{
		ImageInfo:          image,
		ToAddress:          req.ToAddress.WithSingleName(),
		FromAddress:        req.FromAddress.WithSingleName(),
		SenderAddress:      singleName(req.SenderAddress),
		ReturnAddress:      singleName(req.ReturnAddress),
		PackageDescription: pkg,
		CustomsForm:        req.CustomsForm,
		PayerCRID:          b.account.CRID,
		PayerMID:           b.account.MID,
		LabelOwnerCRID:     b.account.CRID,
		LabelOwnerMID:      b.account.MID,
	}, nil
}

func singleName(a *usps.Address) *usps.Address {
	if a == nil {
		return nil
	}
	named := a.WithSingleName()
	return &named
}

// BuildImageInfo fills imageInfo defaults: PDF on 4X6LABEL stock, receipt
// on the same page, mail date suppressed.
func BuildImageInfo(opts ImageOptions) ImageInfo {
	info := ImageInfo{
		ImageType:             opts.ImageType,
		LabelType:             opts.LabelType,
		ReceiptOption:         opts.ReceiptOption,
		SuppressPostage:       boolOr(opts.SuppressPostage, false),
		SuppressMailDate:      boolOr(opts.SuppressMailDate, true),
		ReturnLabel:           boolOr(opts.ReturnLabel, false),
		ShipInfo:              opts.ShipInfo,
		BrandingImageFormat:   opts.BrandingImageFormat,
		BrandingImageUUIDs:    opts.BrandingImageUUIDs,
		IncludeLabelBrokerPDF: opts.IncludeLabelBrokerPDF,
		AddZPLComments:        opts.AddZPLComments,
		PackageNumber:         opts.PackageNumber,
		TotalPackages:         opts.TotalPackages,
	}
	if info.ImageType == "" {
		info.ImageType = usps.ImageTypePDF
	}
	if info.LabelType == "" {
		info.LabelType = usps.LabelType4x6
	}
	if info.ReceiptOption == "" {
		info.ReceiptOption = usps.ReceiptSamePage
	}
	return info
}

func buildPackage(opts PackageOptions) PackageDescription {
	pkg := PackageDescription{
		MailClass:                     opts.MailClass,
		RateIndicator:                 opts.RateIndicator,
		WeightUOM:                     opts.WeightUOM,
		Weight:                        opts.Weight,
		DimensionsUOM:                 opts.DimensionsUOM,
		Length:                        opts.Length,
		Width:                         opts.Width,
		Height:                        opts.Height,
		Girth:                         opts.Girth,
		ProcessingCategory:            opts.ProcessingCategory,
		DestinationEntryFacilityType:  opts.DestinationEntryFacilityType,
		MailingDate:                   strings.TrimSpace(opts.MailingDate),
		HasNonstandardCharacteristics: opts.HasNonstandardCharacteristics,
		ExtraServices:                 opts.ExtraServices,
		CustomerReference:             opts.CustomerReference,
		PackageOptions:                opts.PackageOptions,
		Containers:                    opts.Containers,
		CarrierRelease:                opts.CarrierRelease,
		PhysicalSignatureRequired:     opts.PhysicalSignatureRequired,
		InductionZIPCode:              opts.InductionZIPCode,
		ShipperVisibilityMethod:       opts.ShipperVisibilityMethod,
		MailOwnerMID:                  opts.MailOwnerMID,
		LogisticsManagerMID:           opts.LogisticsManagerMID,
	}
	if pkg.RateIndicator == "" {
		pkg.RateIndicator = usps.DefaultRateIndicator(pkg.MailClass)
	}
	if pkg.WeightUOM == "" {
		pkg.WeightUOM = usps.WeightPounds
	}
	if pkg.DimensionsUOM == "" {
		pkg.DimensionsUOM = usps.DimensionsInches
	}
	if pkg.DestinationEntryFacilityType == "" {
		pkg.DestinationEntryFacilityType = usps.FacilityNone
	}
	if pkg.ExtraServices == nil {
		pkg.ExtraServices = []usps.ExtraService{}
	}
	if pkg.CustomerReference == nil {
		pkg.CustomerReference = []CustomerReference{}
	}
	return pkg
}

func validateImageInfo(c *validation.Checker, info ImageInfo) {
	c.Check(info.ImageType.IsValid(), "imageInfo.imageType has an unsupported value '%s'", info.ImageType)
	c.Check(info.LabelType.IsValid(), "imageInfo.labelType has an unsupported value '%s'", info.LabelType)
	c.Check(info.ReceiptOption.IsValid(), "imageInfo.receiptOption has an unsupported value '%s'", info.ReceiptOption)
	c.Check(info.BrandingImageFormat == "" || info.BrandingImageFormat.IsValid(),
		"imageInfo.brandingImageFormat has an unsupported value '%s'", info.BrandingImageFormat)
	if info.PackageNumber != nil {
		c.Check(*info.PackageNumber >= 1, "imageInfo.packageNumber must be at least 1")
		if info.TotalPackages != nil {
			c.Check(*info.PackageNumber <= *info.TotalPackages, "imageInfo.packageNumber must not exceed imageInfo.totalPackages")
		}
	}
}

func validatePackage(c *validation.Checker, pkg PackageDescription, clock utils.Clock) {
	if pkg.MailClass == "" {
		c.Addf("packageDescription.mailClass is required")
	} else {
		c.Check(pkg.MailClass.IsValid(), "packageDescription.mailClass has an unsupported value '%s'", pkg.MailClass)
	}
	if pkg.ProcessingCategory == "" {
		c.Addf("packageDescription.processingCategory is required")
	} else {
		c.Check(pkg.ProcessingCategory.IsValid(),
			"packageDescription.processingCategory has an unsupported value '%s'", pkg.ProcessingCategory)
	}
	// Indicators derived from the mail class table are sent as-is.
	if pkg.RateIndicator != usps.DefaultRateIndicator(pkg.MailClass) {
		c.Check(pkg.RateIndicator.IsValid(), "packageDescription.rateIndicator has an unsupported value '%s'", pkg.RateIndicator)
	}
	c.Check(pkg.WeightUOM.IsValid(), "packageDescription.weightUOM must be one of lb, oz")
	c.Check(pkg.DimensionsUOM.IsValid(), "packageDescription.dimensionsUOM must be one of in, cm")
	c.Check(pkg.DestinationEntryFacilityType.IsValid(),
		"packageDescription.destinationEntryFacilityType has an unsupported value '%s'", pkg.DestinationEntryFacilityType)

	c.Range(pkg.Weight, 0.01, 70, "packageDescription.weight")
	c.Range(pkg.Length, 0.1, 108, "packageDescription.length")
	c.Range(pkg.Width, 0.1, 108, "packageDescription.width")
	c.Range(pkg.Height, 0.1, 108, "packageDescription.height")
	if pkg.Girth != nil {
		c.Range(*pkg.Girth, 0.1, maxGirth, "packageDescription.girth")
	}

	switch {
	case pkg.MailingDate == "":
		c.Addf("packageDescription.mailingDate is required")
	case !utils.MailingDateNotBefore(clock, pkg.MailingDate):
		c.Addf("packageDescription.mailingDate must be a YYYY-MM-DD date no earlier than yesterday")
	}

	c.Check(len(pkg.ExtraServices) <= maxExtraServices, "Maximum %d extra services allowed", maxExtraServices)
	for i, code := range pkg.ExtraServices {
		c.Check(code.IsValid(), "packageDescription.extraServices[%d] has an unsupported value '%d'", i, code)
	}
	c.Check(len(pkg.CustomerReference) <= maxCustomerReferences, "Maximum %d customer references allowed", maxCustomerReferences)
	for i, ref := range pkg.CustomerReference {
		field := "packageDescription.customerReference[" + strconv.Itoa(i) + "].referenceNumber"
		c.Require(ref.ReferenceNumber, field).MaxLength(ref.ReferenceNumber, maxReferenceLength, field)
	}

	c.Check(pkg.InductionZIPCode == "" || validation.IsZIP5(pkg.InductionZIPCode),
		"packageDescription.inductionZIPCode must be 5 digits")
	c.Check(pkg.ShipperVisibilityMethod == "" || pkg.ShipperVisibilityMethod.IsValid(),
		"packageDescription.shipperVisibilityMethod has an unsupported value '%s'", pkg.ShipperVisibilityMethod)
	c.MaxLength(pkg.MailOwnerMID, 9, "packageDescription.mailOwnerMID")
	c.MaxLength(pkg.LogisticsManagerMID, 9, "packageDescription.logisticsManagerMID")
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
