package intl

import (
	"strings"

	"usps-gateway/internal/common/utils"
	"usps-gateway/internal/common/validation"
	"usps-gateway/internal/usps"
)

const maxExtraServices = 3

// Build applies defaults to req and validates it, returning every violation
// in one ValidationError. The returned value is the wire payload.
func Build(req LabelRequest, clock utils.Clock) (*LabelRequest, error) {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	payload := applyDefaults(req)
	if err := validate(payload, clock); err != nil {
		return nil, err
	}
	singleNames(&payload)
	return &payload, nil
}

// singleNames drops first and last names wherever a firm name is present
func singleNames(req *LabelRequest) {
	req.FromAddress = req.FromAddress.WithSingleName()
	req.ToAddress = req.ToAddress.WithSingleName()
	if req.SenderAddress != nil {
		sender := req.SenderAddress.WithSingleName()
		req.SenderAddress = &sender
	}
	if req.ReturnAddress != nil {
		ret := req.ReturnAddress.WithSingleName()
		req.ReturnAddress = &ret
	}
}

func applyDefaults(req LabelRequest) LabelRequest {
	if req.ImageInfo.ImageType == "" {
		req.ImageInfo.ImageType = usps.ImageTypePDF
	}
	if req.ImageInfo.LabelType == "" {
		req.ImageInfo.LabelType = usps.LabelType4x6
	}

	pkg := &req.PackageDescription
	if pkg.WeightUOM == "" {
		pkg.WeightUOM = usps.WeightPounds
	}
	if pkg.DimensionsUOM == "" {
		pkg.DimensionsUOM = usps.DimensionsInches
	}
	if pkg.DestinationEntryFacilityType == "" {
		pkg.DestinationEntryFacilityType = usps.FacilityNone
	}
	pkg.MailingDate = strings.TrimSpace(pkg.MailingDate)

	// packagingType and rateIndicator are mutually exclusive
	switch {
	case pkg.PackagingType != "":
		pkg.RateIndicator = ""
	case pkg.RateIndicator == "":
		pkg.RateIndicator = DefaultRateIndicator(pkg.MailClass)
	}

	req.FromAddress = req.FromAddress.Basic()
	if req.SenderAddress != nil {
		sender := req.SenderAddress.Basic()
		req.SenderAddress = &sender
	}
	if req.ReturnAddress != nil {
		ret := req.ReturnAddress.Basic()
		req.ReturnAddress = &ret
	}

	req.CustomsForm.Contents = append([]CustomsItem(nil), req.CustomsForm.Contents...)
	for i := range req.CustomsForm.Contents {
		if req.CustomsForm.Contents[i].WeightUOM == "" {
			req.CustomsForm.Contents[i].WeightUOM = usps.WeightPounds
		}
	}
	return req
}

func validate(req LabelRequest, clock utils.Clock) error {
	c := validation.NewChecker()
	c.Merge(validation.ValidateStruct(req))

	switch req.ImageInfo.ImageType {
	case usps.ImageTypeLabelBroker, usps.ImageTypePDF, usps.ImageTypeTIFF, usps.ImageTypeZPL203, usps.ImageTypeZPL300, usps.ImageTypeNone:
	default:
		c.Addf("imageInfo.imageType has an unsupported value '%s'", req.ImageInfo.ImageType)
	}
	c.Check(req.ImageInfo.LabelType == usps.LabelType4x6, "imageInfo.labelType must be 4X6LABEL")

	pkg := req.PackageDescription
	c.Check(pkg.ProcessingCategory == "" || pkg.ProcessingCategory.IsInternational(),
		"packageDescription.processingCategory has an unsupported value '%s'", pkg.ProcessingCategory)
	c.Check(pkg.DestinationEntryFacilityType.IsInternational(),
		"packageDescription.destinationEntryFacilityType has an unsupported value '%s'", pkg.DestinationEntryFacilityType)
	if validation.ValidateVar(pkg.MailingDate, "date") == nil && !utils.MailingDateNotBefore(clock, pkg.MailingDate) {
		c.Addf("packageDescription.mailingDate must not be earlier than yesterday")
	}
	c.Check(len(pkg.ExtraServices) <= maxExtraServices, "Maximum %d extra services allowed for international labels", maxExtraServices)

	customs := req.CustomsForm
	if customs.RestrictionType == RestrictionOther && strings.TrimSpace(customs.RestrictionComments) == "" {
		c.Addf("Restriction comments are required when restriction type is OTHER")
	}
	if customs.CustomsContentType == ContentDangerousGoods && len(pkg.ExtraServices) == 0 {
		c.Addf("Dangerous goods require appropriate hazardous materials extra services")
	}

	c.Merge(req.FromAddress.Validate("fromAddress", usps.InternationalSenderLimits))
	c.Merge(usps.ValidateNameFields("toAddress", req.ToAddress.FirmName, req.ToAddress.FirstName, req.ToAddress.LastName))
	if req.SenderAddress != nil {
		c.Merge(req.SenderAddress.Validate("senderAddress", usps.InternationalSenderLimits))
	}
	if req.ReturnAddress != nil {
		c.Merge(req.ReturnAddress.Validate("returnAddress", usps.InternationalSenderLimits))
	}

	return c.Err()
}

// ValidateTrackingNumber requires the 13 character international format
func ValidateTrackingNumber(tn string) (string, error) {
	tn = strings.TrimSpace(tn)
	c := validation.NewChecker()
	c.Check(len(tn) == 13, "Tracking number must be exactly 13 characters")
	c.Check(isAlphanumeric(tn), "Tracking number must contain only letters and digits")
	return tn, c.Err()
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
