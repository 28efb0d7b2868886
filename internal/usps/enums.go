package usps

import "sort"

type stringSet map[string]struct{}

func newStringSet(values ...string) stringSet {
	s := make(stringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s stringSet) has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// MailClass is a domestic mail class
type MailClass string

const (
	MailClassGroundAdvantage      MailClass = "USPS_GROUND_ADVANTAGE"
	MailClassPriorityMail         MailClass = "PRIORITY_MAIL"
	MailClassPriorityMailExpress  MailClass = "PRIORITY_MAIL_EXPRESS"
	MailClassFirstClass           MailClass = "FIRST_CLASS"
	MailClassMediaMail            MailClass = "MEDIA_MAIL"
	MailClassLibraryMail          MailClass = "LIBRARY_MAIL"
	MailClassParcelSelect         MailClass = "PARCEL_SELECT"
	MailClassBoundPrintedMaterial MailClass = "BOUND_PRINTED_MATERIAL"
	MailClassConnectLocal         MailClass = "USPS_CONNECT_LOCAL"
	MailClassConnectRegional      MailClass = "USPS_CONNECT_REGIONAL"
	MailClassConnectMail          MailClass = "USPS_CONNECT_MAIL"
)

var mailClasses = newStringSet(
	string(MailClassGroundAdvantage), string(MailClassPriorityMail), string(MailClassPriorityMailExpress),
	string(MailClassFirstClass), string(MailClassMediaMail), string(MailClassLibraryMail),
	string(MailClassParcelSelect), string(MailClassBoundPrintedMaterial), string(MailClassConnectLocal),
	string(MailClassConnectRegional), string(MailClassConnectMail),
)

func (m MailClass) IsValid() bool { return mailClasses.has(string(m)) }

// ProcessingCategory describes the mail piece shape
type ProcessingCategory string

const (
	ProcessingLetters       ProcessingCategory = "LETTERS"
	ProcessingFlats         ProcessingCategory = "FLATS"
	ProcessingMachinable    ProcessingCategory = "MACHINABLE"
	ProcessingNonstandard   ProcessingCategory = "NONSTANDARD"
	ProcessingIrregular     ProcessingCategory = "IRREGULAR"
	ProcessingNonMachinable ProcessingCategory = "NON_MACHINABLE"
)

var processingCategories = newStringSet(
	string(ProcessingLetters), string(ProcessingFlats), string(ProcessingMachinable),
	string(ProcessingNonstandard), string(ProcessingIrregular), string(ProcessingNonMachinable),
)

func (p ProcessingCategory) IsValid() bool { return processingCategories.has(string(p)) }

// IsInternational reports whether the category is accepted on international labels
func (p ProcessingCategory) IsInternational() bool {
	switch p {
	case ProcessingLetters, ProcessingFlats, ProcessingMachinable, ProcessingNonstandard:
		return true
	}
	return false
}

// DestinationEntryFacilityType is where the piece enters the network
type DestinationEntryFacilityType string

const (
	FacilityNone                       DestinationEntryFacilityType = "NONE"
	FacilityNetworkDistributionCenter  DestinationEntryFacilityType = "DESTINATION_NETWORK_DISTRIBUTION_CENTER"
	FacilitySectionalCenter            DestinationEntryFacilityType = "DESTINATION_SECTIONAL_CENTER_FACILITY"
	FacilityDeliveryUnit               DestinationEntryFacilityType = "DESTINATION_DELIVERY_UNIT"
	FacilityServiceHub                 DestinationEntryFacilityType = "DESTINATION_SERVICE_HUB"
	FacilityInternationalServiceCenter DestinationEntryFacilityType = "INTERNATIONAL_SERVICE_CENTER"
)

var facilityTypes = newStringSet(
	string(FacilityNone), string(FacilityNetworkDistributionCenter), string(FacilitySectionalCenter),
	string(FacilityDeliveryUnit), string(FacilityServiceHub),
)

// IsValid reports whether d is accepted on domestic labels and prices
func (d DestinationEntryFacilityType) IsValid() bool { return facilityTypes.has(string(d)) }

// IsInternational reports whether d is accepted on international labels
func (d DestinationEntryFacilityType) IsInternational() bool {
	return d == FacilityNone || d == FacilityInternationalServiceCenter
}

// ImageType is the label image format
type ImageType string

const (
	ImageTypePDF         ImageType = "PDF"
	ImageTypeTIFF        ImageType = "TIFF"
	ImageTypeJPG         ImageType = "JPG"
	ImageTypePNG         ImageType = "PNG"
	ImageTypeGIF         ImageType = "GIF"
	ImageTypeSVG         ImageType = "SVG"
	ImageTypeZPL203      ImageType = "ZPL203DPI"
	ImageTypeZPL300      ImageType = "ZPL300DPI"
	ImageTypeLabelBroker ImageType = "LABEL_BROKER"
	ImageTypeNone        ImageType = "NONE"
)

var imageTypes = newStringSet(
	string(ImageTypePDF), string(ImageTypeTIFF), string(ImageTypeJPG), string(ImageTypePNG),
	string(ImageTypeGIF), string(ImageTypeSVG), string(ImageTypeZPL203), string(ImageTypeZPL300),
	string(ImageTypeLabelBroker), string(ImageTypeNone),
)

func (i ImageType) IsValid() bool { return imageTypes.has(string(i)) }

// LabelType is the label stock size
type LabelType string

const (
	LabelType4x4 LabelType = "4X4LABEL"
	LabelType4x5 LabelType = "4X5LABEL"
	LabelType4x6 LabelType = "4X6LABEL"
	LabelType6x4 LabelType = "6X4LABEL"
	LabelType2x7 LabelType = "2X7LABEL"
)

var labelTypes = newStringSet(
	string(LabelType4x4), string(LabelType4x5), string(LabelType4x6), string(LabelType6x4), string(LabelType2x7),
)

func (l LabelType) IsValid() bool { return labelTypes.has(string(l)) }

// ReceiptOption controls where the receipt is printed
type ReceiptOption string

const (
	ReceiptSamePage     ReceiptOption = "SAME_PAGE"
	ReceiptSeparatePage ReceiptOption = "SEPARATE_PAGE"
	ReceiptNone         ReceiptOption = "NONE"
)

func (r ReceiptOption) IsValid() bool {
	return r == ReceiptSamePage || r == ReceiptSeparatePage || r == ReceiptNone
}

// RateIndicator is the price group code of a piece
type RateIndicator string

var domesticRateIndicators = newStringSet(
	"3D", "3N", "3R", "5D", "BA", "BB", "CP", "CM", "DC", "DE", "DF", "DN", "DR",
	"E4", "E6", "FA", "FB", "FE", "FP", "FS", "LC", "LF", "LL", "LO", "LS", "NP",
	"OS", "P5", "P6", "P7", "P8", "P9", "Q6", "Q7", "Q8", "Q9", "Q0", "PA", "PL",
	"PM", "PR", "SN", "SP", "SR",
)

// IsValid reports whether r is a published domestic rate indicator
func (r RateIndicator) IsValid() bool { return domesticRateIndicators.has(string(r)) }

// RateIndicators lists the published domestic rate indicators
func RateIndicators() []string { return domesticRateIndicators.sorted() }

// rateIndicatorByMailClass is the label default when the caller gives none
var rateIndicatorByMailClass = map[MailClass]RateIndicator{
	MailClassGroundAdvantage:      "SP",
	MailClassPriorityMail:         "PM",
	MailClassPriorityMailExpress:  "PME",
	MailClassFirstClass:           "FC",
	MailClassMediaMail:            "MM",
	MailClassLibraryMail:          "LM",
	MailClassParcelSelect:         "PS",
	MailClassBoundPrintedMaterial: "BP",
	MailClassConnectLocal:         "LC",
	MailClassConnectRegional:      "RC",
	MailClassConnectMail:          "MC",
}

// DefaultRateIndicator derives a rate indicator from the mail class. Unknown
// classes get SP.
func DefaultRateIndicator(m MailClass) RateIndicator {
	if ri, ok := rateIndicatorByMailClass[m]; ok {
		return ri
	}
	return "SP"
}

// WeightUOM is the unit of Weight
type WeightUOM string

const (
	WeightPounds WeightUOM = "lb"
	WeightOunces WeightUOM = "oz"
)

func (w WeightUOM) IsValid() bool { return w == WeightPounds || w == WeightOunces }

// DimensionsUOM is the unit of length, width and height
type DimensionsUOM string

const (
	DimensionsInches      DimensionsUOM = "in"
	DimensionsCentimeters DimensionsUOM = "cm"
)

func (d DimensionsUOM) IsValid() bool { return d == DimensionsInches || d == DimensionsCentimeters }

// BrandingImageFormat is the layout of branding images on the label
type BrandingImageFormat string

func (b BrandingImageFormat) IsValid() bool {
	switch b {
	case "ONE_SQUARE", "TWO_SQUARES", "RECTANGLE", "NONE":
		return true
	}
	return false
}

// ShipperVisibilityMethod selects what identifies the shipper on the label
type ShipperVisibilityMethod string

func (s ShipperVisibilityMethod) IsValid() bool {
	return s == "SENDER_INFORMATION" || s == "MID_INFORMATION"
}

// ExtraService is a numeric extra service code
type ExtraService int

var domesticExtraServices = map[ExtraService]string{
	365: "Global Direct Entry",
	415: "USPS Label Delivery",
	480: "Tracking Plus 6 Months", 481: "Tracking Plus 1 Year", 482: "Tracking Plus 3 Years",
	483: "Tracking Plus 5 Years", 484: "Tracking Plus 7 Years", 485: "Tracking Plus 10 Years",
	486: "Tracking Plus Signature 3 Years", 487: "Tracking Plus Signature 5 Years",
	488: "Tracking Plus Signature 7 Years", 489: "Tracking Plus Signature 10 Years",
	810: "Hazardous Materials - Air Eligible Ethanol",
	811: "Hazardous Materials - Class 1 Toy Propellant/Safety Fuse Package",
	812: "Hazardous Materials - Class 3 Flammable and Combustible Liquids",
	813: "Hazardous Materials - Class 7 Radioactive Materials",
	814: "Hazardous Materials - Class 8 Air Eligible Corrosive Materials",
	815: "Hazardous Materials - Class 8 Nonspillable Wet Batteries",
	816: "Hazardous Materials - Class 9 Lithium Battery Marked Ground Only",
	817: "Hazardous Materials - Class 9 Lithium Battery Returns",
	818: "Hazardous Materials - Class 9 Marked Lithium Batteries",
	819: "Hazardous Materials - Class 9 Dry Ice",
	820: "Hazardous Materials - Class 9 Unmarked Lithium Batteries",
	821: "Hazardous Materials - Class 9 Magnetized Materials",
	822: "Hazardous Materials - Division 4.1 Mailable Flammable Solids or Safety Matches",
	823: "Hazardous Materials - Division 5.1 Oxidizers",
	824: "Hazardous Materials - Division 5.2 Organic Peroxides",
	825: "Hazardous Materials - Division 6.1 Toxic Materials",
	826: "Hazardous Materials - Division 6.2 Biological Materials",
	827: "Hazardous Materials - Excepted Quantity Provision",
	828: "Hazardous Materials - Ground Only Hazardous Materials",
	829: "Hazardous Materials - Air Eligible ID8000 Consumer Commodity",
	830: "Hazardous Materials - Class 2 Compressed Gases",
	831: "Hazardous Materials - Air Eligible Lighter",
	832: "Hazardous Materials - Small Quantity Provision",
	857: "Hazardous Materials",
	910: "Certified Mail", 911: "Certified Mail Restricted Delivery",
	912: "Certified Mail Adult Signature Required", 913: "Certified Mail Adult Signature Restricted Delivery",
	920: "USPS Tracking Electronic", 921: "Signature Confirmation", 922: "Adult Signature Required",
	923: "Adult Signature Restricted Delivery", 924: "Signature Confirmation Restricted Delivery",
	925: "Priority Mail Express Merchandise Insurance",
	930: "Insurance <= $500", 931: "Insurance > $500", 934: "Insurance Restricted Delivery",
	955: "Return Receipt", 957: "Return Receipt Electronic",
	981: "Signature Requested (PRIORITY_MAIL_EXPRESS only)",
	986: "PO to Addressee (PRIORITY_MAIL_EXPRESS only)",
	991: "Sunday Delivery",
}

// IsValid reports whether e is a domestic extra service code
func (e ExtraService) IsValid() bool {
	_, ok := domesticExtraServices[e]
	return ok
}

// Description returns the service name, or "" for unknown codes
func (e ExtraService) Description() string {
	return domesticExtraServices[e]
}

// ExtraServiceCodes lists the domestic extra service codes in ascending order
func ExtraServiceCodes() []int {
	codes := make([]int, 0, len(domesticExtraServices))
	for code := range domesticExtraServices {
		codes = append(codes, int(code))
	}
	sort.Ints(codes)
	return codes
}
