package labels

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usps-gateway/internal/common/errors"
	"usps-gateway/internal/common/utils"
	"usps-gateway/internal/testutil"
	"usps-gateway/internal/usps"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestBuilder() *Builder {
	return NewBuilder(testutil.TestAccount, utils.NewFakeClock(testNow))
}

func validRequest() LabelRequest {
	return LabelRequest{
		FromAddress: testutil.SenderAddress(),
		ToAddress:   testutil.RecipientAddress(),
		PackageDescription: PackageOptions{
			MailClass:          usps.MailClassPriorityMail,
			Weight:             2.5,
			Length:             10,
			Width:              8,
			Height:             4,
			ProcessingCategory: usps.ProcessingMachinable,
			MailingDate:        "2026-03-11",
		},
	}
}

func TestBuild_AppliesDefaults(t *testing.T) {
	payload, err := newTestBuilder().Build(validRequest())
	require.NoError(t, err)

	assert.Equal(t, usps.ImageTypePDF, payload.ImageInfo.ImageType)
	assert.Equal(t, usps.LabelType4x6, payload.ImageInfo.LabelType)
	assert.Equal(t, usps.ReceiptSamePage, payload.ImageInfo.ReceiptOption)
	assert.True(t, payload.ImageInfo.SuppressMailDate)
	assert.False(t, payload.ImageInfo.SuppressPostage)

	pkg := payload.PackageDescription
	assert.Equal(t, usps.RateIndicator("PM"), pkg.RateIndicator)
	assert.Equal(t, usps.WeightPounds, pkg.WeightUOM)
	assert.Equal(t, usps.DimensionsInches, pkg.DimensionsUOM)
	assert.Equal(t, usps.FacilityNone, pkg.DestinationEntryFacilityType)

	assert.Equal(t, "56982563", payload.PayerCRID)
	assert.Equal(t, "904128", payload.PayerMID)
	assert.Equal(t, "56982563", payload.LabelOwnerCRID)
	assert.Equal(t, "904128", payload.LabelOwnerMID)
}

func TestBuild_WireShape(t *testing.T) {
	payload, err := newTestBuilder().Build(validRequest())
	require.NoError(t, err)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))

	pkg := body["packageDescription"].(map[string]interface{})
	assert.Equal(t, []interface{}{}, pkg["extraServices"])
	assert.Equal(t, []interface{}{}, pkg["customerReference"])
	assert.NotContains(t, pkg, "girth")
	assert.NotContains(t, body, "senderAddress")
	assert.NotContains(t, body, "customsForm")

	to := body["toAddress"].(map[string]interface{})
	assert.Equal(t, "20500", to["ZIPCode"])
	assert.NotContains(t, to, "firmName")
}

func TestBuild_FirmNameWins(t *testing.T) {
	req := validRequest()
	req.FromAddress.FirstName = "Jo"
	ret := testutil.SenderAddress()
	ret.LastName = "Lee"
	req.ReturnAddress = &ret

	payload, err := newTestBuilder().Build(req)
	require.NoError(t, err)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))

	from := body["fromAddress"].(map[string]interface{})
	assert.Equal(t, "Acme Outfitters", from["firmName"])
	assert.NotContains(t, from, "firstName")

	returnAddr := body["returnAddress"].(map[string]interface{})
	assert.NotContains(t, returnAddr, "lastName")

	// Person-named recipients keep both names
	to := body["toAddress"].(map[string]interface{})
	assert.NotEmpty(t, to["firstName"])
	assert.NotEmpty(t, to["lastName"])

	assert.Equal(t, "Jo", req.FromAddress.FirstName, "caller's request is untouched")
}

func TestBuild_CallerValuesWin(t *testing.T) {
	req := validRequest()
	suppress := false
	req.ImageInfo = ImageOptions{ImageType: usps.ImageTypeZPL203, SuppressMailDate: &suppress}
	req.PackageDescription.RateIndicator = "FP"
	req.PackageDescription.WeightUOM = usps.WeightOunces
	req.PackageDescription.Weight = 12
	req.PackageDescription.ExtraServices = []usps.ExtraService{920, 921}

	payload, err := newTestBuilder().Build(req)
	require.NoError(t, err)
	assert.Equal(t, usps.ImageTypeZPL203, payload.ImageInfo.ImageType)
	assert.False(t, payload.ImageInfo.SuppressMailDate)
	assert.Equal(t, usps.RateIndicator("FP"), payload.PackageDescription.RateIndicator)
	assert.Equal(t, usps.WeightOunces, payload.PackageDescription.WeightUOM)
	assert.Equal(t, []usps.ExtraService{920, 921}, payload.PackageDescription.ExtraServices)
}

func TestBuildReturn_ForcesNoReceipt(t *testing.T) {
	req := validRequest()
	req.ImageInfo.ReceiptOption = usps.ReceiptSeparatePage

	payload, err := newTestBuilder().BuildReturn(req)
	require.NoError(t, err)
	assert.Equal(t, usps.ReceiptNone, payload.ImageInfo.ReceiptOption)
}

func TestBuild_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LabelRequest)
		wantMsg string
	}{
		{"missing mail class", func(r *LabelRequest) { r.PackageDescription.MailClass = "" }, "packageDescription.mailClass is required"},
		{"unknown mail class", func(r *LabelRequest) { r.PackageDescription.MailClass = "PONY_EXPRESS" }, "mailClass has an unsupported value 'PONY_EXPRESS'"},
		{"overweight", func(r *LabelRequest) { r.PackageDescription.Weight = 71 }, "packageDescription.weight must be between 0.01 and 70"},
		{"too long", func(r *LabelRequest) { r.PackageDescription.Length = 109 }, "packageDescription.length must be between 0.1 and 108"},
		{"bad weight unit", func(r *LabelRequest) { r.PackageDescription.WeightUOM = "kg" }, "weightUOM must be one of lb, oz"},
		{"unknown rate indicator", func(r *LabelRequest) { r.PackageDescription.RateIndicator = "ZZ" }, "rateIndicator has an unsupported value 'ZZ'"},
		{"stale mailing date", func(r *LabelRequest) { r.PackageDescription.MailingDate = "2026-03-01" }, "mailingDate must be a YYYY-MM-DD date no earlier than yesterday"},
		{"missing mailing date", func(r *LabelRequest) { r.PackageDescription.MailingDate = "" }, "packageDescription.mailingDate is required"},
		{"bad image type", func(r *LabelRequest) { r.ImageInfo.ImageType = "BMP" }, "imageInfo.imageType has an unsupported value 'BMP'"},
		{"too many extra services", func(r *LabelRequest) {
			r.PackageDescription.ExtraServices = []usps.ExtraService{920, 921, 922, 923, 930, 955}
		}, "Maximum 5 extra services allowed"},
		{"unknown extra service", func(r *LabelRequest) { r.PackageDescription.ExtraServices = []usps.ExtraService{999} }, "extraServices[0] has an unsupported value '999'"},
		{"too many references", func(r *LabelRequest) {
			r.PackageDescription.CustomerReference = make([]CustomerReference, 5)
			for i := range r.PackageDescription.CustomerReference {
				r.PackageDescription.CustomerReference[i].ReferenceNumber = "REF"
			}
		}, "Maximum 4 customer references allowed"},
		{"long reference", func(r *LabelRequest) {
			r.PackageDescription.CustomerReference = []CustomerReference{{ReferenceNumber: "0123456789012345678901234567890"}}
		}, "customerReference[0].referenceNumber must be at most 30 characters"},
		{"missing city", func(r *LabelRequest) { r.ToAddress.City = "" }, "toAddress.city is required"},
		{"bad state", func(r *LabelRequest) { r.FromAddress.State = "XX" }, "fromAddress.state must be a valid 2-letter state code"},
		{"no recipient name", func(r *LabelRequest) { r.ToAddress.FirstName, r.ToAddress.LastName = "", "" }, "toAddress must have either firmName OR firstName and lastName"},
		{"both name forms", func(r *LabelRequest) { r.FromAddress.FirstName, r.FromAddress.LastName = "Ann", "Lee" }, "fromAddress cannot have both firmName AND firstName/lastName"},
		{"invalid return address", func(r *LabelRequest) { r.ReturnAddress = &usps.Address{FirmName: "Returns"} }, "returnAddress.streetAddress is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			_, err := newTestBuilder().Build(req)
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, errors.KindValidation))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestBuild_ReportsAllPackageViolations(t *testing.T) {
	req := validRequest()
	req.PackageDescription.Weight = 0
	req.PackageDescription.Height = 0

	_, err := newTestBuilder().Build(req)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Len(t, appErr.Details, 2)
}

func TestBuild_DerivedRateIndicatorNotChecked(t *testing.T) {
	req := validRequest()
	req.PackageDescription.MailClass = usps.MailClassPriorityMailExpress

	payload, err := newTestBuilder().Build(req)
	require.NoError(t, err)
	assert.Equal(t, usps.RateIndicator("PME"), payload.PackageDescription.RateIndicator)
}

func TestBuild_YesterdayIsAccepted(t *testing.T) {
	req := validRequest()
	req.PackageDescription.MailingDate = "2026-03-09"

	_, err := newTestBuilder().Build(req)
	assert.NoError(t, err)
}
