package intl

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usps-gateway/internal/common/errors"
	"usps-gateway/internal/common/utils"
	"usps-gateway/internal/config"
	"usps-gateway/internal/testutil"
	"usps-gateway/internal/usps"
	"usps-gateway/internal/usps/payments"
)

const (
	authorizePath = "/payments/v3/payment-authorization"
	labelPath     = "/international-labels/v3/international-label"
	intlMetadata  = `{"internationalTrackingNumber":"LX123456789US","postage":42.1}`
)

func newTestClient(t *testing.T) (*Client, *testutil.FakeUSPS) {
	t.Helper()
	fake := testutil.NewFakeUSPS(t)
	tokens := testutil.NewMockTokenSource("bearer")
	cfg := &config.Config{Account: testutil.TestAccount}

	pay, err := payments.NewClient(fake.NewExecutor(t, usps.FamilyPayments, tokens), cfg)
	require.NoError(t, err)
	client, err := NewClient(fake.NewExecutor(t, usps.FamilyInternationalLabels, tokens), pay, cfg)
	require.NoError(t, err)

	fake.Handle(http.MethodPost, authorizePath, testutil.JSON(http.StatusOK, map[string]interface{}{
		"paymentAuthorizationToken": "pay-token",
	}))
	return client, fake
}

func liveRequest() LabelRequest {
	req := sampleRequest()
	req.PackageDescription.MailingDate = utils.MailingDate(utils.SystemClock{}, 1)
	return req
}

func TestClient_CreateLabel(t *testing.T) {
	client, fake := newTestClient(t)
	fake.Handle(http.MethodPost, labelPath, testutil.Multipart(t, http.StatusOK,
		testutil.Part{Name: "labelMetadata", Content: []byte(intlMetadata)},
		testutil.Part{Name: "labelImage.pdf", Content: testutil.PDFBytes},
	))

	res, err := client.CreateLabel(context.Background(), liveRequest())
	require.NoError(t, err)
	assert.Equal(t, "LX123456789US", res.TrackingNumber)
	assert.Equal(t, 42.1, res.Postage)
	assert.True(t, res.IsPDF())

	req := fake.RequestsTo(labelPath)[0]
	assert.Equal(t, "pay-token", req.Header.Get(payments.HeaderPaymentAuthorization))
	body := req.JSONBody(t)
	assert.Equal(t, "CA", body["toAddress"].(map[string]interface{})["countryISOAlpha2Code"])
	customs := body["customsForm"].(map[string]interface{})
	item := customs["contents"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "US", item["countryofOrigin"])
	assert.Equal(t, "lb", item["weightUOM"])
	assert.NotContains(t, body, "payerCRID")
}

func TestClient_CreateLabel_MissingMetadata(t *testing.T) {
	client, fake := newTestClient(t)
	fake.Handle(http.MethodPost, labelPath, testutil.JSON(http.StatusOK, map[string]interface{}{"labelImage": "x"}))

	_, err := client.CreateLabel(context.Background(), liveRequest())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindResponseParse))
}

func TestClient_CreateLabel_ValidationBeforeIO(t *testing.T) {
	client, fake := newTestClient(t)
	req := liveRequest()
	req.CustomsForm.CustomsContentType = ContentDangerousGoods

	_, err := client.CreateLabel(context.Background(), req)
	require.Error(t, err)
	appErr, _ := errors.As(err)
	assert.Equal(t, "intl.create", appErr.Operation)
	assert.Empty(t, fake.Requests())
}

func TestClient_ReprintLabel(t *testing.T) {
	client, fake := newTestClient(t)
	path := "/international-labels/v3/international-label-reprint/LX123456789US"
	fake.Handle(http.MethodPost, path, testutil.Multipart(t, http.StatusOK,
		testutil.Part{Name: "labelImage", Content: testutil.PDFBytes},
	))

	res, err := client.ReprintLabel(context.Background(), "LX123456789US", ImageInfo{ImageType: usps.ImageTypeTIFF})
	require.NoError(t, err)
	assert.Equal(t, "LX123456789US", res.TrackingNumber)

	info := fake.RequestsTo(path)[0].JSONBody(t)["imageInfo"].(map[string]interface{})
	assert.Equal(t, "TIFF", info["imageType"])
	assert.Equal(t, "4X6LABEL", info["labelType"])
}

func TestClient_ReprintLabel_RejectsLabelBroker(t *testing.T) {
	client, fake := newTestClient(t)

	_, err := client.ReprintLabel(context.Background(), "LX123456789US", ImageInfo{ImageType: usps.ImageTypeLabelBroker})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid reprint data")
	assert.Empty(t, fake.Requests())
}

func TestClient_CancelLabel(t *testing.T) {
	client, fake := newTestClient(t)
	fake.Handle(http.MethodDelete, "/international-labels/v3/international-label/LX123456789US",
		testutil.JSON(http.StatusOK, map[string]interface{}{"status": "CANCELED"}))

	data, err := client.CancelLabel(context.Background(), "LX123456789US")
	require.NoError(t, err)
	assert.Equal(t, "CANCELED", data["status"])

	_, err = client.CancelLabel(context.Background(), "9205500000000000000000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly 13 characters")
}

func TestClient_CreateSimpleInternationalLabel(t *testing.T) {
	client, fake := newTestClient(t)
	fake.Handle(http.MethodPost, labelPath, testutil.Multipart(t, http.StatusOK,
		testutil.Part{Name: "labelMetadata", Content: []byte(intlMetadata)},
	))

	to := torontoAddress()
	to.FirstName, to.LastName = "", ""
	_, err := client.CreateSimpleInternationalLabel(context.Background(), testutil.SenderAddress(), to, 2, sampleCustoms(), SimpleOptions{})
	require.NoError(t, err)

	body := fake.RequestsTo(labelPath)[0].JSONBody(t)
	pkg := body["packageDescription"].(map[string]interface{})
	assert.Equal(t, "PRIORITY_MAIL_INTERNATIONAL", pkg["mailClass"])
	assert.Equal(t, "SP", pkg["rateIndicator"])
	assert.Equal(t, "Recipient", body["toAddress"].(map[string]interface{})["firstName"])
}

func TestClient_TestConnection(t *testing.T) {
	client, _ := newTestClient(t)

	res := client.TestConnection(context.Background())
	require.True(t, res.Success)
	assert.Equal(t, "USPS International Labels API connection successful", res.Data["message"])
}
