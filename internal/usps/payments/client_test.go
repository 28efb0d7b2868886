package payments

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usps-gateway/internal/common/errors"
	"usps-gateway/internal/config"
	"usps-gateway/internal/testutil"
	"usps-gateway/internal/usps"
)

const authorizePath = "/payments/v3/payment-authorization"

func newTestClient(t *testing.T) (*Client, *testutil.FakeUSPS) {
	t.Helper()
	fake := testutil.NewFakeUSPS(t)
	exec := fake.NewExecutor(t, usps.FamilyPayments, testutil.NewMockTokenSource("bearer"))
	client, err := NewClient(exec, &config.Config{Account: testutil.TestAccount})
	require.NoError(t, err)
	return client, fake
}

func TestNewClient_RequiresAccount(t *testing.T) {
	fake := testutil.NewFakeUSPS(t)
	exec := fake.NewExecutor(t, usps.FamilyPayments, testutil.NewMockTokenSource("bearer"))

	_, err := NewClient(exec, &config.Config{Account: config.Account{AccountType: "EPS"}})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
	assert.Contains(t, err.Error(), "USPS_CRID")
}

func TestClient_Authorize_DefaultRoles(t *testing.T) {
	client, fake := newTestClient(t)
	fake.Handle(http.MethodPost, authorizePath, testutil.JSON(http.StatusOK, map[string]interface{}{
		"paymentAuthorizationToken": "pay-token",
	}))

	auth, err := client.Authorize(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "pay-token", auth.Token)

	reqs := fake.RequestsTo(authorizePath)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer bearer", reqs[0].Header.Get("Authorization"))

	roles := reqs[0].JSONBody(t)["roles"].([]interface{})
	require.Len(t, roles, 2)
	payer := roles[0].(map[string]interface{})
	assert.Equal(t, "PAYER", payer["roleName"])
	assert.Equal(t, "56982563", payer["CRID"])
	assert.Equal(t, "EPS", payer["accountType"])
	assert.Equal(t, "1000017562", payer["accountNumber"])
	owner := roles[1].(map[string]interface{})
	assert.Equal(t, "LABEL_OWNER", owner["roleName"])
	assert.Equal(t, "904128", owner["MID"])
	assert.Equal(t, "904128", owner["manifestMID"])
	assert.NotContains(t, owner, "accountNumber")
}

func TestClient_Authorize_CustomRolesMustIncludePayerAndOwner(t *testing.T) {
	client, fake := newTestClient(t)

	_, err := client.Authorize(context.Background(), []Role{
		{RoleName: RolePayer, CRID: "56982563", AccountType: AccountEPS, AccountNumber: "1000017562"},
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
	assert.Contains(t, err.Error(), "PAYER and LABEL_OWNER")
	assert.Empty(t, fake.Requests(), "rejected before any network call")
}

func TestValidateRoles(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		wantMsg string
	}{
		{"unknown role", Role{RoleName: "BANKER", CRID: "123"}, "roles[0].roleName"},
		{"short CRID", Role{RoleName: RolePayer, CRID: "1"}, "roles[0].CRID must be at least 2 characters"},
		{"bad account type", Role{RoleName: RolePayer, CRID: "123", AccountType: "CASH"}, "roles[0].accountType"},
		{"bad MID", Role{RoleName: RoleLabelOwner, CRID: "123", MID: "12345"}, "roles[0].MID must be exactly 6 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRoles([]Role{tt.role})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	assert.NoError(t, ValidateRoles(DefaultRoles(testutil.TestAccount)))
	assert.NoError(t, ValidateCustomRoles(ReturnLabelRoles(testutil.TestAccount)))
}

func TestReturnLabelRoles(t *testing.T) {
	roles := ReturnLabelRoles(testutil.TestAccount)
	names := make([]RoleName, len(roles))
	for i, r := range roles {
		names[i] = r.RoleName
	}
	assert.Equal(t, []RoleName{RolePayer, RoleReturnLabelPayer, RoleLabelOwner}, names)
}

func TestClient_Authorize_EmptyTokenIsAuthenticationError(t *testing.T) {
	client, fake := newTestClient(t)
	fake.Handle(http.MethodPost, authorizePath, testutil.JSON(http.StatusOK, map[string]interface{}{}))

	_, err := client.Authorize(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindAuthentication))
}

func TestClient_Authorize_RejectedIsAuthenticationError(t *testing.T) {
	client, fake := newTestClient(t)
	fake.Handle(http.MethodPost, authorizePath, testutil.JSON(http.StatusForbidden, map[string]interface{}{
		"error": map[string]interface{}{"message": "CRID not enrolled"},
	}))

	_, err := client.Authorize(context.Background(), nil)
	require.Error(t, err)
	appErr, _ := errors.As(err)
	assert.Equal(t, errors.KindAuthentication, appErr.Kind)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
	assert.Equal(t, "CRID not enrolled", appErr.Message)
	assert.Len(t, fake.RequestsTo(authorizePath), 1, "403 is not retried")
}

func TestAuthorizeHeader(t *testing.T) {
	client, fake := newTestClient(t)
	fake.Handle(http.MethodPost, authorizePath, testutil.JSON(http.StatusOK, map[string]interface{}{
		"paymentAuthorizationToken": "pay-token",
	}))

	header := http.Header{}
	require.NoError(t, AuthorizeHeader(client, nil)(context.Background(), header))
	assert.Equal(t, "pay-token", header.Get(HeaderPaymentAuthorization))
}

func TestAuthorizeHeader_SingleAttempt(t *testing.T) {
	client, fake := newTestClient(t)
	fake.Handle(http.MethodPost, authorizePath, testutil.JSON(http.StatusServiceUnavailable, map[string]interface{}{
		"error": map[string]interface{}{"message": "payments down"},
	}))

	err := AuthorizeHeader(client, nil)(context.Background(), http.Header{})
	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
	assert.Len(t, fake.RequestsTo(authorizePath), 1)

	// Direct calls keep the full policy
	_, err = client.Authorize(context.Background(), nil)
	require.Error(t, err)
	assert.Len(t, fake.RequestsTo(authorizePath), 4)
}

func TestClient_CheckAccount(t *testing.T) {
	client, fake := newTestClient(t)
	fake.Handle(http.MethodGet, "/payments/v3/payment-account/1000017562", testutil.JSON(http.StatusOK, map[string]interface{}{
		"accountNumber":   "1000017562",
		"accountType":     "PERMIT",
		"sufficientFunds": true,
	}))

	amount := 12.5
	data, err := client.CheckAccount(context.Background(), AccountQuery{
		AccountNumber: "1000017562",
		AccountType:   AccountPermit,
		Amount:        &amount,
	})
	require.NoError(t, err)
	assert.Equal(t, true, data["sufficientFunds"])

	req := fake.Requests()[0]
	assert.Equal(t, "PERMIT", req.Query["accountType"][0])
	assert.Equal(t, "12.50", req.Query["amount"][0])
	assert.Equal(t, "10001", req.Query["permitZIPCode"][0])
}

func TestClient_CheckAccount_Validation(t *testing.T) {
	client, fake := newTestClient(t)

	amount := 0.0
	_, err := client.CheckAccount(context.Background(), AccountQuery{AccountNumber: "1", AccountType: "CASH", Amount: &amount})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
	assert.Empty(t, fake.Requests())
}

func TestClient_HasSufficientFunds(t *testing.T) {
	client, fake := newTestClient(t)
	fake.Handle(http.MethodGet, "/payments/v3/payment-account/1000017562", testutil.JSON(http.StatusOK, map[string]interface{}{
		"sufficientFunds": false,
	}))

	ok, err := client.HasSufficientFunds(context.Background(), "1000017562", AccountEPS, 20)
	require.NoError(t, err)
	assert.False(t, ok)
	_, hasZIP := fake.Requests()[0].Query["permitZIPCode"]
	assert.False(t, hasZIP)
}

func TestClient_TestConnection(t *testing.T) {
	client, fake := newTestClient(t)
	fake.Handle(http.MethodPost, authorizePath, testutil.JSON(http.StatusOK, map[string]interface{}{
		"paymentAuthorizationToken": "pay-token",
	}))

	res := client.TestConnection(context.Background())
	assert.True(t, res.Success)
	assert.Equal(t, true, res.Data["payment_auth_valid"])
}
