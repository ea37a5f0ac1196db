package copperx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second)
}

func TestRequestOTP(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/email-otp/request", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user@example.com", body["email"])

		json.NewEncoder(w).Encode(map[string]string{"email": body["email"], "sid": "sid-123"})
	})

	sid, err := c.RequestOTP(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "sid-123", sid)
}

func TestVerifyOTP(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "123456", body["otp"])
		assert.Equal(t, "sid-123", body["sid"])

		json.NewEncoder(w).Encode(AuthResult{
			Scheme:      "Bearer",
			AccessToken: "tok-abc",
			User:        AuthUser{ID: "u-1", Email: body["email"], OrganizationID: "org-9"},
		})
	})

	res, err := c.VerifyOTP(context.Background(), "user@example.com", "123456", "sid-123")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", res.AccessToken)
	assert.Equal(t, "org-9", res.User.OrganizationID)
}

func TestBearerTokenHeader(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(Profile{ID: "u-1", Email: "user@example.com"})
	})

	p, err := c.Profile(context.Background(), "tok-abc")
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.ID)
}

func TestAPIErrorFromBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"message": "Invalid OTP", "statusCode": 401})
	})

	_, err := c.VerifyOTP(context.Background(), "user@example.com", "000000", "sid-123")
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid OTP", apiErr.Message)
}

func TestAPIErrorMessageArray(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":["amount must be positive","currency is required"],"statusCode":400}`))
	})

	_, err := c.SendTransfer(context.Background(), "tok", TransferRequest{})
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "amount must be positive; currency is required", apiErr.Message)
}

func TestServerErrorGenericMessage(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Profile(context.Background(), "tok")
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Message)
}

func TestTransportErrorIsAPIError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 500*time.Millisecond)

	_, err := c.Profile(context.Background(), "tok")
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Zero(t, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Message)
}

func TestSendTransferPayload(t *testing.T) {
	var got TransferRequest
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(Transfer{ID: "tr-1", Status: "pending"})
	})

	req := TransferRequest{
		Email:       "friend@example.com",
		Amount:      "1250000000",
		Currency:    "USDC",
		PurposeCode: "self",
	}
	tr, err := c.SendTransfer(context.Background(), "tok", req)
	require.NoError(t, err)
	assert.Equal(t, "tr-1", tr.ID)
	assert.Equal(t, req, got)
}

func TestSendBulkTransfer(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/transfers/send-batch", r.URL.Path)

		var body struct {
			Requests []BulkTransferItem `json:"requests"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Requests, 2)
		assert.Equal(t, "req-1", body.Requests[0].RequestID)

		json.NewEncoder(w).Encode(BulkTransferResponse{
			Responses: []BulkTransferResult{
				{RequestID: "req-1"},
				{RequestID: "req-2"},
			},
		})
	})

	items := []BulkTransferItem{
		{RequestID: "req-1", Request: TransferRequest{Email: "a@example.com", Amount: "100000000", Currency: "USDC", PurposeCode: "self"}},
		{RequestID: "req-2", Request: TransferRequest{Email: "b@example.com", Amount: "200000000", Currency: "USDC", PurposeCode: "self"}},
	}
	res, err := c.SendBulkTransfer(context.Background(), "tok", items)
	require.NoError(t, err)
	assert.Len(t, res.Responses, 2)
}

func TestDefaultBankAccountPicksDefault(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []BankAccount{
			{ID: "ba-1", Country: "usa"},
			{ID: "ba-2", Country: "usa", IsDefault: true},
		}})
	})

	ba, err := c.DefaultBankAccount(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "ba-2", ba.ID)
}

func TestDefaultBankAccountNoneLinked(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []BankAccount{}})
	})

	_, err := c.DefaultBankAccount(context.Background(), "tok")
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestNotificationAuth(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "111.222", body["socketId"])
		assert.Equal(t, "private-org-org-9", body["channelName"])

		json.NewEncoder(w).Encode(ChannelAuth{Auth: "key:sig"})
	})

	auth, err := c.NotificationAuth(context.Background(), "tok", "111.222", "private-org-org-9")
	require.NoError(t, err)
	assert.Equal(t, "key:sig", auth.Auth)
}
