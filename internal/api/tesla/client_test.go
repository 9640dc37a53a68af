package tesla

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testHost = "https://owner-api.example.com"

func newTestClient(t *testing.T, opts ...Option) (*Client, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: transport})}, opts...)
	client := NewClient(testHost, ClientCredentials{ID: "client-id", Secret: "client-secret"}, zap.NewNop(), opts...)
	return client, transport
}

func TestGetVehiclesWithoutTokenSkipsNetwork(t *testing.T) {
	client, transport := newTestClient(t)
	transport.RegisterResponder(http.MethodGet, testHost+"/api/1/vehicles",
		httpmock.NewBytesResponder(http.StatusOK, readFixture(t, "vehicles.json")))

	_, err := client.GetVehicles(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Zero(t, transport.GetTotalCallCount())
}

func TestGetVehicles(t *testing.T) {
	client, transport := newTestClient(t)
	client.SetToken(testToken)
	transport.RegisterResponder(http.MethodGet, testHost+"/api/1/vehicles",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer qts-abc", req.Header.Get("Authorization"))
			return httpmock.NewBytesResponse(http.StatusOK, readFixture(t, "vehicles.json")), nil
		})

	vehicles, err := client.GetVehicles(context.Background())
	require.NoError(t, err)
	require.Len(t, vehicles, 2)
	assert.Equal(t, int64(42), vehicles[0].ID)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestGetVehiclesSingleVehicle(t *testing.T) {
	client, transport := newTestClient(t)
	client.SetToken(testToken)
	body := `{"response":[{
		"id": 1234,
		"vehicle_id": 5678,
		"vin": "5YJ3E1EA7KF000001",
		"display_name": "Roadrunner",
		"option_codes": "AD15,MDL3",
		"access_type": "OWNER",
		"tokens": ["tok-1", "tok-2"],
		"state": "online",
		"in_service": false,
		"id_s": "1234",
		"calendar_enabled": true,
		"api_version": 36
	}],"count":1}`
	transport.RegisterResponder(http.MethodGet, testHost+"/api/1/vehicles",
		httpmock.NewStringResponder(http.StatusOK, body))

	vehicles, err := client.GetVehicles(context.Background())
	require.NoError(t, err)
	require.Len(t, vehicles, 1)

	name := "Roadrunner"
	assert.Equal(t, Vehicle{
		ID:              1234,
		VehicleID:       5678,
		VIN:             "5YJ3E1EA7KF000001",
		DisplayName:     &name,
		OptionCodes:     "AD15,MDL3",
		AccessType:      "OWNER",
		Tokens:          []string{"tok-1", "tok-2"},
		State:           "online",
		InService:       false,
		IDS:             "1234",
		CalendarEnabled: true,
		APIVersion:      36,
	}, vehicles[0])
}

func TestSharedHTTPClientLeftUnchanged(t *testing.T) {
	transport := httpmock.NewMockTransport()
	hc := &http.Client{Transport: transport, Timeout: 7 * time.Second}
	transport.RegisterResponder(http.MethodGet, testHost+"/api/1/vehicles",
		httpmock.NewBytesResponder(http.StatusOK, readFixture(t, "vehicles.json")))

	a := NewClient(testHost, ClientCredentials{}, zap.NewNop(), WithHTTPClient(hc))
	b := NewClient(testHost, ClientCredentials{}, zap.NewNop(), WithHTTPClient(hc))
	a.SetToken(testToken)
	b.SetToken(testToken)

	_, err := a.GetVehicles(context.Background())
	require.NoError(t, err)
	_, err = b.GetVehicles(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7*time.Second, hc.Timeout)
	assert.Same(t, transport, hc.Transport)
	assert.Equal(t, 2, transport.GetTotalCallCount())
}

func TestGetTokenInstallsToken(t *testing.T) {
	client, transport := newTestClient(t)
	transport.RegisterResponder(http.MethodPost, testHost+"/oauth/token",
		func(req *http.Request) (*http.Response, error) {
			assert.Empty(t, req.Header.Get("Authorization"))
			return httpmock.NewBytesResponse(http.StatusOK, readFixture(t, "token.json")), nil
		})
	transport.RegisterResponder(http.MethodGet, testHost+"/api/1/vehicles",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer qts-0123456789abcdef", req.Header.Get("Authorization"))
			return httpmock.NewBytesResponse(http.StatusOK, readFixture(t, "vehicles.json")), nil
		})

	token, err := client.GetToken(context.Background(), "me@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "qts-0123456789abcdef", token.AccessToken)
	assert.Equal(t, token, client.Token())

	_, err = client.GetVehicles(context.Background())
	require.NoError(t, err)
}

func TestGetTokenFailureKeepsPreviousToken(t *testing.T) {
	client, transport := newTestClient(t)
	client.SetToken(testToken)
	transport.RegisterResponder(http.MethodPost, testHost+"/oauth/token",
		httpmock.NewStringResponder(http.StatusUnauthorized, `{"error":"authorization_required_for_txid"}`))

	_, err := client.GetToken(context.Background(), "me@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "authorization_required_for_txid", err.Error())
	assert.Equal(t, testToken, client.Token())
}

func TestGetVehicle(t *testing.T) {
	client, transport := newTestClient(t)
	client.SetToken(testToken)
	transport.RegisterResponder(http.MethodGet, testHost+"/api/1/vehicles/42/vehicle_data",
		httpmock.NewBytesResponder(http.StatusOK, readFixture(t, "vehicle_data.json")))

	detail, err := client.GetVehicle(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "5YJ3E1EA7KF000001", detail.VIN)
	assert.True(t, detail.VehicleState.Locked)
}

func TestExecute(t *testing.T) {
	client, transport := newTestClient(t)
	client.SetToken(testToken)
	transport.RegisterResponder(http.MethodPost, testHost+"/api/1/vehicles/42/command/door_unlock",
		httpmock.NewStringResponder(http.StatusOK, `{"response":{"result":true,"reason":""}}`))

	ok, err := client.Execute(context.Background(), CommandUnlock, 42)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, transport.GetCallCountInfo()["POST "+testHost+"/api/1/vehicles/42/command/door_unlock"])
}

func TestExecuteRejected(t *testing.T) {
	client, transport := newTestClient(t)
	client.SetToken(testToken)
	transport.RegisterResponder(http.MethodPost, testHost+"/api/1/vehicles/42/command/honk_horn",
		httpmock.NewStringResponder(http.StatusOK, `{"response":{"result":false,"reason":"user_not_present"}}`))

	ok, err := client.Execute(context.Background(), CommandHonk, 42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestServerErrorIgnoresStatusCode(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusUnauthorized, http.StatusRequestTimeout} {
		client, transport := newTestClient(t)
		client.SetToken(testToken)
		transport.RegisterResponder(http.MethodGet, testHost+"/api/1/vehicles",
			httpmock.NewStringResponder(status, `{"error":"invalid token"}`))

		_, err := client.GetVehicles(context.Background())
		require.Error(t, err)
		assert.Equal(t, KindServer, KindOf(err))
		assert.Equal(t, "invalid token", err.Error())
		assert.False(t, IsVehicleUnavailable(err))
	}
}

func TestVehicleUnavailableServerError(t *testing.T) {
	client, transport := newTestClient(t)
	client.SetToken(testToken)
	transport.RegisterResponder(http.MethodGet, testHost+"/api/1/vehicles/42/vehicle_data",
		httpmock.NewStringResponder(http.StatusRequestTimeout, `{"error":"vehicle unavailable: {:error=>\"vehicle unavailable:\"}"}`))

	_, err := client.GetVehicle(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, IsVehicleUnavailable(err))
	assert.ErrorIs(t, err, ErrVehicleUnavailable)
}

func TestDecodingError(t *testing.T) {
	client, transport := newTestClient(t)
	client.SetToken(testToken)
	transport.RegisterResponder(http.MethodGet, testHost+"/api/1/vehicles",
		httpmock.NewStringResponder(http.StatusBadGateway, `<html>bad gateway</html>`))

	_, err := client.GetVehicles(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindDecoding, KindOf(err))
}

func TestNetworkError(t *testing.T) {
	client, transport := newTestClient(t)
	client.SetToken(testToken)
	cause := errors.New("connection reset by peer")
	transport.RegisterResponder(http.MethodGet, testHost+"/api/1/vehicles", httpmock.NewErrorResponder(cause))

	_, err := client.GetVehicles(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.ErrorIs(t, err, cause)
}

func TestLogoutClearsToken(t *testing.T) {
	client, _ := newTestClient(t)
	client.SetToken(testToken)
	client.SetToken(nil)

	_, err := client.Execute(context.Background(), CommandLock, 42)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSharedTokenStore(t *testing.T) {
	store := NewMemoryTokenStore()
	client, _ := newTestClient(t, WithTokenStore(store))

	store.SetToken(testToken)
	assert.Equal(t, testToken, client.Token())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	client, transport := newTestClient(t, WithMetrics(NewMetrics(reg)))
	client.SetToken(testToken)
	transport.RegisterResponder(http.MethodPost, testHost+"/api/1/vehicles/42/command/flash_lights",
		httpmock.NewStringResponder(http.StatusOK, `{"response":{"result":true,"reason":""}}`))
	transport.RegisterResponder(http.MethodPost, testHost+"/api/1/vehicles/42/command/door_lock",
		httpmock.NewStringResponder(http.StatusOK, `{"error":"vehicle unavailable"}`))

	_, err := client.Execute(context.Background(), CommandFlash, 42)
	require.NoError(t, err)
	_, err = client.Execute(context.Background(), CommandLock, 42)
	require.Error(t, err)

	m := client.metrics
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("flash_lights", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("door_lock", "server")))
}
