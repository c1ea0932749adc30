package signaling

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseQuery(t *testing.T, rawURL string) url.Values {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return u.Query()
}

func TestBuildConnectURL(t *testing.T) {
	params := signalParams{
		Token:         "token",
		AutoSubscribe: true,
		SDK:           sdkName,
		SDKVersion:    Version,
	}

	connectURL, err := buildConnectURL("ws://localhost:7880", false, params)
	require.NoError(t, err)

	u, err := url.Parse(connectURL)
	require.NoError(t, err)
	assert.Equal(t, "ws", u.Scheme)
	assert.Equal(t, "/rtc", u.Path)

	query := u.Query()
	assert.Equal(t, "token", query.Get("access_token"))
	assert.Equal(t, "1", query.Get("auto_subscribe"))
	assert.Equal(t, protocolVersion, query.Get("protocol"))
	assert.Equal(t, sdkName, query.Get("sdk"))
	assert.Equal(t, Version, query.Get("version"))
	assert.False(t, query.Has("reconnect"))
	assert.False(t, query.Has("os"))
}

func TestBuildConnectURLIsDeterministic(t *testing.T) {
	params := signalParams{Token: "t", AutoSubscribe: true, SDK: sdkName, SDKVersion: Version}

	first, err := buildConnectURL("wss://host.example.com/prefix", false, params)
	require.NoError(t, err)
	second, err := buildConnectURL("wss://host.example.com/prefix", false, params)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildConnectURLSchemes(t *testing.T) {
	params := signalParams{Token: "t", SDK: sdkName, SDKVersion: Version}

	for input, want := range map[string]string{
		"ws://host":    "ws",
		"wss://host":   "wss",
		"http://host":  "ws",
		"https://host": "wss",
	} {
		connectURL, err := buildConnectURL(input, false, params)
		require.NoError(t, err)
		u, err := url.Parse(connectURL)
		require.NoError(t, err)
		assert.Equal(t, want, u.Scheme, "input %s", input)
	}

	// ForceSecure upgrades an insecure input
	connectURL, err := buildConnectURL("ws://host", true, params)
	require.NoError(t, err)
	u, err := url.Parse(connectURL)
	require.NoError(t, err)
	assert.Equal(t, "wss", u.Scheme)
}

func TestBuildConnectURLNormalizesPath(t *testing.T) {
	params := signalParams{Token: "t", SDK: sdkName, SDKVersion: Version}

	for input, want := range map[string]string{
		"ws://host":               "/rtc",
		"ws://host/":              "/rtc",
		"ws://host/rtc":           "/rtc",
		"ws://host/validate":      "/rtc",
		"ws://host//prefix//rtc":  "/prefix/rtc",
		"ws://host/prefix":        "/prefix/rtc",
		"ws://host/prefix/rtc///": "/prefix/rtc",
	} {
		connectURL, err := buildConnectURL(input, false, params)
		require.NoError(t, err)
		u, err := url.Parse(connectURL)
		require.NoError(t, err)
		assert.Equal(t, want, u.Path, "input %s", input)
	}
}

func TestBuildConnectURLReconnectAndSubscribe(t *testing.T) {
	connectURL, err := buildConnectURL("ws://host", false, signalParams{
		Token:     "t",
		Reconnect: true,
	})
	require.NoError(t, err)
	query := mustParseQuery(t, connectURL)
	assert.Equal(t, "1", query.Get("reconnect"))
	assert.Equal(t, "0", query.Get("auto_subscribe"))
}

func TestBuildConnectURLDeviceParams(t *testing.T) {
	connectURL, err := buildConnectURL("ws://host", false, signalParams{
		Token: "t",
		Device: DeviceInfo{
			OS:          "linux",
			DeviceModel: "amd64",
		},
	})
	require.NoError(t, err)
	query := mustParseQuery(t, connectURL)
	assert.Equal(t, "linux", query.Get("os"))
	assert.Equal(t, "amd64", query.Get("device_model"))
	assert.False(t, query.Has("os_version"))
	assert.False(t, query.Has("browser"))
}

func TestBuildValidateURL(t *testing.T) {
	params := signalParams{Token: "t", SDK: sdkName, SDKVersion: Version}

	for input, want := range map[string]string{
		"ws://host:7880":          "http://host:7880/validate",
		"wss://host":              "https://host/validate",
		"wss://host/prefix/rtc":   "https://host/prefix/validate",
		"ws://host/validate":      "http://host/validate",
		"https://host/prefix/rtc": "https://host/prefix/validate",
	} {
		validateURL, err := buildValidateURL(input, false, params)
		require.NoError(t, err)
		u, err := url.Parse(validateURL)
		require.NoError(t, err)
		assert.Equal(t, want, u.Scheme+"://"+u.Host+u.Path, "input %s", input)
	}
}
