package signaling

import (
	"net/url"
	"strings"
)

const (
	rtcSegment      = "rtc"
	validateSegment = "validate"
)

// signalParams is everything that ends up in the connect URL query.
type signalParams struct {
	Token         string
	AutoSubscribe bool
	Reconnect     bool
	SDK           string
	SDKVersion    string
	Device        DeviceInfo
}

// buildConnectURL derives the websocket URL for the live connection. Building
// twice from the same inputs yields the same query set.
func buildConnectURL(rawURL string, forceSecure bool, params signalParams) (string, error) {
	return buildSignalURL(rawURL, rtcSegment, false, forceSecure, params)
}

// buildValidateURL derives the plain-HTTP sibling used to probe a server after
// a failed dial.
func buildValidateURL(rawURL string, forceSecure bool, params signalParams) (string, error) {
	return buildSignalURL(rawURL, validateSegment, true, forceSecure, params)
}

func buildSignalURL(rawURL, segment string, useHTTP, forceSecure bool, params signalParams) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	secure := forceSecure || u.Scheme == "wss" || u.Scheme == "https"
	if useHTTP {
		if secure {
			u.Scheme = "https"
		} else {
			u.Scheme = "http"
		}
	} else {
		if secure {
			u.Scheme = "wss"
		} else {
			u.Scheme = "ws"
		}
	}
	u.Path = normalizeSignalPath(u.Path, segment)

	query := url.Values{}
	query.Set("access_token", params.Token)
	if params.AutoSubscribe {
		query.Set("auto_subscribe", "1")
	} else {
		query.Set("auto_subscribe", "0")
	}
	if params.Reconnect {
		query.Set("reconnect", "1")
	}
	query.Set("protocol", protocolVersion)
	query.Set("sdk", params.SDK)
	query.Set("version", params.SDKVersion)
	setOptional(query, "os", params.Device.OS)
	setOptional(query, "os_version", params.Device.OSVersion)
	setOptional(query, "device_model", params.Device.DeviceModel)
	setOptional(query, "browser", params.Device.Browser)
	setOptional(query, "browser_version", params.Device.BrowserVersion)
	u.RawQuery = query.Encode()

	return u.String(), nil
}

// normalizeSignalPath makes the path end in exactly one reserved segment,
// stripping empty segments and an existing trailing reserved segment first.
func normalizeSignalPath(path, segment string) string {
	segments := make([]string, 0, 4)
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if n := len(segments); n > 0 && (segments[n-1] == rtcSegment || segments[n-1] == validateSegment) {
		segments = segments[:n-1]
	}
	segments = append(segments, segment)
	return "/" + strings.Join(segments, "/")
}

func setOptional(query url.Values, key, value string) {
	if value != "" {
		query.Set(key, value)
	}
}
