package signaling

import (
	"reflect"
	"runtime"
	"sync"

	"github.com/imdario/mergo"
	"github.com/livemesh/signaling-go/transport"
)

// ConnectionState is the observable state of the signaling connection.
// Transitions are the only way observers learn connection status.
type ConnectionState int

const (
	ConnectionStateDisconnected ConnectionState = iota
	ConnectionStateConnecting
	ConnectionStateReconnecting
	ConnectionStateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case ConnectionStateDisconnected:
		return "disconnected"
	case ConnectionStateConnecting:
		return "connecting"
	case ConnectionStateReconnecting:
		return "reconnecting"
	case ConnectionStateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// DeviceInfo describes the host platform. Known fields are attached to the
// connect URL so the server can log client environments.
type DeviceInfo struct {
	OS             string
	OSVersion      string
	DeviceModel    string
	Browser        string
	BrowserVersion string
}

// DeviceInfoProvider resolves device metadata for the URI builder. Providers
// are expected to compute once and serve a cached value.
type DeviceInfoProvider interface {
	DeviceInfo() DeviceInfo
}

// NewRuntimeDeviceInfoProvider reports the Go runtime's view of the host.
func NewRuntimeDeviceInfoProvider() DeviceInfoProvider {
	return &runtimeDeviceInfo{}
}

type runtimeDeviceInfo struct {
	once sync.Once
	info DeviceInfo
}

func (p *runtimeDeviceInfo) DeviceInfo() DeviceInfo {
	p.once.Do(func() {
		p.info = DeviceInfo{
			OS:          runtime.GOOS,
			DeviceModel: runtime.GOARCH,
		}
	})
	return p.info
}

// ConnectOptions tune a fresh connect. Reconnects reuse the options of the
// last successful fresh connect.
type ConnectOptions struct {
	// DisableAutoSubscribe stops the server from subscribing this client to
	// every published track. Auto-subscribe is on by default.
	DisableAutoSubscribe bool

	// ForceSecure upgrades the connection to wss/https regardless of the
	// input URL's scheme.
	ForceSecure bool

	// Device supplies optional client metadata for the connect URL.
	Device DeviceInfoProvider

	// Dialer opens the signaling transport. Defaults to the websocket dialer.
	Dialer transport.Dialer
}

func defaultConnectOptions() ConnectOptions {
	return ConnectOptions{
		Dialer: transport.NewWebSocketDialer(),
	}
}

type ptrTransformers struct{}

// overwrites pointer type
func (ptrTransformers) Transformer(tp reflect.Type) func(dst, src reflect.Value) error {
	if tp.Kind() == reflect.Ptr {
		return func(dst, src reflect.Value) error {
			if !src.IsNil() {
				if dst.CanSet() {
					dst.Set(src)
				} else {
					dst = src
				}
			}
			return nil
		}
	}
	return nil
}

func override(dst, src interface{}) error {
	return mergo.Merge(dst, src,
		mergo.WithOverride,
		mergo.WithTypeCheck,
		mergo.WithTransformers(ptrTransformers{}),
	)
}
