// Package signaling implements the control-plane client of a real-time media
// session: it negotiates and maintains the signaling connection to the media
// server, exchanges session descriptions and ICE candidates, and computes the
// simulcast encoding layout for published video.
package signaling

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	goversion "github.com/hashicorp/go-version"
	"github.com/pion/webrtc/v3"

	"github.com/livemesh/signaling-go/transport"
)

const (
	// protocolVersion is the signaling protocol revision this client speaks.
	protocolVersion = "8"

	sdkName = "go"

	// Version is the SDK version reported to the server on connect.
	Version = "0.11.0"

	// minServerVersion is the oldest server this client is known to work with.
	minServerVersion = "0.15.2"
)

// SignalClient owns one logical signaling connection. It drives the
// connection state machine, serializes the request protocol, and republishes
// every inbound message as a typed event on its stream.
//
// At most one transport is active at a time: any prior transport is torn down
// before a new one is opened.
type SignalClient struct {
	logger logr.Logger
	events *EventStream

	mu           sync.Mutex
	state        ConnectionState
	transport    transport.Transport
	reconnecting bool
	closed       bool
	opts         ConnectOptions
}

func NewSignalClient() *SignalClient {
	logger := NewLogger("SignalClient")
	return &SignalClient{
		logger: logger,
		events: newEventStream(logger),
		state:  ConnectionStateDisconnected,
	}
}

// Observe subscribes to the client's event stream.
func (c *SignalClient) Observe() *EventSub {
	return c.events.Observe()
}

// State returns the current connection state.
func (c *SignalClient) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect opens a fresh signaling connection. opts may be nil; omitted fields
// fall back to defaults. If the transport handshake fails, the server is
// probed over plain HTTP to attach a better diagnostic to the returned error.
func (c *SignalClient) Connect(ctx context.Context, url, token string, opts *ConnectOptions) error {
	return c.join(ctx, url, token, opts, false)
}

// Reconnect resumes an existing logical session after transport loss, reusing
// the options of the last fresh connect. Validation fallback is skipped and a
// failed dial returns the raw transport error.
func (c *SignalClient) Reconnect(ctx context.Context, url, token string) error {
	return c.join(ctx, url, token, nil, true)
}

func (c *SignalClient) join(ctx context.Context, rawURL, token string, opts *ConnectOptions, reconnect bool) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	if !reconnect {
		merged := defaultConnectOptions()
		if opts != nil {
			if err := override(&merged, *opts); err != nil {
				c.mu.Unlock()
				return err
			}
		}
		c.opts = merged
	} else if c.opts.Dialer == nil {
		c.opts = defaultConnectOptions()
	}
	options := c.opts
	c.reconnecting = reconnect
	c.mu.Unlock()

	if reconnect {
		c.updateState(ConnectionStateReconnecting)
	} else {
		c.updateState(ConnectionStateConnecting)
	}

	// at most one active transport
	c.closeTransport()

	params := signalParams{
		Token:         token,
		AutoSubscribe: !options.DisableAutoSubscribe,
		Reconnect:     reconnect,
		SDK:           sdkName,
		SDKVersion:    Version,
	}
	if options.Device != nil {
		params.Device = options.Device.DeviceInfo()
	}
	connectURL, err := buildConnectURL(rawURL, options.ForceSecure, params)
	if err != nil {
		c.connectFailed()
		return err
	}

	logger := c.logger.WithValues("connectionID", uuid.NewString())
	logger.V(1).Info("connecting to signaling server", "url", rawURL, "reconnect", reconnect)

	handler := &transportHandler{client: c}
	t, dialErr := options.Dialer.Dial(ctx, connectURL, handler)
	if dialErr != nil {
		defer c.connectFailed()
		if reconnect {
			// skip fallback diagnostics, latency matters more mid-reconnect
			return dialErr
		}
		return c.validateConnection(ctx, rawURL, options, params, dialErr)
	}
	handler.transport = t

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		t.Close()
		return ErrClientClosed
	}
	c.transport = t
	c.reconnecting = false
	c.mu.Unlock()

	c.updateState(ConnectionStateConnected)
	t.Start()
	logger.V(1).Info("signaling connection established")
	return nil
}

// connectFailed restores a consistent observable state after any connect-time
// failure, whichever branch failed.
func (c *SignalClient) connectFailed() {
	c.mu.Lock()
	c.reconnecting = false
	c.mu.Unlock()
	c.updateState(ConnectionStateDisconnected)
}

// validateConnection probes the validate endpoint to tell a
// reachable-but-rejecting server apart from an unreachable one. It always
// returns an error: the HTTP roundtrip only selects the diagnostic payload.
func (c *SignalClient) validateConnection(ctx context.Context, rawURL string, options ConnectOptions, params signalParams, dialErr error) error {
	validateURL, err := buildValidateURL(rawURL, options.ForceSecure, params)
	if err != nil {
		return &ConnectionUnreachableError{cause: dialErr}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, validateURL, nil)
	if err != nil {
		return &ConnectionUnreachableError{cause: dialErr}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return &ConnectionUnreachableError{cause: dialErr}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &ConnectionValidationError{Status: resp.StatusCode, Reason: string(body)}
	}
	return &ConnectionUnreachableError{cause: dialErr}
}

// Disconnect tears down the active transport and moves the client to
// disconnected. Unlike Close, the client can connect again afterwards.
func (c *SignalClient) Disconnect() {
	c.closeTransport()
	c.updateState(ConnectionStateDisconnected)
}

// Close disposes the client: all event subscribers are unsubscribed, the
// transport is torn down, and further connects are rejected. Safe to call
// more than once.
func (c *SignalClient) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.state = ConnectionStateDisconnected
	t := c.transport
	c.transport = nil
	c.mu.Unlock()

	c.events.close()
	if t != nil {
		t.Close()
	}
	c.logger.V(1).Info("signal client closed")
}

func (c *SignalClient) closeTransport() {
	c.mu.Lock()
	t := c.transport
	c.transport = nil
	c.mu.Unlock()
	if t != nil {
		t.Close()
	}
}

// updateState publishes a state transition. Updating to the current state is
// a no-op so transport callbacks and API calls can interleave safely.
func (c *SignalClient) updateState(state ConnectionState) {
	c.mu.Lock()
	if c.closed || c.state == state {
		c.mu.Unlock()
		return
	}
	prev := c.state
	c.state = state
	c.mu.Unlock()

	reconnected := state == ConnectionStateConnected && prev == ConnectionStateReconnecting
	c.logger.V(1).Info("connection state updated", "state", state.String(), "reconnected", reconnected)
	c.events.publish(ConnectionStateEvent{State: state, Reconnected: reconnected})
}

// SendOffer sends a publisher session description.
func (c *SignalClient) SendOffer(sd webrtc.SessionDescription) {
	c.sendRequest(&signalRequest{Offer: &sd})
}

// SendAnswer answers a server-initiated offer.
func (c *SignalClient) SendAnswer(sd webrtc.SessionDescription) {
	c.sendRequest(&signalRequest{Answer: &sd})
}

// SendTrickle sends a local ICE candidate.
func (c *SignalClient) SendTrickle(candidate webrtc.ICECandidateInit, target SignalTarget) {
	c.sendRequest(&signalRequest{Trickle: &TrickleRequest{Candidate: candidate, Target: target}})
}

// SendMuteTrack changes the mute state of a published track.
func (c *SignalClient) SendMuteTrack(sid string, muted bool) {
	c.sendRequest(&signalRequest{Mute: &MuteTrackRequest{Sid: sid, Muted: muted}})
}

// SendAddTrack announces a local track. A missing Cid is filled in with a
// generated one.
func (c *SignalClient) SendAddTrack(req *AddTrackRequest) {
	if req.Cid == "" {
		req.Cid = uuid.NewString()
	}
	c.sendRequest(&signalRequest{AddTrack: req})
}

// SendUpdateTrackSettings tunes delivery of subscribed tracks.
func (c *SignalClient) SendUpdateTrackSettings(settings *UpdateTrackSettings) {
	c.sendRequest(&signalRequest{TrackSettings: settings})
}

// SendUpdateSubscription subscribes to or unsubscribes from tracks.
func (c *SignalClient) SendUpdateSubscription(subscription *UpdateSubscription) {
	c.sendRequest(&signalRequest{Subscription: subscription})
}

// SendUpdateVideoLayers reports changed simulcast layers of a published track.
func (c *SignalClient) SendUpdateVideoLayers(trackSid string, layers []*VideoLayer) {
	c.sendRequest(&signalRequest{UpdateLayers: &UpdateVideoLayers{TrackSid: trackSid, Layers: layers}})
}

// SendUpdateSubscriptionPermissions restricts who may subscribe to local
// tracks.
func (c *SignalClient) SendUpdateSubscriptionPermissions(permissions *SubscriptionPermission) {
	c.sendRequest(&signalRequest{SubscriptionPermissions: permissions})
}

// SendLeave says goodbye before a graceful disconnect.
func (c *SignalClient) SendLeave() {
	c.sendRequest(&signalRequest{Leave: &LeaveRequest{}})
}

// SendSyncState resynchronizes the server after a resumed connection.
func (c *SignalClient) SendSyncState(state *SyncState) {
	c.sendRequest(&signalRequest{SyncState: state})
}

// SendSimulateScenario asks the server to fake a failure mode.
func (c *SignalClient) SendSimulateScenario(scenario *SimulateScenario) {
	c.sendRequest(&signalRequest{Simulate: scenario})
}

// sendRequest serializes one request variant and hands it to the transport.
// Failures are logged, never returned: callers observe transport health only
// through connection-state events.
func (c *SignalClient) sendRequest(req *signalRequest) {
	c.mu.Lock()
	t := c.transport
	closed := c.closed
	c.mu.Unlock()

	if closed || t == nil {
		c.logger.V(1).Info("dropping signal request, no open transport", "request", req.kind())
		return
	}
	payload, err := json.Marshal(req)
	if err != nil {
		c.logger.Error(err, "failed to marshal signal request", "request", req.kind())
		return
	}
	if err = t.Send(payload); err != nil {
		c.logger.Error(err, "failed to send signal request", "request", req.kind())
	}
}

// handleMessage decodes one inbound frame and republishes it as a typed
// event. Unrecognized variants are logged, not raised.
func (c *SignalClient) handleMessage(payload []byte) {
	var res signalResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		c.logger.Error(err, "failed to decode signal response")
		return
	}
	ev, ok := res.event()
	if !ok {
		c.logger.Info("received signal response with no recognized variant")
		return
	}
	if join, isJoin := ev.(JoinEvent); isJoin {
		c.checkServerVersion(join.Response)
	}
	c.events.publish(ev)
}

func (c *SignalClient) checkServerVersion(join *JoinResponse) {
	if join == nil || join.ServerVersion == "" {
		return
	}
	server, err := goversion.NewVersion(join.ServerVersion)
	if err != nil {
		c.logger.V(1).Info("could not parse server version", "version", join.ServerVersion)
		return
	}
	if server.LessThan(goversion.Must(goversion.NewVersion(minServerVersion))) {
		c.logger.Info("server version is below the minimum supported, some features will not work",
			"serverVersion", join.ServerVersion, "minVersion", minServerVersion)
	}
}

// handleTransportClose reacts to a transport stopping. Stale transports (ones
// already replaced or torn down) are ignored, and no disconnected event is
// raised while a reconnect attempt is negotiating a replacement.
func (c *SignalClient) handleTransportClose(t transport.Transport) {
	c.mu.Lock()
	if c.closed || c.transport != t {
		c.mu.Unlock()
		return
	}
	c.transport = nil
	reconnecting := c.reconnecting
	c.mu.Unlock()

	c.logger.V(1).Info("signal transport closed")
	if reconnecting {
		return
	}
	c.updateState(ConnectionStateDisconnected)
}

// transportHandler routes one transport's callbacks to the client. The
// transport field is set before Start, so callbacks always see it.
type transportHandler struct {
	client    *SignalClient
	transport transport.Transport
}

func (h *transportHandler) HandleMessage(payload []byte) {
	h.client.handleMessage(payload)
}

func (h *transportHandler) HandleError(err error) {
	h.client.logger.Error(err, "signal transport error")
}

func (h *transportHandler) HandleClose() {
	h.client.handleTransportClose(h.transport)
}
