package signaling

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/pion/webrtc/v3"
)

// Event is implemented by every notification the signal client publishes.
// There is one event type per inbound protocol variant, plus
// ConnectionStateEvent for state transitions.
type Event interface {
	isSignalEvent()
}

// ConnectionStateEvent reports a connection state transition.
type ConnectionStateEvent struct {
	State ConnectionState
	// Reconnected is true only for a transition into connected that recovered
	// an existing session, never for a fresh connect.
	Reconnected bool
}

// JoinEvent carries the initial server handshake.
type JoinEvent struct {
	Response *JoinResponse
}

// AnswerEvent carries the server's answer to a client offer.
type AnswerEvent struct {
	Description webrtc.SessionDescription
}

// OfferEvent carries a server-initiated offer for the subscriber connection.
type OfferEvent struct {
	Description webrtc.SessionDescription
}

// TrickleEvent carries a remote ICE candidate.
type TrickleEvent struct {
	Candidate webrtc.ICECandidateInit
	Target    SignalTarget
}

// ParticipantUpdateEvent reports joined, changed or disconnected participants.
type ParticipantUpdateEvent struct {
	Participants []*ParticipantInfo
}

// LocalTrackPublishedEvent acknowledges a local track publication.
type LocalTrackPublishedEvent struct {
	Response *TrackPublishedResponse
}

// SpeakersChangedEvent reports audio activity changes.
type SpeakersChangedEvent struct {
	Speakers []*SpeakerInfo
}

// RoomUpdateEvent reports changed room metadata.
type RoomUpdateEvent struct {
	Room *Room
}

// ConnectionQualityEvent reports per-participant connection scores.
type ConnectionQualityEvent struct {
	Updates []*ConnectionQualityInfo
}

// LeaveEvent means the server ended the session.
type LeaveEvent struct {
	Request *LeaveRequest
}

// RemoteMuteEvent means the server changed the mute state of a local track.
type RemoteMuteEvent struct {
	TrackSid string
	Muted    bool
}

// StreamStateEvent reports forwarding state changes for subscribed tracks.
type StreamStateEvent struct {
	Updates []*StreamStateInfo
}

// SubscribedQualityEvent reports which simulcast tiers still have subscribers.
type SubscribedQualityEvent struct {
	Update *SubscribedQualityUpdate
}

// SubscriptionPermissionEvent reports revoked or restored track access.
type SubscriptionPermissionEvent struct {
	Update *SubscriptionPermissionUpdate
}

// TokenRefreshEvent carries a refreshed access token for future reconnects.
type TokenRefreshEvent struct {
	Token string
}

func (ConnectionStateEvent) isSignalEvent()        {}
func (JoinEvent) isSignalEvent()                   {}
func (AnswerEvent) isSignalEvent()                 {}
func (OfferEvent) isSignalEvent()                  {}
func (TrickleEvent) isSignalEvent()                {}
func (ParticipantUpdateEvent) isSignalEvent()      {}
func (LocalTrackPublishedEvent) isSignalEvent()    {}
func (SpeakersChangedEvent) isSignalEvent()        {}
func (RoomUpdateEvent) isSignalEvent()             {}
func (ConnectionQualityEvent) isSignalEvent()      {}
func (LeaveEvent) isSignalEvent()                  {}
func (RemoteMuteEvent) isSignalEvent()             {}
func (StreamStateEvent) isSignalEvent()            {}
func (SubscribedQualityEvent) isSignalEvent()      {}
func (SubscriptionPermissionEvent) isSignalEvent() {}
func (TokenRefreshEvent) isSignalEvent()           {}

const eventSubBuffer = 64

// EventStream fans typed events out to subscribers. The signal client owns the
// stream; collaborators hold only subscription handles.
type EventStream struct {
	mu     sync.Mutex
	subs   []*EventSub
	closed bool
	logger logr.Logger
}

func newEventStream(logger logr.Logger) *EventStream {
	return &EventStream{logger: logger}
}

// Observe registers a new subscriber. The returned subscription's channel is
// closed when either the subscription or the stream is closed.
func (s *EventStream) Observe() *EventSub {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &EventSub{
		ch:     make(chan Event, eventSubBuffer),
		stream: s,
	}
	if s.closed {
		close(sub.ch)
		return sub
	}
	s.subs = append(s.subs, sub)
	return sub
}

// publish delivers ev to every subscriber. A subscriber that is not draining
// its channel loses the event rather than blocking the client.
func (s *EventStream) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subs {
		select {
		case sub.ch <- ev:
		default:
			s.logger.Info("dropping event, subscriber is not keeping up", "event", fmt.Sprintf("%T", ev))
		}
	}
}

// close removes all subscribers and closes their channels.
func (s *EventStream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for _, sub := range s.subs {
		close(sub.ch)
	}
	s.subs = nil
}

func (s *EventStream) remove(sub *EventSub) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, candidate := range s.subs {
		if candidate == sub {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// EventSub is one subscriber's view of the event stream.
type EventSub struct {
	ch     chan Event
	stream *EventStream
}

// Events returns the subscription's channel. It is closed when the
// subscription or the owning stream closes.
func (s *EventSub) Events() <-chan Event {
	return s.ch
}

// Close unsubscribes. Safe to call more than once.
func (s *EventSub) Close() {
	s.stream.remove(s)
}
