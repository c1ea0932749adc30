package signaling

import (
	"github.com/pion/webrtc/v3"
)

// SignalTarget selects which peer connection a signaling message applies to.
type SignalTarget string

const (
	SignalTargetPublisher  SignalTarget = "publisher"
	SignalTargetSubscriber SignalTarget = "subscriber"
)

// TrackType is the media kind of a track.
type TrackType string

const (
	TrackType_Audio TrackType = "audio"
	TrackType_Video TrackType = "video"
	TrackType_Data  TrackType = "data"
)

// TrackSource tells the server where a published track comes from.
type TrackSource string

const (
	TrackSource_Unknown          TrackSource = "unknown"
	TrackSource_Camera           TrackSource = "camera"
	TrackSource_Microphone       TrackSource = "microphone"
	TrackSource_ScreenShare      TrackSource = "screen_share"
	TrackSource_ScreenShareAudio TrackSource = "screen_share_audio"
)

// VideoQuality identifies one simulcast tier.
type VideoQuality string

const (
	VideoQuality_Off    VideoQuality = "off"
	VideoQuality_Low    VideoQuality = "low"
	VideoQuality_Medium VideoQuality = "medium"
	VideoQuality_High   VideoQuality = "high"
)

// ConnectionQuality is the server's score bucket for a participant connection.
type ConnectionQuality string

const (
	ConnectionQuality_Poor      ConnectionQuality = "poor"
	ConnectionQuality_Good      ConnectionQuality = "good"
	ConnectionQuality_Excellent ConnectionQuality = "excellent"
)

// StreamState reports whether the server is forwarding a subscribed track.
type StreamState string

const (
	StreamState_Active StreamState = "active"
	StreamState_Paused StreamState = "paused"
)

// ParticipantState is the lifecycle state of a participant on the server.
type ParticipantState string

const (
	ParticipantState_Joining      ParticipantState = "joining"
	ParticipantState_Joined       ParticipantState = "joined"
	ParticipantState_Active       ParticipantState = "active"
	ParticipantState_Disconnected ParticipantState = "disconnected"
)

// signalRequest is the outbound side of the wire protocol. Exactly one field
// is set per message.
type signalRequest struct {
	Offer                   *webrtc.SessionDescription `json:"offer,omitempty"`
	Answer                  *webrtc.SessionDescription `json:"answer,omitempty"`
	Trickle                 *TrickleRequest            `json:"trickle,omitempty"`
	Mute                    *MuteTrackRequest          `json:"mute,omitempty"`
	AddTrack                *AddTrackRequest           `json:"addTrack,omitempty"`
	TrackSettings           *UpdateTrackSettings       `json:"trackSettings,omitempty"`
	Subscription            *UpdateSubscription        `json:"subscription,omitempty"`
	UpdateLayers            *UpdateVideoLayers         `json:"updateLayers,omitempty"`
	SubscriptionPermissions *SubscriptionPermission    `json:"subscriptionPermissions,omitempty"`
	Leave                   *LeaveRequest              `json:"leave,omitempty"`
	SyncState               *SyncState                 `json:"syncState,omitempty"`
	Simulate                *SimulateScenario          `json:"simulate,omitempty"`
}

// kind names the active variant for logging.
func (r *signalRequest) kind() string {
	switch {
	case r.Offer != nil:
		return "offer"
	case r.Answer != nil:
		return "answer"
	case r.Trickle != nil:
		return "trickle"
	case r.Mute != nil:
		return "mute"
	case r.AddTrack != nil:
		return "addTrack"
	case r.TrackSettings != nil:
		return "trackSettings"
	case r.Subscription != nil:
		return "subscription"
	case r.UpdateLayers != nil:
		return "updateLayers"
	case r.SubscriptionPermissions != nil:
		return "subscriptionPermissions"
	case r.Leave != nil:
		return "leave"
	case r.SyncState != nil:
		return "syncState"
	case r.Simulate != nil:
		return "simulate"
	default:
		return "notSet"
	}
}

// signalResponse is the inbound side of the wire protocol. At most one field
// is set per message; an empty union is logged and dropped by the client.
type signalResponse struct {
	Join                         *JoinResponse                 `json:"join,omitempty"`
	Answer                       *webrtc.SessionDescription    `json:"answer,omitempty"`
	Offer                        *webrtc.SessionDescription    `json:"offer,omitempty"`
	Trickle                      *TrickleRequest               `json:"trickle,omitempty"`
	Update                       *ParticipantUpdate            `json:"update,omitempty"`
	TrackPublished               *TrackPublishedResponse       `json:"trackPublished,omitempty"`
	SpeakersChanged              *SpeakersChanged              `json:"speakersChanged,omitempty"`
	RoomUpdate                   *RoomUpdate                   `json:"roomUpdate,omitempty"`
	ConnectionQuality            *ConnectionQualityUpdate      `json:"connectionQuality,omitempty"`
	Leave                        *LeaveRequest                 `json:"leave,omitempty"`
	Mute                         *MuteTrackRequest             `json:"mute,omitempty"`
	StreamStateUpdate            *StreamStateUpdate            `json:"streamStateUpdate,omitempty"`
	SubscribedQualityUpdate      *SubscribedQualityUpdate      `json:"subscribedQualityUpdate,omitempty"`
	SubscriptionPermissionUpdate *SubscriptionPermissionUpdate `json:"subscriptionPermissionUpdate,omitempty"`
	RefreshToken                 string                        `json:"refreshToken,omitempty"`
}

// event maps the active variant to its typed event. ok is false when no known
// variant is set.
func (r *signalResponse) event() (ev Event, ok bool) {
	switch {
	case r.Join != nil:
		return JoinEvent{Response: r.Join}, true
	case r.Answer != nil:
		return AnswerEvent{Description: *r.Answer}, true
	case r.Offer != nil:
		return OfferEvent{Description: *r.Offer}, true
	case r.Trickle != nil:
		return TrickleEvent{Candidate: r.Trickle.Candidate, Target: r.Trickle.Target}, true
	case r.Update != nil:
		return ParticipantUpdateEvent{Participants: r.Update.Participants}, true
	case r.TrackPublished != nil:
		return LocalTrackPublishedEvent{Response: r.TrackPublished}, true
	case r.SpeakersChanged != nil:
		return SpeakersChangedEvent{Speakers: r.SpeakersChanged.Speakers}, true
	case r.RoomUpdate != nil:
		return RoomUpdateEvent{Room: r.RoomUpdate.Room}, true
	case r.ConnectionQuality != nil:
		return ConnectionQualityEvent{Updates: r.ConnectionQuality.Updates}, true
	case r.Leave != nil:
		return LeaveEvent{Request: r.Leave}, true
	case r.Mute != nil:
		return RemoteMuteEvent{TrackSid: r.Mute.Sid, Muted: r.Mute.Muted}, true
	case r.StreamStateUpdate != nil:
		return StreamStateEvent{Updates: r.StreamStateUpdate.StreamStates}, true
	case r.SubscribedQualityUpdate != nil:
		return SubscribedQualityEvent{Update: r.SubscribedQualityUpdate}, true
	case r.SubscriptionPermissionUpdate != nil:
		return SubscriptionPermissionEvent{Update: r.SubscriptionPermissionUpdate}, true
	case r.RefreshToken != "":
		return TokenRefreshEvent{Token: r.RefreshToken}, true
	default:
		return nil, false
	}
}

// TrickleRequest carries one ICE candidate for the given peer connection.
type TrickleRequest struct {
	Candidate webrtc.ICECandidateInit `json:"candidate"`
	Target    SignalTarget            `json:"target,omitempty"`
}

// MuteTrackRequest changes the mute state of a published track.
type MuteTrackRequest struct {
	Sid   string `json:"sid"`
	Muted bool   `json:"muted"`
}

// AddTrackRequest announces a local track before it is offered on the peer
// connection. For simulcast video, Layers describes every published layer.
type AddTrackRequest struct {
	// Cid is the client-generated id used to correlate the published track.
	Cid        string        `json:"cid"`
	Name       string        `json:"name,omitempty"`
	Type       TrackType     `json:"type"`
	Width      uint32        `json:"width,omitempty"`
	Height     uint32        `json:"height,omitempty"`
	Muted      bool          `json:"muted,omitempty"`
	DisableDtx bool          `json:"disableDtx,omitempty"`
	Source     TrackSource   `json:"source,omitempty"`
	Layers     []*VideoLayer `json:"layers,omitempty"`
}

// UpdateTrackSettings tells the server how a subscribed track should be
// delivered.
type UpdateTrackSettings struct {
	TrackSids []string     `json:"trackSids"`
	Disabled  bool         `json:"disabled,omitempty"`
	Quality   VideoQuality `json:"quality,omitempty"`
	Width     uint32       `json:"width,omitempty"`
	Height    uint32       `json:"height,omitempty"`
}

// UpdateSubscription subscribes to or unsubscribes from the listed tracks.
type UpdateSubscription struct {
	TrackSids         []string             `json:"trackSids"`
	Subscribe         bool                 `json:"subscribe"`
	ParticipantTracks []*ParticipantTracks `json:"participantTracks,omitempty"`
}

// ParticipantTracks pairs a participant with a subset of its tracks.
type ParticipantTracks struct {
	ParticipantSid string   `json:"participantSid"`
	TrackSids      []string `json:"trackSids,omitempty"`
}

// UpdateVideoLayers reports changed simulcast layers for a published track.
type UpdateVideoLayers struct {
	TrackSid string        `json:"trackSid"`
	Layers   []*VideoLayer `json:"layers"`
}

// SubscriptionPermission restricts who may subscribe to the sender's tracks.
type SubscriptionPermission struct {
	AllParticipants  bool               `json:"allParticipants,omitempty"`
	TrackPermissions []*TrackPermission `json:"trackPermissions,omitempty"`
}

// TrackPermission grants a single participant access to all or some tracks.
type TrackPermission struct {
	ParticipantSid string   `json:"participantSid"`
	AllTracks      bool     `json:"allTracks,omitempty"`
	TrackSids      []string `json:"trackSids,omitempty"`
}

// LeaveRequest ends the session. Servers send it to evict a client; clients
// send it for a graceful goodbye.
type LeaveRequest struct {
	CanReconnect bool `json:"canReconnect,omitempty"`
}

// SyncState resynchronizes the server's view after a resumed connection.
type SyncState struct {
	Answer        *webrtc.SessionDescription `json:"answer,omitempty"`
	Subscription  *UpdateSubscription        `json:"subscription,omitempty"`
	PublishTracks []*TrackPublishedResponse  `json:"publishTracks,omitempty"`
}

// SimulateScenario asks the server to fake a failure mode, for testing.
// Exactly one field is set.
type SimulateScenario struct {
	SpeakerUpdate *int32 `json:"speakerUpdate,omitempty"`
	NodeFailure   *bool  `json:"nodeFailure,omitempty"`
	Migration     *bool  `json:"migration,omitempty"`
	ServerLeave   *bool  `json:"serverLeave,omitempty"`
}

// JoinResponse is the first message received on a fresh connection.
type JoinResponse struct {
	Room              *Room              `json:"room,omitempty"`
	Participant       *ParticipantInfo   `json:"participant,omitempty"`
	OtherParticipants []*ParticipantInfo `json:"otherParticipants,omitempty"`
	ServerVersion     string             `json:"serverVersion,omitempty"`
	IceServers        []*ICEServer       `json:"iceServers,omitempty"`
	// SubscriberPrimary is true when the subscriber connection is the primary
	// peer connection and the server sends the initial offer.
	SubscriberPrimary bool   `json:"subscriberPrimary,omitempty"`
	AlternativeUrl    string `json:"alternativeUrl,omitempty"`
}

// ICEServer mirrors an RTCIceServer entry handed out by the server.
type ICEServer struct {
	Urls       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// Room describes the room the session joined.
type Room struct {
	Sid             string `json:"sid"`
	Name            string `json:"name"`
	EmptyTimeout    uint32 `json:"emptyTimeout,omitempty"`
	MaxParticipants uint32 `json:"maxParticipants,omitempty"`
	CreationTime    int64  `json:"creationTime,omitempty"`
	Metadata        string `json:"metadata,omitempty"`
	NumParticipants uint32 `json:"numParticipants,omitempty"`
	ActiveRecording bool   `json:"activeRecording,omitempty"`
}

// ParticipantInfo is the server's record of a participant.
type ParticipantInfo struct {
	Sid         string                 `json:"sid"`
	Identity    string                 `json:"identity"`
	State       ParticipantState       `json:"state,omitempty"`
	Tracks      []*TrackInfo           `json:"tracks,omitempty"`
	Metadata    string                 `json:"metadata,omitempty"`
	JoinedAt    int64                  `json:"joinedAt,omitempty"`
	Version     uint32                 `json:"version,omitempty"`
	Permission  *ParticipantPermission `json:"permission,omitempty"`
	IsPublisher bool                   `json:"isPublisher,omitempty"`
}

// ParticipantPermission is the set of actions a participant may perform.
type ParticipantPermission struct {
	CanSubscribe   bool `json:"canSubscribe,omitempty"`
	CanPublish     bool `json:"canPublish,omitempty"`
	CanPublishData bool `json:"canPublishData,omitempty"`
	Hidden         bool `json:"hidden,omitempty"`
	Recorder       bool `json:"recorder,omitempty"`
}

// TrackInfo is the server's record of a published track.
type TrackInfo struct {
	Sid        string        `json:"sid"`
	Type       TrackType     `json:"type"`
	Name       string        `json:"name,omitempty"`
	Muted      bool          `json:"muted,omitempty"`
	Width      uint32        `json:"width,omitempty"`
	Height     uint32        `json:"height,omitempty"`
	Simulcast  bool          `json:"simulcast,omitempty"`
	DisableDtx bool          `json:"disableDtx,omitempty"`
	Source     TrackSource   `json:"source,omitempty"`
	Layers     []*VideoLayer `json:"layers,omitempty"`
	Mid        string        `json:"mid,omitempty"`
}

// VideoLayer is the wire-level description of one simulcast layer.
type VideoLayer struct {
	Quality VideoQuality `json:"quality"`
	Width   uint32       `json:"width"`
	Height  uint32       `json:"height"`
	Bitrate uint32       `json:"bitrate,omitempty"`
	Ssrc    uint32       `json:"ssrc,omitempty"`
}

// TrackPublishedResponse acknowledges an AddTrackRequest.
type TrackPublishedResponse struct {
	Cid   string     `json:"cid"`
	Track *TrackInfo `json:"track,omitempty"`
}

// ParticipantUpdate carries the changed participants.
type ParticipantUpdate struct {
	Participants []*ParticipantInfo `json:"participants"`
}

// SpeakersChanged carries the participants whose speaking state changed.
type SpeakersChanged struct {
	Speakers []*SpeakerInfo `json:"speakers"`
}

// SpeakerInfo reports one participant's audio activity.
type SpeakerInfo struct {
	Sid    string  `json:"sid"`
	Level  float32 `json:"level,omitempty"`
	Active bool    `json:"active,omitempty"`
}

// RoomUpdate carries changed room metadata.
type RoomUpdate struct {
	Room *Room `json:"room"`
}

// ConnectionQualityUpdate carries per-participant quality scores.
type ConnectionQualityUpdate struct {
	Updates []*ConnectionQualityInfo `json:"updates"`
}

// ConnectionQualityInfo is one participant's quality score.
type ConnectionQualityInfo struct {
	ParticipantSid string            `json:"participantSid"`
	Quality        ConnectionQuality `json:"quality"`
	Score          float32           `json:"score,omitempty"`
}

// StreamStateUpdate reports forwarding state changes of subscribed tracks.
type StreamStateUpdate struct {
	StreamStates []*StreamStateInfo `json:"streamStates"`
}

// StreamStateInfo is the forwarding state of one subscribed track.
type StreamStateInfo struct {
	ParticipantSid string      `json:"participantSid"`
	TrackSid       string      `json:"trackSid"`
	State          StreamState `json:"state"`
}

// SubscribedQualityUpdate tells a publisher which simulcast tiers still have
// subscribers.
type SubscribedQualityUpdate struct {
	TrackSid            string               `json:"trackSid"`
	SubscribedQualities []*SubscribedQuality `json:"subscribedQualities"`
}

// SubscribedQuality is one tier's demand state.
type SubscribedQuality struct {
	Quality VideoQuality `json:"quality"`
	Enabled bool         `json:"enabled"`
}

// SubscriptionPermissionUpdate revokes or restores access to a single track.
type SubscriptionPermissionUpdate struct {
	ParticipantSid string `json:"participantSid"`
	TrackSid       string `json:"trackSid"`
	Allowed        bool   `json:"allowed"`
}
