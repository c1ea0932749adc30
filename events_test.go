package signaling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventStreamPublish(t *testing.T) {
	stream := newEventStream(NewLogger("test"))
	sub := stream.Observe()

	stream.publish(ConnectionStateEvent{State: ConnectionStateConnecting})
	stream.publish(ConnectionStateEvent{State: ConnectionStateConnected})

	ev := <-sub.Events()
	assert.Equal(t, ConnectionStateEvent{State: ConnectionStateConnecting}, ev)
	ev = <-sub.Events()
	assert.Equal(t, ConnectionStateEvent{State: ConnectionStateConnected}, ev)
}

func TestEventStreamFanOut(t *testing.T) {
	stream := newEventStream(NewLogger("test"))
	first := stream.Observe()
	second := stream.Observe()

	stream.publish(TokenRefreshEvent{Token: "abc"})

	assert.Equal(t, TokenRefreshEvent{Token: "abc"}, <-first.Events())
	assert.Equal(t, TokenRefreshEvent{Token: "abc"}, <-second.Events())
}

func TestEventStreamUnsubscribe(t *testing.T) {
	stream := newEventStream(NewLogger("test"))
	sub := stream.Observe()
	other := stream.Observe()

	sub.Close()
	stream.publish(TokenRefreshEvent{Token: "abc"})

	_, open := <-sub.Events()
	assert.False(t, open)
	assert.Equal(t, TokenRefreshEvent{Token: "abc"}, <-other.Events())

	// closing again is a no-op
	sub.Close()
}

func TestEventStreamClose(t *testing.T) {
	stream := newEventStream(NewLogger("test"))
	sub := stream.Observe()

	stream.close()

	_, open := <-sub.Events()
	assert.False(t, open)

	// observing a closed stream yields a closed subscription
	late := stream.Observe()
	_, open = <-late.Events()
	assert.False(t, open)
}

func TestEventStreamDropsWhenSubscriberStalls(t *testing.T) {
	stream := newEventStream(NewLogger("test"))
	sub := stream.Observe()

	// never drained, publish must not block once the buffer fills
	for i := 0; i < eventSubBuffer+10; i++ {
		stream.publish(TokenRefreshEvent{Token: "t"})
	}

	require.Len(t, sub.ch, eventSubBuffer)
}
