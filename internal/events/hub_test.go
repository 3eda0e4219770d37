package events

import (
	"context"
	"testing"
	"time"

	"github.com/counselhub/counselhub/internal/testutil"
	"github.com/counselhub/counselhub/internal/types"
	"github.com/stretchr/testify/assert"
)

func startTestHub(t *testing.T) *Hub {
	hub := NewHub(testutil.TestLogger(t), nil)
	go hub.Run()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		hub.Shutdown(ctx)
	})
	return hub
}

func waitForEvent(t *testing.T, c *Client) *Event {
	select {
	case ev := <-c.send:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestHubDeliversToSubscribedClients(t *testing.T) {
	hub := startTestHub(t)

	subscriber := NewClient(1, nil, hub, nil, testutil.TestLogger(t))
	bystander := NewClient(3, nil, hub, nil, testutil.TestLogger(t))
	hub.Register(subscriber)
	hub.Register(bystander)

	hub.subscribeChan <- subscription{client: subscriber, sessionId: "sess-abc123"}
	// let the run loop drain the subscription before publishing
	time.Sleep(50 * time.Millisecond)

	hub.PublishMessage("sess-abc123", types.Message{
		Id:        "m1",
		SessionId: "sess-abc123",
		SenderId:  2,
		Body:      "hello",
	})

	ev := waitForEvent(t, subscriber)
	assert.Equal(t, EventMessage, ev.Type)
	assert.Equal(t, "sess-abc123", ev.SessionId)
	assert.Equal(t, "hello", ev.Message.Body)

	select {
	case <-bystander.send:
		t.Fatal("unsubscribed client must not receive session events")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	hub := startTestHub(t)

	client := NewClient(1, nil, hub, nil, testutil.TestLogger(t))
	hub.Register(client)

	hub.subscribeChan <- subscription{client: client, sessionId: "sess-abc123"}
	time.Sleep(50 * time.Millisecond)
	hub.unsubscribeChan <- subscription{client: client, sessionId: "sess-abc123"}
	time.Sleep(50 * time.Millisecond)

	hub.PublishMessage("sess-abc123", types.Message{Id: "m1", SessionId: "sess-abc123"})

	select {
	case <-client.send:
		t.Fatal("unsubscribed client must not receive session events")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := startTestHub(t)

	client := NewClient(1, nil, hub, nil, testutil.TestLogger(t))
	hub.Register(client)

	hub.subscribeChan <- subscription{client: client, sessionId: "sess-abc123"}
	time.Sleep(50 * time.Millisecond)

	// a full send buffer marks the client slow on the next publish
	for i := 0; i < cap(client.send); i++ {
		client.send <- &Event{Type: EventMessage}
	}

	hub.PublishMessage("sess-abc123", types.Message{Id: "m1", SessionId: "sess-abc123"})

	select {
	case <-client.stop:
	case <-time.After(time.Second):
		t.Fatal("expected slow client to be stopped")
	}
}

func TestHubShutdownStopsClients(t *testing.T) {
	hub := NewHub(testutil.TestLogger(t), nil)
	go hub.Run()

	client := NewClient(1, nil, hub, nil, testutil.TestLogger(t))
	hub.Register(client)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, hub.Shutdown(ctx))

	select {
	case <-client.stop:
	case <-time.After(time.Second):
		t.Fatal("expected client to be stopped on shutdown")
	}
}
