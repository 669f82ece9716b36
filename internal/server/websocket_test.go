package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/citypulse/citypulse-ai/internal/models"
)

func dialHub(t *testing.T, hub *AlertHub, origin string) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(hub.HandleStream))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, hub *AlertHub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() != want {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d subscribers, have %d", want, hub.Subscribers())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestAlertHub_PublishReachesSubscriber(t *testing.T) {
	hub := NewAlertHub(nil, nil)
	conn := dialHub(t, hub, "")
	waitForSubscribers(t, hub, 1)

	hub.Publish(models.Alert{
		ID:       "a-1",
		Kind:     models.AlertCluster,
		Location: "HSR Layout",
		Cluster:  &models.EventCluster{EventType: "Flooding", Location: "HSR Layout", Count: 2},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}

	if msg.Type != MessageTypeAlert {
		t.Errorf("Expected an alert message, got %q", msg.Type)
	}
	if msg.Alert == nil || msg.Alert.ID != "a-1" {
		t.Errorf("Unexpected alert payload: %+v", msg.Alert)
	}
	if msg.Alert.Cluster == nil || msg.Alert.Cluster.Count != 2 {
		t.Errorf("Expected the cluster on the alert, got %+v", msg.Alert)
	}
}

func TestAlertHub_OriginEnforcement(t *testing.T) {
	hub := NewAlertHub([]string{"https://ops.citypulse.dev"}, nil)

	ts := httptest.NewServer(http.HandlerFunc(hub.HandleStream))
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	// Disallowed origin is rejected at the upgrade.
	header := http.Header{}
	header.Set("Origin", "https://evil.example.com")
	if _, _, err := websocket.DefaultDialer.Dial(url, header); err == nil {
		t.Fatal("Expected the dial to fail for a disallowed origin")
	}

	// The allowed origin connects.
	header.Set("Origin", "https://ops.citypulse.dev")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("Dial failed for the allowed origin: %v", err)
	}
	conn.Close()
}

func TestAlertHub_CloseAllDisconnects(t *testing.T) {
	hub := NewAlertHub(nil, nil)
	conn := dialHub(t, hub, "")
	waitForSubscribers(t, hub, 1)

	hub.CloseAll()

	if hub.Subscribers() != 0 {
		t.Errorf("Expected no subscribers after CloseAll, have %d", hub.Subscribers())
	}

	// The server side sends a close frame; the read eventually errors out.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func TestAlertHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewAlertHub(nil, nil)
	dialHub(t, hub, "")
	waitForSubscribers(t, hub, 1)

	// Far more alerts than the per-client buffer holds; Publish must return
	// promptly regardless of what the client reads.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			hub.Publish(models.Alert{ID: "flood", Kind: models.AlertRisk})
		}
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}
