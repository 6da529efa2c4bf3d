package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "report.selected", Data: map[string]string{"id": "1"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: report.selected") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"id":"1"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestPublishNavigate_SessionScoped(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	mine := b.SubscribeSession("s1")
	other := b.SubscribeSession("s2")
	all := b.Subscribe()
	defer b.Unsubscribe(mine)
	defer b.Unsubscribe(other)
	defer b.Unsubscribe(all)

	b.PublishNavigate("s1", "/admin/export-activity-log")
	time.Sleep(50 * time.Millisecond)

	got := drain(mine)
	if len(got) != 1 || !strings.Contains(got[0], "event: navigate") || !strings.Contains(got[0], `"route":"/admin/export-activity-log"`) {
		t.Errorf("session s1 got %q", got)
	}
	if got := drain(other); len(got) != 0 {
		t.Errorf("session s2 should not see s1's navigation: %q", got)
	}
	if got := drain(all); len(got) != 1 {
		t.Errorf("unscoped subscriber got %d events, want 1", len(got))
	}
}

func TestPublishCatalogEvent_Throttle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.SubscribeSession("s1")
	defer b.Unsubscribe(ch)

	// The second reload inside the window is swallowed.
	b.PublishCatalogEvent("abc", 2)
	b.PublishCatalogEvent("def", 3)

	time.Sleep(50 * time.Millisecond)
	got := drain(ch)
	if len(got) != 1 {
		t.Fatalf("catalog events = %d, want 1 (throttled)", len(got))
	}
	if !strings.Contains(got[0], "event: catalog.updated") || !strings.Contains(got[0], `"checksum":"abc"`) {
		t.Errorf("unexpected event %q", got[0])
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events?session=s1", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishNavigate("s2", "/elsewhere")
	b.PublishNavigate("s1", "/admin/manage-users")
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "/admin/manage-users") {
		t.Errorf("handler output missing own navigation: %q", body)
	}
	if strings.Contains(body, "/elsewhere") {
		t.Errorf("handler leaked another session's navigation: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.PublishNavigate("s1", "/x")
	b.PublishCatalogEvent("abc", 1)
	if c := b.SubscribeSession("s1"); c == nil {
		t.Fatal("subscribe after close should return a closed channel")
	}
}
