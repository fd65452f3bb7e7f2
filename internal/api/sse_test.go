package api

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/pinpanel/internal/events"
)

// readEvent scans an SSE stream until an event named want arrives and returns its data line.
func readEvent(t *testing.T, scanner *bufio.Scanner, want string) string {
	t.Helper()
	matched := false
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "event: "+want:
			matched = true
		case matched && strings.HasPrefix(line, "data: "):
			return strings.TrimPrefix(line, "data: ")
		}
	}
	t.Fatalf("stream ended before %q event: %v", want, scanner.Err())
	return ""
}

func TestEventsStream_ForwardsPinEvents(t *testing.T) {
	bus := events.New()
	server := NewServer(&Options{EventBus: bus})
	ts := httptest.NewServer(server.GetMux())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Headers are only flushed with the first event, so keep publishing until
	// the subscription is live.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				bus.Publish(events.PinValueChangedEvent{Pin: 17, Value: 1, Timestamp: "2025-01-27T10:30:00Z"})
			}
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	if origin := resp.Header.Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("CORS origin = %q, want *", origin)
	}

	data := readEvent(t, bufio.NewScanner(resp.Body), events.NamePinValueChanged)
	if !strings.Contains(data, `"pin":17`) || !strings.Contains(data, `"value":1`) {
		t.Errorf("unexpected event data %s", data)
	}
}

func TestCORSPreflight(t *testing.T) {
	server := NewServer(&Options{EventBus: events.New()})

	req := httptest.NewRequest(http.MethodOptions, "/api/gpio/17", nil)
	rec := httptest.NewRecorder()
	server.GetMux().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	want := map[string]string{
		"Access-Control-Allow-Methods":  "GET, POST, PATCH, DELETE",
		"Access-Control-Allow-Headers":  "Content-Type",
		"Access-Control-Expose-Headers": "Content-Disposition",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestMetricsEndpointMounted(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pinpanel_up 1\n"))
	})
	server := NewServer(&Options{EventBus: events.New(), MetricsHandler: handler})

	rec := httptest.NewRecorder()
	server.GetMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "pinpanel_up 1") {
		t.Errorf("metrics response %d %q", rec.Code, rec.Body.String())
	}
}
