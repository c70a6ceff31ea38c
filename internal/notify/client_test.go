package notify

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/banshee-data/activity.report/internal/activity"
	"github.com/banshee-data/activity.report/internal/httputil"
)

func TestSendActivity(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	client := NewClient("http://notify.example/events", "secret-token", mock)

	err := client.SendActivity(1700000000, activity.LabelReading, map[string]string{"session_id": "abc"})
	if err != nil {
		t.Fatalf("SendActivity failed: %v", err)
	}

	if mock.RequestCount() != 1 {
		t.Fatalf("got %d requests, want 1", mock.RequestCount())
	}
	req := mock.Requests[0]
	if req.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", req.Method)
	}
	if req.URL.String() != "http://notify.example/events" {
		t.Errorf("URL = %s, want http://notify.example/events", req.URL)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want Bearer secret-token", got)
	}
	if got := req.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}

	var body struct {
		Timestamp int64             `json:"timestamp"`
		DateTime  string            `json:"date_time"`
		Activity  activity.Label    `json:"activity"`
		Metadata  map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(mock.RequestBody(0)), &body); err != nil {
		t.Fatalf("failed to decode request body: %v", err)
	}
	if body.Timestamp != 1700000000 {
		t.Errorf("timestamp = %d, want 1700000000", body.Timestamp)
	}
	if body.Activity != activity.LabelReading {
		t.Errorf("activity = %q, want reading", body.Activity)
	}
	if body.DateTime == "" {
		t.Error("expected a date_time value")
	}
	if body.Metadata["session_id"] != "abc" {
		t.Errorf("metadata = %v, want session_id=abc", body.Metadata)
	}
}

func TestSendActivityWithoutAPIKey(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	client := NewClient("http://notify.example/events", "", mock)

	if err := client.SendActivity(100, activity.LabelIdle, nil); err != nil {
		t.Fatalf("SendActivity failed: %v", err)
	}
	if got := mock.Requests[0].Header.Get("Authorization"); got != "" {
		t.Errorf("Authorization = %q, want unset", got)
	}
}

func TestSendActivityServerError(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	mock.AddResponse(http.StatusInternalServerError, "overloaded")
	client := NewClient("http://notify.example/events", "", mock)

	err := client.SendActivity(100, activity.LabelBusy, nil)
	if err == nil {
		t.Fatal("expected an error for a 500 response")
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "overloaded") {
		t.Errorf("error = %v, want status and body mentioned", err)
	}
}

func TestSendActivityTransportError(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	mock.AddErrorResponse(errors.New("connection refused"))
	client := NewClient("http://notify.example/events", "", mock)

	if err := client.SendActivity(100, activity.LabelBusy, nil); err == nil {
		t.Fatal("expected a transport error")
	}
}

func TestStatus(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	mock.AddResponse(http.StatusOK, `{"ok": true, "version": "1.2"}`)
	client := NewClient("http://notify.example/", "secret", mock)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}

	// Trailing slash on the service URL must not double up.
	if got := mock.Requests[0].URL.String(); got != "http://notify.example/status" {
		t.Errorf("URL = %s, want http://notify.example/status", got)
	}
	if ok, _ := status["ok"].(bool); !ok {
		t.Errorf("status = %v, want ok=true", status)
	}
}

func TestStatusError(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	mock.AddResponse(http.StatusServiceUnavailable, "")
	client := NewClient("http://notify.example", "", mock)

	if _, err := client.Status(); err == nil {
		t.Fatal("expected an error for a 503 response")
	}
}
