package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clinicflow/pkg/model"
)

func TestBulkStatus_SendsIdempotencyKey(t *testing.T) {
	var gotKey string
	var gotBody model.BulkStatusRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(idempotencyHeader)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"data":{"succeeded":["a1"],"failed":[]}}`))
	}))
	defer srv.Close()

	c := NewAppointmentsClient(srv.URL, time.Second)
	resp, err := c.BulkStatus(context.Background(), []string{"a1"}, model.StatusConfirmed, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey == "" {
		t.Error("expected a generated idempotency key")
	}
	if len(gotBody.IDs) != 1 || gotBody.Status != model.StatusConfirmed {
		t.Errorf("unexpected body %+v", gotBody)
	}

	result, err := DecodeData[model.PartialResult](resp)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Succeeded) != 1 || result.Succeeded[0] != "a1" {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestResolve_QueryAndKey(t *testing.T) {
	var query, key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		key = r.Header.Get(idempotencyHeader)
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	c := NewAppointmentsClient(srv.URL, time.Second)
	if _, err := c.Resolve(context.Background(), "2026-03-02", "", true, "fixed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if query != "apply=true&date=2026-03-02" {
		t.Errorf("unexpected query %q", query)
	}
	if key != "fixed" {
		t.Errorf("expected caller key to be kept, got %q", key)
	}
}

func TestGetErrorMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{body: `{"error":"slot taken","code":"SLOT_CONFLICT"}`, want: "slot taken"},
		{body: `{"code":"NOT_FOUND"}`, want: "NOT_FOUND"},
	}

	for _, tt := range tests {
		if got := GetErrorMessage(&Response{Body: []byte(tt.body)}); got != tt.want {
			t.Errorf("GetErrorMessage(%s) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestWaitForHealthy(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	if err := NewHttpClient(healthy.URL, time.Second).WaitForHealthy(context.Background(), time.Second); err != nil {
		t.Errorf("expected healthy, got %v", err)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	if err := NewHttpClient(down.URL, time.Second).WaitForHealthy(context.Background(), 100*time.Millisecond); err == nil {
		t.Error("expected timeout for an unhealthy service")
	}
}
