package dispatch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDispatchPostsRecordVerbatim(t *testing.T) {
	record := []byte(`{"payee":"Acme Corp","amount":"1500.00"}`)

	var gotBody []byte
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, time.Second, nil)
	if err := d.Dispatch(context.Background(), record); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if string(gotBody) != string(record) {
		t.Fatalf("body = %q, want %q", gotBody, record)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content-type = %q", gotContentType)
	}
}

func TestDispatchNonSuccessIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, time.Second, nil)
	err := d.Dispatch(context.Background(), []byte(`{}`))
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Fatalf("error should carry the status text, got %v", err)
	}
}

func TestDispatchRejectsMalformedJSONWithoutRequest(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, time.Second, nil)
	if err := d.Dispatch(context.Background(), []byte(`{broken`)); err == nil {
		t.Fatal("expected error for malformed record")
	}
	if calls != 0 {
		t.Fatalf("endpoint was called %d times for a malformed record", calls)
	}
}
