package enhance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackhunterking/beautycanvas/pkg/errors"
)

func TestHTTPQueueClientSubmit(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Write([]byte(`{"request_id": "abc-123"}`))
	}))
	defer srv.Close()

	c := NewHTTPQueueClient(srv.URL, "secret")
	id, err := c.Submit(context.Background(), "birefnet/v2", SubmitInput{
		ImageURL: "https://cdn.example.com/in.jpg",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if id != "abc-123" {
		t.Errorf("request id = %q, want abc-123", id)
	}
	if gotAuth != "Key secret" {
		t.Errorf("Authorization = %q, want Key secret", gotAuth)
	}
	if gotPath != "/birefnet/v2" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestHTTPQueueClientSubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewHTTPQueueClient(srv.URL, "secret")
	_, err := c.Submit(context.Background(), "birefnet/v2", SubmitInput{ImageURL: "x"})
	if !errors.Is(err, errors.ErrCodePermanentRemote) {
		t.Errorf("error code = %v, want PERMANENT_REMOTE", errors.GetCode(err))
	}
}

func TestHTTPQueueClientStatusPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"status": "IN_PROGRESS"}`))
	}))
	defer srv.Close()

	c := NewHTTPQueueClient(srv.URL, "")
	rs, err := c.Status(context.Background(), "birefnet/v2", "abc-123")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if gotPath != "/birefnet/v2/requests/abc-123/status" {
		t.Errorf("path = %q", gotPath)
	}
	if rs.HTTPStatus != 200 || rs.Status != RemoteInProgress {
		t.Errorf("observation = %+v", rs)
	}
}

func TestHTTPQueueClientStatusNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHTTPQueueClient(srv.URL, "")
	rs, err := c.Status(context.Background(), "m", "r")
	if err != nil {
		t.Fatalf("non-2xx must not error, got %v", err)
	}
	if rs.HTTPStatus != 503 {
		t.Errorf("HTTPStatus = %d, want 503", rs.HTTPStatus)
	}
}

func TestRemotePayloadOutputURL(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"image field", `{"image": {"url": "https://a/img.png"}}`, "https://a/img.png"},
		{"output field", `{"output": {"url": "https://a/out.png"}}`, "https://a/out.png"},
		{"images array", `{"images": [{"url": "https://a/0.png"}, {"url": "https://a/1.png"}]}`, "https://a/0.png"},
		{"bare url", `{"url": "https://a/bare.png"}`, "https://a/bare.png"},
		{"image wins over url", `{"image": {"url": "https://a/img.png"}, "url": "https://a/bare.png"}`, "https://a/img.png"},
		{"no url", `{"status": "IN_QUEUE"}`, ""},
		{"garbled body", `{{{not json`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewHTTPQueueClient(srv.URL, "")
			rs, err := c.Status(context.Background(), "m", "r")
			if err != nil {
				t.Fatalf("Status() error = %v", err)
			}
			if rs.OutputURL != tt.want {
				t.Errorf("OutputURL = %q, want %q", rs.OutputURL, tt.want)
			}
		})
	}
}

func TestHTTPQueueClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewHTTPQueueClient(srv.URL, "")
	if _, err := c.Status(context.Background(), "m", "r"); err == nil {
		t.Error("transport failure should error")
	}
	if _, err := c.Submit(context.Background(), "m", SubmitInput{ImageURL: "x"}); !errors.Is(err, errors.ErrCodeTransientRemote) {
		t.Errorf("submit transport failure code = %v, want TRANSIENT_REMOTE", errors.GetCode(err))
	}
}
