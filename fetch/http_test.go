package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"episodedl/failure"
)

func TestBytesSendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("#EXTM3U\n"))
	}))
	defer srv.Close()

	c := New(Options{UserAgent: "episodedl-test"})
	body, err := c.Bytes(context.Background(), srv.URL+"/a.m3u8")
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "#EXTM3U\n" {
		t.Fatalf("unexpected body %q", body)
	}
	if gotUA != "episodedl-test" {
		t.Fatalf("unexpected user agent %q", gotUA)
	}
}

func TestDefaultUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	if _, err := New(Options{}).Bytes(context.Background(), srv.URL); err != nil {
		t.Fatal(err)
	}
	if gotUA != DefaultUserAgent {
		t.Fatalf("unexpected user agent %q", gotUA)
	}
}

func TestNonSuccessStatusIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := New(Options{}).Bytes(context.Background(), srv.URL+"/missing.ts")
	if !errors.Is(err, failure.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestUnreachableIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(Options{}).Bytes(context.Background(), url)
	if !errors.Is(err, failure.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(Options{Timeout: 50 * time.Millisecond}).Bytes(context.Background(), srv.URL)
	if !errors.Is(err, failure.ErrNetwork) {
		t.Fatalf("expected ErrNetwork on timeout, got %v", err)
	}
}
