package proxy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/feitianbubu/aistudio"
)

func upstream(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestFetchImage(t *testing.T) {
	server := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Referer") != DefaultReferer || r.Header.Get("Origin") != "https://open.bigmodel.cn" {
			t.Errorf("Unexpected Referer/Origin %q %q", r.Header.Get("Referer"), r.Header.Get("Origin"))
		}
		if r.Header.Get("Accept") != "*/*" || r.Header.Get("User-Agent") != DefaultUserAgent {
			t.Errorf("Unexpected Accept/User-Agent %q %q", r.Header.Get("Accept"), r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	})

	f := NewFetcher(nil)
	f.now = func() time.Time { return time.UnixMilli(1700000000000) }

	artifact, err := f.Fetch(context.Background(), server.URL+"/a.png")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if string(artifact.Data) != "png-bytes" || artifact.ContentType != "image/png" {
		t.Errorf("Unexpected artifact %+v", artifact)
	}
	if artifact.Filename != "generated-file-1700000000000.png" {
		t.Errorf("Unexpected filename %s", artifact.Filename)
	}
}

func TestFetchRejectsHTMLWithOK(t *testing.T) {
	server := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html></html>"))
	})

	_, err := NewFetcher(nil).Fetch(context.Background(), server.URL)
	var contentTypeErr *aistudio.InvalidContentTypeError
	if !errors.As(err, &contentTypeErr) {
		t.Errorf("Expected InvalidContentTypeError, got %v", err)
	}
}

func TestFetchRejectsEmptyImage(t *testing.T) {
	server := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
	})

	_, err := NewFetcher(nil).Fetch(context.Background(), server.URL)
	if !errors.Is(err, aistudio.ErrEmptyPayload) {
		t.Errorf("Expected ErrEmptyPayload, got %v", err)
	}
}

func TestFetchPassesUpstreamStatus(t *testing.T) {
	server := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})

	_, err := NewFetcher(nil).Fetch(context.Background(), server.URL)
	var remoteErr *aistudio.RemoteError
	if !errors.As(err, &remoteErr) || remoteErr.Status != http.StatusNotFound {
		t.Errorf("Expected RemoteError 404, got %v", err)
	}
}

func TestFetchRejectsBadURL(t *testing.T) {
	f := NewFetcher(nil)
	for _, u := range []string{"", "ftp://x/a.png", "not a url", "file:///etc/passwd"} {
		_, err := f.Fetch(context.Background(), u)
		var validationErr *aistudio.ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("%q: expected ValidationError, got %v", u, err)
		}
	}
}

func TestFetchTransportError(t *testing.T) {
	_, err := NewFetcher(&FetcherConfig{Timeout: time.Second}).Fetch(context.Background(), "http://127.0.0.1:1/a.png")
	var transportErr *aistudio.TransportError
	if !errors.As(err, &transportErr) {
		t.Errorf("Expected TransportError, got %v", err)
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"image/png":                "png",
		"image/jpeg; charset=x":    "jpeg",
		"video/mp4":                "mp4",
		"video/quicktime":          "mp4",
		"IMAGE/WEBP":               "webp",
		"image/":                   "bin",
		"application/octet-stream": "octet-stream",
	}
	for in, want := range tests {
		if got := Extension(in); got != want {
			t.Errorf("Extension(%q) = %q, want %q", in, got, want)
		}
	}
}
