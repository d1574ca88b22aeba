package proxy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/feitianbubu/aistudio"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveDownload(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(NewHandler(NewFetcher(nil), nil))
	req := httptest.NewRequest(http.MethodGet, "/api/download?url="+url.QueryEscape(target), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerDownload(t *testing.T) {
	server := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("mp4-bytes"))
	})

	rec := serveDownload(t, server.URL+"/v.mp4")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "mp4-bytes" {
		t.Errorf("Unexpected body %q", rec.Body.String())
	}

	h := rec.Header()
	if h.Get("Content-Type") != "video/mp4" {
		t.Errorf("Unexpected Content-Type %q", h.Get("Content-Type"))
	}
	if h.Get("Content-Length") != "9" {
		t.Errorf("Unexpected Content-Length %q", h.Get("Content-Length"))
	}
	if cd := h.Get("Content-Disposition"); !strings.HasPrefix(cd, `attachment; filename="generated-file-`) || !strings.HasSuffix(cd, `.mp4"`) {
		t.Errorf("Unexpected Content-Disposition %q", cd)
	}
	if h.Get("Access-Control-Allow-Origin") != "*" || h.Get("Access-Control-Allow-Methods") != "GET" {
		t.Errorf("Missing CORS headers: %v", h)
	}
	if h.Get("Cache-Control") != "no-cache" {
		t.Errorf("Unexpected Cache-Control %q", h.Get("Cache-Control"))
	}
}

func TestHandlerMissingURL(t *testing.T) {
	router := NewRouter(NewHandler(NewFetcher(nil), nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/download", nil))

	if rec.Code != http.StatusBadRequest || rec.Body.String() != "Missing file URL" {
		t.Errorf("Expected 400 Missing file URL, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestHandlerInvalidContentType(t *testing.T) {
	server := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	})

	rec := serveDownload(t, server.URL)
	if rec.Code != http.StatusBadRequest || rec.Body.String() != "Invalid content type" {
		t.Errorf("Expected 400 Invalid content type, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestHandlerEmptyBody(t *testing.T) {
	server := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
	})

	rec := serveDownload(t, server.URL)
	if rec.Code != http.StatusBadRequest || rec.Body.String() != "Empty response received" {
		t.Errorf("Expected 400 Empty response received, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestHandlerUpstreamStatusPassThrough(t *testing.T) {
	server := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	rec := serveDownload(t, server.URL)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "403") {
		t.Errorf("Expected status in body, got %q", rec.Body.String())
	}
}

func TestHandlerTransportError(t *testing.T) {
	rec := serveDownload(t, "http://127.0.0.1:1/a.png")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	router := NewRouter(NewHandler(NewFetcher(nil), nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("Unexpected healthz response %d %q", rec.Code, rec.Body.String())
	}
}

func TestClientThroughHandler(t *testing.T) {
	origin := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	})
	proxyServer := httptest.NewServer(NewRouter(NewHandler(NewFetcher(nil), nil)))
	defer proxyServer.Close()

	client := NewClient(proxyServer.URL+"/", 0)
	artifact, err := client.Retrieve(context.Background(), origin.URL+"/a.jpg")
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if string(artifact.Data) != "jpeg-bytes" || artifact.ContentType != "image/jpeg" {
		t.Errorf("Unexpected artifact %+v", artifact)
	}
	if !strings.HasPrefix(artifact.Filename, "generated-file-") || !strings.HasSuffix(artifact.Filename, ".jpeg") {
		t.Errorf("Unexpected filename %q", artifact.Filename)
	}
}

func TestClientReportsProxyRejection(t *testing.T) {
	origin := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("nope"))
	})
	proxyServer := httptest.NewServer(NewRouter(NewHandler(NewFetcher(nil), nil)))
	defer proxyServer.Close()

	_, err := NewClient(proxyServer.URL, 0).Retrieve(context.Background(), origin.URL)
	var remoteErr *aistudio.RemoteError
	if !errors.As(err, &remoteErr) || remoteErr.Status != http.StatusBadRequest || remoteErr.Message != "Invalid content type" {
		t.Errorf("Expected RemoteError 400, got %v", err)
	}
}

func TestDownloaderRetriesThroughFetcher(t *testing.T) {
	var calls int32
	origin := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png"))
	})

	d := aistudio.NewDownloader(NewFetcher(nil), &aistudio.DownloaderConfig{
		MaxAttempts: 3,
		Backoff:     1,
		OutputDir:   t.TempDir(),
	})
	if _, err := d.Download(context.Background(), origin.URL, aistudio.MediaImage, "a.png"); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("Expected 3 upstream calls, got %d", n)
	}
}

func TestDownloaderAcceptsMixedCaseImageType(t *testing.T) {
	var calls int32
	origin := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "Image/PNG")
		w.Write([]byte("png"))
	})

	d := aistudio.NewDownloader(NewFetcher(nil), &aistudio.DownloaderConfig{
		MaxAttempts: 3,
		Backoff:     1,
		OutputDir:   t.TempDir(),
	})
	if _, err := d.Download(context.Background(), origin.URL, aistudio.MediaImage, "a.png"); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("Expected 1 upstream call, got %d", n)
	}
}
