package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jmylchreest/otic/internal/security"
)

func TestFetch(t *testing.T) {
	var gotUA, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotHeader = r.Header.Get("X-Tenant")
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("image-bytes"))
		case "/big":
			// No Content-Length: force chunked so the limit trips while reading.
			w.(http.Flusher).Flush()
			w.Write([]byte(strings.Repeat("x", 2048)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	t.Run("ok", func(t *testing.T) {
		data, err := Fetch(context.Background(), srv.URL+"/ok", FetchOptions{Headers: map[string]string{"X-Tenant": "shop-1"}})
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if string(data) != "image-bytes" {
			t.Errorf("Fetch() = %q, want image-bytes", data)
		}
		if !strings.HasPrefix(gotUA, UserAgentName+"/") {
			t.Errorf("User-Agent = %q, want prefix %s/", gotUA, UserAgentName)
		}
		if gotHeader != "shop-1" {
			t.Errorf("X-Tenant = %q, want shop-1", gotHeader)
		}
	})

	t.Run("not found", func(t *testing.T) {
		if _, err := Fetch(context.Background(), srv.URL+"/missing", FetchOptions{}); err == nil {
			t.Error("Fetch() expected error for 404")
		}
	})

	t.Run("too large", func(t *testing.T) {
		_, err := Fetch(context.Background(), srv.URL+"/big", FetchOptions{MaxBytes: 1024})
		if !errors.Is(err, security.ErrSizeLimitExceeded) {
			t.Errorf("Fetch() error = %v, want ErrSizeLimitExceeded", err)
		}
	})
}
