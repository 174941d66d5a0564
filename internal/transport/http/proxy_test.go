package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/bekzodm/murojaat-desk/internal/transport/http/middleware"
)

func newProxyTest(t *testing.T, upstream http.HandlerFunc) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := httptest.NewServer(upstream)
	t.Cleanup(backend.Close)

	router := NewRouter(NewProxyHandler(backend.URL), middleware.CORSMiddleware(nil))
	proxy := httptest.NewServer(router)
	t.Cleanup(proxy.Close)
	return proxy
}

func TestForward_JSONPassThroughWithAuthHeader(t *testing.T) {
	proxy := newProxyTest(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tickets/" {
			t.Errorf("upstream path = %s, want /api/tickets/", r.URL.Path)
		}
		if r.URL.RawQuery != "status=assigned" {
			t.Errorf("query = %s, want status=assigned", r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			t.Error("Authorization header must be forwarded unchanged")
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"count": 3})
	})

	req, _ := http.NewRequest(http.MethodGet, proxy.URL+"/api/tickets/?status=assigned", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %s, want json", ct)
	}
	var body map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body["count"] != 3 {
		t.Errorf("body not passed through: %v %v", body, err)
	}
}

func TestForward_BinaryGetsImmutableCaching(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	proxy := newProxyTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(payload)
	})

	resp, err := http.Get(proxy.URL + "/api/tickets/s-1/attachment/")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Cache-Control"); got != "public, max-age=31536000, immutable" {
		t.Errorf("Cache-Control = %q, want immutable caching for binary", got)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != len(payload) {
		t.Errorf("body length = %d, want %d", len(body), len(payload))
	}
}

func TestForward_BodyAndStatusForwarded(t *testing.T) {
	proxy := newProxyTest(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"description":"yangi"}` {
			t.Errorf("upstream body = %s", body)
		}
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"status":"ok"}`))
	})

	req, _ := http.NewRequest(http.MethodPatch, proxy.URL+"/api/tickets/s-1/description/",
		strings.NewReader(`{"description":"yangi"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("status = %d, want upstream's 202", resp.StatusCode)
	}
}

func TestForward_AcceptLanguageOnlyWhenSent(t *testing.T) {
	proxy := newProxyTest(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tickets/":
			if _, ok := r.Header["Accept-Language"]; ok {
				t.Error("Accept-Language must not be forwarded when the client sent none")
			}
		case "/api/tickets/s-1/":
			if got := r.Header.Get("Accept-Language"); got != "uz" {
				t.Errorf("Accept-Language = %q, want uz", got)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	})

	resp, err := http.Get(proxy.URL + "/api/tickets/")
	if err != nil {
		t.Fatalf("request without language: %v", err)
	}
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodGet, proxy.URL+"/api/tickets/s-1/", nil)
	req.Header.Set("Accept-Language", "uz")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request with language: %v", err)
	}
	resp.Body.Close()
}

func TestForward_TextFallback(t *testing.T) {
	proxy := newProxyTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("uuid,status\ns-1,closed\n"))
	})

	resp, err := http.Get(proxy.URL + "/api/export/")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("Cache-Control") != "" {
		t.Error("text responses must not get the immutable cache header")
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "s-1,closed") {
		t.Errorf("body = %s", body)
	}
}

func TestHealthz(t *testing.T) {
	proxy := newProxyTest(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("healthz must not reach the upstream")
	})

	resp, err := http.Get(proxy.URL + "/healthz")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
