package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"video-platform/internal/identity"
	"video-platform/internal/metrics"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func TestStatusRecorder(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newStatusRecorder(w)

	if rw.statusCode != http.StatusOK {
		t.Errorf("Expected default status code 200, got %d", rw.statusCode)
	}

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)
	if rw.statusCode != http.StatusNotFound {
		t.Errorf("Status code should not change after first WriteHeader, got %d", rw.statusCode)
	}

	n, err := rw.Write([]byte("test data"))
	if err != nil || n != 9 {
		t.Fatalf("Write() = %d, %v", n, err)
	}
	if rw.bytesWritten != 9 {
		t.Errorf("Expected bytesWritten 9, got %d", rw.bytesWritten)
	}
}

func TestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		config        LoggingConfig
		expectLogging bool
	}{
		{"logs regular requests", "/api/videos", DefaultLoggingConfig(), true},
		{"logs health checks when enabled", "/healthz", LoggingConfig{LogHealthChecks: true}, true},
		{"skips health checks when disabled", "/readyz", LoggingConfig{LogHealthChecks: false}, false},
		{"skips configured prefixes", "/metrics", LoggingConfig{SkipPaths: []string{"/metrics"}, LogHealthChecks: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)
			handler := Logger(tt.config)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte("ok"))
			}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest("GET", tt.path, http.NoBody))

			if w.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", w.Code)
			}
			if logged := buf.Len() > 0; logged != tt.expectLogging {
				t.Errorf("logged = %v, want %v (%q)", logged, tt.expectLogging, buf.String())
			}
		})
	}
}

func TestAccessLineFields(t *testing.T) {
	buf := captureLog(t)
	handler := Identity(Logger(DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("created"))
	})))

	req := httptest.NewRequest("POST", "/api/videos?x=1", http.NoBody)
	req.RemoteAddr = "192.0.2.7:51234"
	req.Header.Set(identity.HeaderUserID, "alice")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11)")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	line := strings.TrimSpace(buf.String())
	for _, want := range []string{
		" 192.0.2.7 alice POST /api/videos x=1 201 7 ",
		`"Mozilla/5.0 (X11)"`,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("access line %q missing %q", line, want)
		}
	}
	if !strings.HasSuffix(line, " -") {
		t.Errorf("empty referer should be logged as -: %q", line)
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"line\nforged", "line forged"},
		{"cr\rlf", "cr lf"},
		{"nul\x00byte", "nulbyte"},
		{"\x1b[31mred", "[31mred"},
		{"tab\tkept", "tab\tkept"},
		{"del\x7f", "del"},
	}
	for _, tt := range tests {
		if got := sanitizeLogField(tt.in); got != tt.want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClientIP(t *testing.T) {
	proxies, err := ParseTrustedProxies("10.0.0.0/8, 192.0.2.5")
	if err != nil {
		t.Fatalf("ParseTrustedProxies: %v", err)
	}

	tests := []struct {
		name    string
		trusted *TrustedProxies
		headers map[string]string
		remote  string
		want    string
	}{
		{"untrusted peer ignores forwarded for", proxies, map[string]string{"X-Forwarded-For": "10.0.0.9"}, "203.0.113.7:5000", "203.0.113.7"},
		{"untrusted peer ignores real ip", proxies, map[string]string{"X-Real-IP": "198.51.100.1"}, "203.0.113.7:5000", "203.0.113.7"},
		{"no trust configured", nil, map[string]string{"X-Forwarded-For": "198.51.100.1"}, "10.0.0.2:1", "10.0.0.2"},
		{"trusted peer uses last untrusted hop", proxies, map[string]string{"X-Forwarded-For": "6.6.6.6, 203.0.113.1, 10.0.0.1"}, "10.0.0.2:1", "203.0.113.1"},
		{"trusted bare address", proxies, map[string]string{"X-Forwarded-For": "203.0.113.1"}, "192.0.2.5:1", "203.0.113.1"},
		{"all hops trusted", proxies, map[string]string{"X-Forwarded-For": "10.1.1.1, 10.0.0.1"}, "10.0.0.2:1", "10.1.1.1"},
		{"malformed hop falls back to peer", proxies, map[string]string{"X-Forwarded-For": "203.0.113.1, junk"}, "10.0.0.2:1", "10.0.0.2"},
		{"trusted peer real ip", proxies, map[string]string{"X-Real-IP": "203.0.113.9"}, "10.0.0.2:1", "203.0.113.9"},
		{"remote addr", proxies, nil, "198.51.100.4:8080", "198.51.100.4"},
		{"ipv6 remote addr", nil, nil, "[2001:db8::1]:443", "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", http.NoBody)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := tt.trusted.ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	p, err := ParseTrustedProxies("")
	if err != nil || p != nil {
		t.Errorf("empty list = %v, %v; want nil, nil", p, err)
	}
	if got := p.String(); got != "none" {
		t.Errorf("nil String() = %q", got)
	}

	p, err = ParseTrustedProxies(" 10.0.0.0/8 ,2001:db8::1")
	if err != nil {
		t.Fatalf("ParseTrustedProxies: %v", err)
	}
	if got := p.String(); got != "10.0.0.0/8,2001:db8::1/128" {
		t.Errorf("String() = %q", got)
	}

	for _, bad := range []string{"10.0.0.0/33", "not-an-ip", "10.0.0.1, x/8"} {
		if _, err := ParseTrustedProxies(bad); err == nil {
			t.Errorf("ParseTrustedProxies(%q) succeeded", bad)
		}
	}
}

func TestEscapeW3CField(t *testing.T) {
	if got := escapeW3CField("curl/8.0"); got != "curl/8.0" {
		t.Errorf("got %q", got)
	}
	if got := escapeW3CField(`a "b" c`); got != `"a ""b"" c"` {
		t.Errorf("got %q", got)
	}
}

func TestIdentityMiddleware(t *testing.T) {
	var got identity.Identity
	handler := Identity(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = identity.FromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", http.NoBody)
	req.Header.Set(identity.HeaderUserID, "root")
	req.Header.Set(identity.HeaderAdmin, "true")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got != (identity.Identity{UserID: "root", Admin: true}) {
		t.Errorf("identity = %+v", got)
	}

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", http.NoBody))
	if !got.Anonymous() {
		t.Errorf("expected anonymous identity, got %+v", got)
	}
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Metrics(DefaultMetricsConfig()))
	r.HandleFunc("/api/videos/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/videos/{id}", "418")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/videos/"+id, http.NoBody))
	}

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("expected 3 requests under the route template, got %v", got)
	}
}

func TestMetricsSkipPaths(t *testing.T) {
	called := false
	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/healthz", http.NoBody))
	if !called {
		t.Error("skipped paths must still reach the handler")
	}
}

func TestCompression(t *testing.T) {
	large := strings.Repeat(`{"id":"abc"},`, 200)

	tests := []struct {
		name         string
		acceptGzip   bool
		contentType  string
		body         string
		wantEncoding string
	}{
		{"large json compressed", true, "application/json; charset=utf-8", large, "gzip"},
		{"client without gzip", false, "application/json", large, ""},
		{"small body untouched", true, "application/json", `{"ok":true}`, ""},
		{"binary untouched", true, "image/jpeg", large, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(http.StatusAccepted)
				// several writes to exercise buffering
				for i := 0; i < len(tt.body); i += 100 {
					end := min(i+100, len(tt.body))
					w.Write([]byte(tt.body[i:end]))
				}
			}))

			req := httptest.NewRequest("GET", "/api/videos", http.NoBody)
			if tt.acceptGzip {
				req.Header.Set("Accept-Encoding", "gzip, deflate")
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusAccepted {
				t.Errorf("status = %d, want 202", w.Code)
			}
			if enc := w.Header().Get("Content-Encoding"); enc != tt.wantEncoding {
				t.Fatalf("Content-Encoding = %q, want %q", enc, tt.wantEncoding)
			}

			body := w.Body.Bytes()
			if tt.wantEncoding == "gzip" {
				zr, err := gzip.NewReader(bytes.NewReader(body))
				if err != nil {
					t.Fatalf("gzip.NewReader: %v", err)
				}
				body, err = io.ReadAll(zr)
				if err != nil {
					t.Fatalf("decompress: %v", err)
				}
			}
			if string(body) != tt.body {
				t.Errorf("body mismatch: got %d bytes, want %d", len(body), len(tt.body))
			}
		})
	}
}

func TestCompressionEmptyBody(t *testing.T) {
	handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest("DELETE", "/api/videos/x", http.NoBody)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if w.Header().Get("Content-Encoding") != "" {
		t.Error("empty responses must not be compressed")
	}
}
