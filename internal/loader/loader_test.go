package loader

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/guarzo/hairtoolrank/internal/cache"
	"github.com/guarzo/hairtoolrank/internal/model"
)

const catalogJSON = `{"meta":{"source":"test"},"products":[{"id":"x1","name":"Widget"},{"id":"x2","name":"Gadget"}]}`

func testConfig(endpoint, fallback string) Config {
	cfg := DefaultConfig()
	cfg.DataEndpoint = endpoint
	cfg.DefaultURL = fallback
	cfg.Timeout = 2 * time.Second
	cfg.MaxRetries = 1
	cfg.RetryBackoff = time.Millisecond
	cfg.RequestsPerSecond = 0
	return cfg
}

func jsonServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestLoad_FirstSourceWins(t *testing.T) {
	first := jsonServer(t, catalogJSON)
	second := jsonServer(t, `{"products":[{"id":"other"}]}`)

	l := New(testConfig(first.URL, second.URL), nil)
	doc, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.Source != first.URL || doc.FromFallback || doc.FromCache {
		t.Errorf("unexpected document origin: %+v", doc)
	}
	if model.CountProducts(doc.Raw) != 2 {
		t.Errorf("expected 2 products, got %d", model.CountProducts(doc.Raw))
	}
}

func TestLoad_FallsThroughFailingAndEmptySources(t *testing.T) {
	var hits int32
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failing.Close()
	empty := jsonServer(t, `{"products":[]}`)
	good := jsonServer(t, catalogJSON)

	l := New(testConfig(failing.URL, empty.URL), nil)
	if _, err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("expected 503 to be retried once (2 hits), got %d", got)
	}

	l = New(testConfig(empty.URL, good.URL), nil)
	doc, err := l.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if doc.Source != good.URL {
		t.Errorf("expected empty catalog to be skipped, got source %s", doc.Source)
	}
}

func TestLoad_NotFoundIsNotRetried(t *testing.T) {
	var hits int32
	missing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.NotFound(w, r)
	}))
	defer missing.Close()

	l := New(testConfig(missing.URL, "file:///nonexistent/products.json"), nil)
	doc, err := l.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected a single request for 404, got %d", got)
	}
	if !doc.FromFallback || doc.Source != EmbeddedSource {
		t.Errorf("expected embedded fallback, got %+v", doc)
	}
}

func TestLoad_CompressedResponses(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		encode   func([]byte) []byte
	}{
		{"gzip", "gzip", func(b []byte) []byte {
			var buf bytes.Buffer
			w := gzip.NewWriter(&buf)
			_, _ = w.Write(b)
			_ = w.Close()
			return buf.Bytes()
		}},
		{"brotli", "br", func(b []byte) []byte {
			var buf bytes.Buffer
			w := brotli.NewWriter(&buf)
			_, _ = w.Write(b)
			_ = w.Close()
			return buf.Bytes()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Encoding", tt.encoding)
				_, _ = w.Write(tt.encode([]byte(catalogJSON)))
			}))
			defer server.Close()

			doc, err := New(testConfig(server.URL, ""), nil).Load(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if doc.FromFallback || model.CountProducts(doc.Raw) != 2 {
				t.Errorf("failed to decode %s response: %+v", tt.encoding, doc)
			}
		})
	}
}

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func TestDecodedBody(t *testing.T) {
	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, _ = w.Write([]byte(catalogJSON))
	_ = w.Close()

	for _, encoding := range []string{"gzip", ""} {
		payload := gz.Bytes()
		if encoding == "" {
			payload = []byte(catalogJSON)
		}
		body := &trackingBody{Reader: bytes.NewReader(payload)}
		resp := &http.Response{Header: http.Header{"Content-Encoding": {encoding}}, Body: body}

		reader, err := decodedBody(resp)
		if err != nil {
			t.Fatalf("%q: %v", encoding, err)
		}
		got, err := io.ReadAll(reader)
		if err != nil || string(got) != catalogJSON {
			t.Errorf("%q: read %q, %v", encoding, got, err)
		}
		if err := reader.Close(); err != nil {
			t.Errorf("%q: close: %v", encoding, err)
		}
		if body.closed {
			t.Errorf("%q: closing the decoder closed the response body", encoding)
		}
	}

	resp := &http.Response{
		Header: http.Header{"Content-Encoding": {"gzip"}},
		Body:   io.NopCloser(bytes.NewReader([]byte("not gzip"))),
	}
	if _, err := decodedBody(resp); err == nil {
		t.Error("expected error for corrupt gzip body")
	}
}

func TestLoad_HTMLPage(t *testing.T) {
	page := `<!doctype html><html><head>
<script type="application/ld+json">{"@type":"ItemList"}</script>
<script type="application/json" id="catalog-data">` + catalogJSON + `</script>
</head><body></body></html>`
	server := jsonServer(t, page)

	doc, err := New(testConfig(server.URL, ""), nil).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if doc.FromFallback || model.CountProducts(doc.Raw) != 2 {
		t.Errorf("expected catalog extracted from html, got %+v", doc)
	}
}

func TestLoad_UsesCacheWhenSourcesFail(t *testing.T) {
	c, err := cache.New(filepath.Join(t.TempDir(), "cache.json"))
	if err != nil {
		t.Fatal(err)
	}

	var down atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(catalogJSON))
	}))
	defer server.Close()

	l := New(testConfig(server.URL, "file:///nonexistent/products.json"), c)
	if _, err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	down.Store(true)
	doc, err := l.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !doc.FromCache || doc.Source != server.URL {
		t.Errorf("expected cached document, got %+v", doc)
	}
	if model.CountProducts(doc.Raw) != 2 {
		t.Errorf("cached document lost products")
	}
}

func TestLoad_DropsEmptyCachedCopy(t *testing.T) {
	c, err := cache.New(filepath.Join(t.TempDir(), "cache.json"))
	if err != nil {
		t.Fatal(err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	key := cache.CatalogKey(server.URL)
	if err := c.PutRaw(key, []byte(`{"products":[]}`), time.Hour); err != nil {
		t.Fatal(err)
	}

	doc, err := New(testConfig(server.URL, "file:///nonexistent/products.json"), c).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !doc.FromFallback {
		t.Errorf("expected embedded fallback, got %+v", doc)
	}
	if _, _, ok := c.GetRaw(key); ok {
		t.Error("expected empty cached copy to be dropped")
	}
}

func TestLoad_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	if err := os.WriteFile(path, []byte(catalogJSON), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := New(testConfig("", path), nil).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if doc.Source != path || doc.FromFallback {
		t.Errorf("expected local file source, got %+v", doc)
	}
}

func TestLoad_Cancelled(t *testing.T) {
	server := jsonServer(t, catalogJSON)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(testConfig(server.URL, ""), nil).Load(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestSources(t *testing.T) {
	l := New(testConfig(" data/products.json ", DefaultDataURL), nil)
	if got := l.Sources(); len(got) != 1 || got[0] != DefaultDataURL {
		t.Errorf("Sources() = %v, want single default", got)
	}
}

func TestEmbedded(t *testing.T) {
	if n := model.CountProducts(Embedded()); n != 11 {
		t.Errorf("embedded catalog has %d products, want 11", n)
	}
}
