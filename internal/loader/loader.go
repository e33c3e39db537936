// Package loader fetches the raw catalog document. It tries each configured
// source in order, keeps the first one that holds products, and falls back
// to the last cached copy and finally to the catalog compiled into the binary.
package loader

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/guarzo/hairtoolrank/internal/cache"
	"github.com/guarzo/hairtoolrank/internal/model"
	"github.com/guarzo/hairtoolrank/internal/ratelimit"
)

//go:embed data/products.json
var embeddedCatalog []byte

// DefaultDataURL is tried after the configured endpoint.
const DefaultDataURL = "data/products.json"

// EmbeddedSource names documents served from the compiled-in catalog.
const EmbeddedSource = "embedded"

// ErrNoCatalog is returned by a source that answered without any products.
var ErrNoCatalog = errors.New("catalog has no products")

// Config controls where and how the catalog is fetched.
type Config struct {
	DataEndpoint      string
	DefaultURL        string
	Timeout           time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration
	RequestsPerSecond float64
	CacheTTL          time.Duration
	UserAgent         string
}

// DefaultConfig mirrors the site defaults: a 9s request timeout and the
// bundled data path.
func DefaultConfig() Config {
	return Config{
		DefaultURL:        DefaultDataURL,
		Timeout:           9 * time.Second,
		MaxRetries:        2,
		RetryBackoff:      time.Second,
		RequestsPerSecond: 2,
		CacheTTL:          7 * 24 * time.Hour,
		UserAgent:         "hairtoolrank/1.0",
	}
}

// Document is a raw catalog and where it came from.
type Document struct {
	Raw          []byte
	Source       string
	FetchedAt    time.Time
	FromCache    bool
	FromFallback bool
}

// Loader resolves the catalog document for a reload.
type Loader struct {
	config  Config
	client  *http.Client
	limiter *ratelimit.Limiter
	cache   *cache.Cache
}

// New creates a loader. c may be nil to disable the document cache.
func New(config Config, c *cache.Cache) *Loader {
	if config.DefaultURL == "" {
		config.DefaultURL = DefaultDataURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 9 * time.Second
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}

	return &Loader{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: ratelimit.NewLimiter(config.RequestsPerSecond, 1),
		cache:   c,
	}
}

// Embedded returns a copy of the compiled-in catalog document.
func Embedded() []byte {
	return append([]byte(nil), embeddedCatalog...)
}

// Sources lists the candidate locations in the order they are tried.
func (l *Loader) Sources() []string {
	var sources []string
	seen := make(map[string]bool)
	for _, s := range []string{l.config.DataEndpoint, l.config.DefaultURL} {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		sources = append(sources, s)
	}
	return sources
}

// Load returns the first source document with products. It only fails when
// ctx is cancelled; otherwise it degrades to a cached or embedded catalog.
func (l *Loader) Load(ctx context.Context) (Document, error) {
	sources := l.Sources()

	for _, source := range sources {
		raw, err := l.fetchWithRetry(ctx, source)
		if err == nil {
			l.remember(source, raw)
			log.Printf("Loader: loaded %d products from %s", model.CountProducts(raw), source)
			return Document{Raw: raw, Source: source, FetchedAt: time.Now()}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Document{}, ctxErr
		}
		log.Printf("Loader: source %s failed: %v", source, err)
	}

	if l.cache != nil {
		for _, source := range sources {
			key := cache.CatalogKey(source)
			raw, stamp, ok := l.cache.GetRaw(key)
			if !ok {
				continue
			}
			if model.CountProducts(raw) > 0 {
				log.Printf("Loader: using cached copy of %s from %s", source, stamp.Format(time.RFC3339))
				return Document{Raw: raw, Source: source, FetchedAt: stamp, FromCache: true}, nil
			}
			log.Printf("Loader: dropping cached copy of %s with no products", source)
			if err := l.cache.Remove(key); err != nil {
				log.Printf("Loader: failed to drop cached copy of %s: %v", source, err)
			}
		}
	}

	log.Printf("Loader: all %d sources failed, using embedded catalog", len(sources))
	return Document{Raw: Embedded(), Source: EmbeddedSource, FetchedAt: time.Now(), FromFallback: true}, nil
}

func (l *Loader) remember(source string, raw []byte) {
	if l.cache == nil {
		return
	}
	if err := l.cache.PutRaw(cache.CatalogKey(source), raw, l.config.CacheTTL); err != nil {
		log.Printf("Loader: failed to cache %s: %v", source, err)
	}
}

func (l *Loader) fetchWithRetry(ctx context.Context, source string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= l.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt*attempt) * l.config.RetryBackoff
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		raw, err := l.fetchSource(ctx, source)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}

	return nil, lastErr
}

func (l *Loader) fetchSource(ctx context.Context, source string) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if path, ok := localPath(source); ok {
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	} else {
		raw, err = l.fetchHTTP(ctx, source)
		if err != nil {
			return nil, err
		}
	}

	if looksLikeHTML(raw) {
		raw, err = ExtractEmbeddedCatalog(raw)
		if err != nil {
			return nil, err
		}
	}
	if model.CountProducts(raw) == 0 {
		return nil, ErrNoCatalog
	}
	return raw, nil
}

// localPath reports whether source names a file rather than a URL.
func localPath(source string) (string, bool) {
	u, err := url.Parse(source)
	if err != nil {
		return source, true
	}
	switch u.Scheme {
	case "http", "https":
		return "", false
	case "file":
		return u.Path, true
	default:
		return source, true
	}
}
