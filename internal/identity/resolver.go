package identity

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/guarzo/hairtoolrank/internal/textnorm"
)

// URL shapes recognised on marketplace hosts, strongest first:
//
//	/dp/<code>, /gp/product/<code>   item detail page   -> asin:<CODE>
//	                                 (<code> is 10 or 11 alphanumerics)
//	?k=<words>, ?keywords=<words>    search results     -> amz-search:<words>
//	anything else                    canonical URL      -> amz-url:<host><path>?<params>
var (
	marketplaceHost = regexp.MustCompile(`(?i)amazon\.`)
	itemDetailPath  = regexp.MustCompile(`(?i)/(?:dp|gp/product)/([a-z0-9]{10,11})(?:[/?]|$)`)
)

var baseURL, _ = url.Parse("http://localhost/")

// ParseURL resolves raw against a neutral base. It returns nil for empty or
// unparseable input.
func ParseURL(raw string) *url.URL {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	u, err := baseURL.Parse(value)
	if err != nil {
		return nil
	}
	return u
}

// SafeURL returns the absolute form of raw, or "#" when it cannot be resolved.
func SafeURL(raw string) string {
	u := ParseURL(raw)
	if u == nil {
		return "#"
	}
	return u.String()
}

// IsMarketplaceHost reports whether host belongs to the marketplace.
func IsMarketplaceHost(host string) bool {
	return marketplaceHost.MatchString(host)
}

// Resolve derives the marketplace identity of a product URL. Non-marketplace
// and malformed URLs resolve to the zero Key.
func Resolve(productURL string) Key {
	u := ParseURL(productURL)
	if u == nil || !IsMarketplaceHost(u.Hostname()) {
		return Key{}
	}

	path := u.EscapedPath()
	if m := itemDetailPath.FindStringSubmatch(path); m != nil {
		return Key{Kind: KindASIN, Value: strings.ToUpper(m[1])}
	}

	params := queryPairs(u.RawQuery)
	keywords := firstValue(params, "k")
	if keywords == "" {
		keywords = firstValue(params, "keywords")
	}
	if normalized := textnorm.NormalizeDedupeText(keywords); normalized != "" {
		return Key{Kind: KindSearch, Value: normalized}
	}

	return Key{Kind: KindURL, Value: canonicalURL(u, params)}
}

type queryPair struct {
	name  string
	value string
}

// queryPairs splits a raw query preserving order and duplicates.
func queryPairs(rawQuery string) []queryPair {
	var pairs []queryPair
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		pairs = append(pairs, queryPair{name: unescape(name), value: unescape(value)})
	}
	return pairs
}

func unescape(s string) string {
	out, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return out
}

func firstValue(pairs []queryPair, name string) string {
	for _, p := range pairs {
		if p.name == name {
			return p.value
		}
	}
	return ""
}

// isTrackingParam reports affiliate and campaign parameters that never change
// which listing a URL points at.
func isTrackingParam(name string) bool {
	key := strings.ToLower(name)
	return key == "tag" || key == "ref" || strings.HasPrefix(key, "utm_")
}

func canonicalURL(u *url.URL, params []queryPair) string {
	kept := make([]queryPair, 0, len(params))
	for _, p := range params {
		if !isTrackingParam(p.name) {
			kept = append(kept, p)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].name < kept[j].name
	})

	encoded := make([]string, 0, len(kept))
	for _, p := range kept {
		name := encodeComponent(strings.ToLower(p.name))
		value := encodeComponent(strings.ToLower(strings.TrimSpace(p.value)))
		encoded = append(encoded, name+"="+value)
	}

	path := strings.ToLower(strings.TrimRight(u.EscapedPath(), "/"))
	if path == "" {
		path = "/"
	}

	out := strings.ToLower(u.Hostname()) + path
	if len(encoded) > 0 {
		out += "?" + strings.Join(encoded, "&")
	}
	return out
}

// encodeComponent percent-encodes s with %20 for spaces.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
