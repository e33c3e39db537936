package pipeline

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/guarzo/hairtoolrank/internal/identity"
)

const imageHost = "https://m.media-amazon.com/images/I/"

var (
	sizedImageToken = regexp.MustCompile(`(?i)/images/I/([^/]+?)\._[^/]*\.jpg`)
	plainImageToken = regexp.MustCompile(`(?i)/images/I/([^/.]+)\.jpg`)

	cardWidths     = []int{240, 320, 420, 560}
	featuredWidths = []int{640, 960, 1200, 1500}
	thumbWidths    = []int{240, 320, 420, 560, 640}
)

// Images are the responsive variants derived from one listing image.
type Images struct {
	Full           string
	Card           string
	CardSrcSet     string
	Featured       string
	FeaturedSrcSet string
	Thumb          string
	ThumbSrcSet    string
}

// DeriveImages rewrites a marketplace image URL into sized variants. Images
// from other hosts pass through unchanged with no srcset; unresolvable URLs
// yield empty variants.
func DeriveImages(imageURL string) Images {
	u := identity.ParseURL(imageURL)
	if u == nil {
		return Images{}
	}
	clean := u.String()

	return Images{
		Full:           SizedImage(clean, 1200),
		Card:           SizedImage(clean, 560),
		CardSrcSet:     SrcSet(clean, cardWidths),
		Featured:       SizedImage(clean, 1200),
		FeaturedSrcSet: SrcSet(clean, featuredWidths),
		Thumb:          SizedImage(clean, 640),
		ThumbSrcSet:    SrcSet(clean, thumbWidths),
	}
}

// ImageToken extracts the marketplace image id from an image URL.
func ImageToken(imageURL string) string {
	if m := sizedImageToken.FindStringSubmatch(imageURL); m != nil {
		return m[1]
	}
	if m := plainImageToken.FindStringSubmatch(imageURL); m != nil {
		return m[1]
	}
	return ""
}

// SizedImage returns the variant of imageURL whose longest side is size px.
func SizedImage(imageURL string, size int) string {
	token := ImageToken(imageURL)
	if token == "" {
		return imageURL
	}
	return fmt.Sprintf("%s%s._SL%d_.jpg", imageHost, token, size)
}

// SrcSet builds an HTML srcset for the given widths, or "" for foreign images.
func SrcSet(imageURL string, widths []int) string {
	token := ImageToken(imageURL)
	if token == "" {
		return ""
	}
	parts := make([]string, 0, len(widths))
	for _, w := range widths {
		parts = append(parts, fmt.Sprintf("%s%s._SL%d_.jpg %dw", imageHost, token, w, w))
	}
	return strings.Join(parts, ", ")
}

// AffiliateURL tags marketplace links with the affiliate tag, replacing any
// tag already present in place and leaving other parameters in order.
// Non-marketplace links are returned in absolute form and unresolvable ones
// become "#".
func AffiliateURL(productURL, tag string) string {
	u := identity.ParseURL(productURL)
	if u == nil {
		return "#"
	}
	if tag == "" || !identity.IsMarketplaceHost(u.Hostname()) {
		return identity.SafeURL(productURL)
	}

	pair := "tag=" + url.QueryEscape(tag)
	var params []string
	tagged := false
	for _, p := range strings.Split(u.RawQuery, "&") {
		if p == "" {
			continue
		}
		name, _, _ := strings.Cut(p, "=")
		if decoded, err := url.QueryUnescape(name); err == nil && decoded == "tag" {
			if !tagged {
				params = append(params, pair)
				tagged = true
			}
			continue
		}
		params = append(params, p)
	}
	if !tagged {
		params = append(params, pair)
	}
	u.RawQuery = strings.Join(params, "&")
	return u.String()
}
