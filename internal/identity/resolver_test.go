package identity

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"item detail", "https://www.amazon.com/dp/B0B4T6RTZ2", "asin:B0B4T6RTZ2"},
		{"item detail with ref and tag", "https://www.amazon.com/dp/B0TESTXXXX1/ref=abc?tag=foo-20", "asin:B0TESTXXXX1"},
		{"lowercase code", "https://www.amazon.com/dp/b0testxxxx1", "asin:B0TESTXXXX1"},
		{"eleven char code", "https://www.amazon.com/gp/product/B0TESTXXXX1?psc=1", "asin:B0TESTXXXX1"},
		{"code too long", "https://www.amazon.com/dp/B0TESTXXXX12", "amz-url:www.amazon.com/dp/b0testxxxx12"},
		{"code too short", "https://www.amazon.com/dp/B0TEST", "amz-url:www.amazon.com/dp/b0test"},
		{"gp product", "https://www.amazon.co.uk/gp/product/B096SVJZSW?psc=1", "asin:B096SVJZSW"},
		{"slug before dp", "https://www.amazon.com/Shark-FlexStyle/dp/B0B89P16MC/", "asin:B0B89P16MC"},
		{"search keywords", "https://www.amazon.com/s?k=Dyson+Airwrap&tag=x-20", "amz-search:dyson-airwrap"},
		{"search keywords alias", "https://www.amazon.com/s?keywords=T3%20Aire%20360", "amz-search:t3-aire-360"},
		{"generic url", "https://WWW.Amazon.com/stores/Shark/page/ABC/?tag=x-20&b=2&a=1&utm_source=mail", "amz-url:www.amazon.com/stores/shark/page/abc?a=1&b=2"},
		{"generic root", "https://www.amazon.com/?ref_=nav", "amz-url:www.amazon.com/?ref_=nav"},
		{"other marketplace", "https://www.walmart.com/ip/123", ""},
		{"empty", "", ""},
		{"garbage", "http://[::1", ""},
		{"relative path", "/dp/B0B4T6RTZ2", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.url).String(); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestResolve_ItemCodeIgnoresTracking(t *testing.T) {
	a := Resolve("https://www.amazon.com/dp/B0TESTXXXX1/ref=abc?tag=foo-20")
	b := Resolve("https://www.amazon.com/dp/B0TESTXXXX1")
	if a != b {
		t.Fatalf("expected identical keys, got %v and %v", a, b)
	}
	if a.Kind != KindASIN {
		t.Errorf("expected asin kind, got %s", a.Kind)
	}
}

func TestResolve_AffiliateTagInvariance(t *testing.T) {
	base := "https://www.amazon.com/stores/page/ABC?color=Red&size=2"
	variants := []string{
		base + "&tag=one-20",
		base + "&tag=two-20&utm_source=newsletter&utm_medium=email",
		"https://www.amazon.com/stores/page/ABC/?REF=sr_1&size=2&color=red",
	}

	want := Resolve(base)
	if want.Kind != KindURL {
		t.Fatalf("expected amz-url kind, got %v", want)
	}
	for _, v := range variants {
		if got := Resolve(v); got != want {
			t.Errorf("Resolve(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestKeyString(t *testing.T) {
	if got := Resolve("https://www.amazon.com/dp/B0B4T6RTZ2").String(); got != "asin:B0B4T6RTZ2" {
		t.Errorf("asin key = %q", got)
	}
	if !(Key{}).IsZero() || (Key{}).String() != "" {
		t.Error("zero key should render empty")
	}
}

func TestSafeURL(t *testing.T) {
	if got := SafeURL(""); got != "#" {
		t.Errorf("SafeURL(\"\") = %q, want #", got)
	}
	if got := SafeURL("/img/a.jpg"); got != "http://localhost/img/a.jpg" {
		t.Errorf("SafeURL(relative) = %q", got)
	}
}
