// Package identity derives the keys used to recognise two listings as the same
// physical product.
package identity

// Kind tags how a Key was derived. Kinds are listed strongest first.
type Kind string

const (
	KindASIN   Kind = "asin"
	KindSearch Kind = "amz-search"
	KindURL    Kind = "amz-url"

	KindBrandName Kind = "brand-name"
	KindName      Kind = "name"
	KindID        Kind = "id"
	KindRow       Kind = "row"

	KindFamily      Kind = "family"
	KindIdentityRow Kind = "identity-row"
)

// Key is a tagged dedupe key. The zero Key means "unresolvable".
type Key struct {
	Kind  Kind
	Value string
}

// IsZero reports whether no key could be derived.
func (k Key) IsZero() bool {
	return k.Kind == ""
}

// String renders the key in its prefixed form, e.g. "asin:B0B4T6RTZ2".
func (k Key) String() string {
	if k.IsZero() {
		return ""
	}
	return string(k.Kind) + ":" + k.Value
}
