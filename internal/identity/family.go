package identity

import (
	"strings"

	"github.com/guarzo/hairtoolrank/internal/textnorm"
)

const maxFamilyTokens = 4

// Family derives the weak brand+model grouping key used to merge variant and
// renewed listings that carry no shared marketplace identity. It returns the
// zero Key when the brand is unresolvable or the name is too generic.
func Family(brand, name string) Key {
	brandTokens := textnorm.Tokenize(brand)
	brandKey := textnorm.NormalizeDedupeText(strings.Join(brandTokens, " "))
	if brandKey == "" {
		return Key{}
	}

	inBrand := make(map[string]bool, len(brandTokens))
	for _, t := range brandTokens {
		inBrand[t] = true
	}

	seen := make(map[string]bool)
	var informative []string
	for _, token := range textnorm.Tokenize(name) {
		if inBrand[token] || textnorm.IsStopword(token) || len(token) <= 1 {
			continue
		}
		if textnorm.HasDigit(token) {
			token = textnorm.NormalizeModelToken(token)
		}
		if len(token) <= 1 || seen[token] {
			continue
		}
		seen[token] = true

		if textnorm.HasDigit(token) || len(token) >= 4 {
			informative = append(informative, token)
		}
	}

	if len(informative) > maxFamilyTokens {
		informative = informative[:maxFamilyTokens]
	}
	if len(informative) == 0 {
		return Key{}
	}
	// A single generic word is too weak to group on.
	if len(informative) == 1 && !textnorm.HasDigit(informative[0]) {
		return Key{}
	}

	return Key{Kind: KindFamily, Value: brandKey + "|" + strings.Join(informative, "-")}
}
