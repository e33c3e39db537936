// Package textnorm holds the string helpers shared by identity and family
// key resolution.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	quoteChars     = regexp.MustCompile(`['"‘’“”]`)
	nonAlnumRun    = regexp.MustCompile(`[^a-z0-9]+`)
	edgeHyphens    = regexp.MustCompile(`^-+|-+$`)
	alnumToken     = regexp.MustCompile(`[a-z0-9]+`)
	nonAlnumChar   = regexp.MustCompile(`[^a-z0-9]`)
	conditionTail  = regexp.MustCompile(`(renewed|refurbished|renew|ref)$`)
	digitCharacter = regexp.MustCompile(`[0-9]`)
)

// stopwords never contribute to a family key: category nouns, marketing
// filler, condition words and packaging words.
var stopwords = map[string]struct{}{
	"hair": {}, "dryer": {}, "drying": {}, "dry": {},
	"styler": {}, "styling": {}, "style": {}, "system": {},
	"tool": {}, "brush": {}, "professional": {}, "premium": {},
	"pro": {}, "plus": {}, "kit": {}, "set": {},
	"and": {}, "with": {}, "for": {}, "the": {},
	"air": {}, "hot": {}, "one": {}, "step": {},
	"in": {}, "to": {},
	"renewed": {}, "renew": {}, "refurbished": {}, "refurb": {}, "openbox": {},
	"bundle": {}, "pack": {},
}

// NormalizeDedupeText lowercases s, drops quotes and collapses every run of
// non-alphanumeric characters into a single hyphen.
func NormalizeDedupeText(s string) string {
	out := strings.TrimSpace(strings.ToLower(s))
	out = quoteChars.ReplaceAllString(out, "")
	out = nonAlnumRun.ReplaceAllString(out, "-")
	return edgeHyphens.ReplaceAllString(out, "")
}

// Tokenize returns the maximal lowercase alphanumeric runs of s.
func Tokenize(s string) []string {
	tokens := alnumToken.FindAllString(strings.ToLower(s), -1)
	if tokens == nil {
		return []string{}
	}
	return tokens
}

// NormalizeModelToken folds a model number and its condition suffix together,
// so "XL2000Renewed" and "XL2000" produce the same token.
func NormalizeModelToken(token string) string {
	normalized := nonAlnumChar.ReplaceAllString(strings.ToLower(token), "")
	if normalized == "" {
		return ""
	}
	return conditionTail.ReplaceAllString(normalized, "")
}

// IsStopword reports whether token is excluded from family keys.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// HasDigit reports whether s contains an ASCII digit.
func HasDigit(s string) bool {
	return digitCharacter.MatchString(s)
}
