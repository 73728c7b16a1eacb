// Package slug derives URL-safe identifiers from display names.
package slug

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Make converts text to a lowercase hyphenated slug: lowercase, canonical
// decomposition with the U+0300..U+036F combining diacritics stripped,
// every run of characters outside [a-z0-9] collapsed to a single hyphen,
// leading and trailing hyphens removed. Stored slugs depend on this
// staying stable, so the transformation must not change. In particular,
// only that diacritics block is dropped; combining marks outside it fall
// through to the hyphen replacement like any other non-alphanumeric.
func Make(text string) string {
	lower := strings.ToLower(text)

	// NFD then drop the diacritics block, so "é" becomes "e".
	decomposed := norm.NFD.String(lower)

	var b strings.Builder
	b.Grow(len(decomposed))
	lastHyphen := false
	for _, r := range decomposed {
		if r >= 0x0300 && r <= 0x036F {
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	return strings.Trim(b.String(), "-")
}

// NormalizeURL ensures a stored URL carries the https:// scheme. Plain
// http URLs are upgraded and protocol-relative URLs lose their leading
// slashes before the scheme is added. Empty input stays empty.
func NormalizeURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	if strings.HasPrefix(url, "https://") {
		return url
	}
	if strings.HasPrefix(url, "http://") {
		return "https://" + strings.TrimPrefix(url, "http://")
	}
	url = strings.TrimPrefix(url, "//")
	return "https://" + url
}
