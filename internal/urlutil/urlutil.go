// Package urlutil normalizes article URLs and derives content identities.
// Deduplication across providers hinges on these two functions agreeing for
// every URL representation of the same article.
package urlutil

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"strings"
)

// trackingExact lists query parameter names that never influence content.
var trackingExact = map[string]bool{
	"gclid":  true,
	"fbclid": true,
	"mc_cid": true,
	"mc_eid": true,
}

// Canonicalize strips tracking query parameters and AMP path suffixes,
// case-folds the host and drops default ports. Parse failures fail closed:
// the input is returned unchanged.
func Canonicalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Host[:strings.LastIndexByte(u.Host, ':')]
	}

	u.RawQuery = stripTracking(u.RawQuery)

	if strings.HasSuffix(u.Path, "/amp") || strings.HasSuffix(u.Path, ".amp") {
		u.Path = u.Path[:len(u.Path)-4]
		u.RawPath = ""
	}

	return u.String()
}

// stripTracking removes deny-listed parameters while preserving the relative
// order of everything else. url.Values would re-sort keys, so the raw query
// is walked pair by pair.
func stripTracking(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	var kept []string
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key := pair
		if i := strings.IndexByte(pair, '='); i >= 0 {
			key = pair[:i]
		}
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		lk := strings.ToLower(key)
		if strings.HasPrefix(lk, "utm_") || trackingExact[lk] {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}

// Identity returns the stable content identity for a URL: the SHA-1 hex
// digest of its canonical form. Equivalent URLs always collapse to one id.
func Identity(raw string) string {
	sum := sha1.Sum([]byte(Canonicalize(raw)))
	return hex.EncodeToString(sum[:])
}
