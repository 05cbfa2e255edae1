// Package naming derives stable identities for URLs and deterministic
// output file names for spreadsheet cells.
package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Normalize reduces a URL to scheme://host/path with the trailing slash
// stripped. Query, fragment and userinfo are dropped: two URLs that differ
// only in those parts identify the same artifact for dedup purposes.
func Normalize(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return strings.TrimRight(strings.TrimSpace(rawURL), "/")
	}

	normalized := u.Scheme + "://" + u.Host + u.Path
	return strings.TrimRight(normalized, "/")
}

// Fingerprint returns the sha-256 hex digest of the normalized URL.
// Used as the dedup store key.
func Fingerprint(rawURL string) string {
	sum := sha256.Sum256([]byte(Normalize(rawURL)))
	return hex.EncodeToString(sum[:])
}
