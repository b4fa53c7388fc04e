package evidence

import (
	"net/url"
	"strings"
)

// NormalizeID canonicalizes a provenance identifier for deduplication.
// URLs are lowercased on scheme/host, stripped of fragments, default ports,
// tracking noise in the query, and trailing slashes; non-URL document keys
// are lowercased and trimmed.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	u, err := url.Parse(id)
	if err != nil || u.Host == "" {
		return strings.ToLower(id)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Host = strings.TrimPrefix(u.Host, "www.")
	u.Fragment = ""
	if q := u.Query(); len(q) > 0 {
		for key := range q {
			if strings.HasPrefix(key, "utm_") || key == "ref" || key == "fbclid" {
				q.Del(key)
			}
		}
		u.RawQuery = q.Encode()
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

// normalizeName canonicalizes an item's identifying name for the
// case-insensitive exclusion match in the web fallback step.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
