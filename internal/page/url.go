package page

import (
	"net/url"
	"strings"
)

var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id",
	"gclid", "fbclid", "trk", "trackingId", "lipi", "midToken", "midSig", "trkEmail",
}

// ResolveHref resolves href against base and strips tracking parameters and
// fragments from http(s) targets. Non-http schemes (mailto:, tel:) pass
// through untouched. Unparsable hrefs are returned trimmed but otherwise raw.
func ResolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return u.String()
	}
	canonicalize(u)
	return u.String()
}

func canonicalize(u *url.URL) {
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	if u.RawQuery == "" {
		return
	}
	q := u.Query()
	changed := false
	for _, p := range trackingParams {
		if q.Has(p) {
			q.Del(p)
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
}

// JoinPath appends a section path such as "details/experience/" to a profile
// base URL, tolerating slashes on either side.
func JoinPath(base, section string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(section, "/")
}
