package db

import (
	"net/url"
	"strings"
)

const (
	redactedURL      = "<unparseable URL>"
	redactedPassword = "xxxxx"
)

// RedactURL returns rawURL with any embedded password masked.
//
// Some MongoDB seed lists are not valid net/url hosts; when parsing fails
// the userinfo is masked textually.
func RedactURL(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		return u.Redacted()
	}

	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return redactedURL
	}
	authority, tail := rest, ""
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		authority, tail = rest[:i], rest[i:]
	}
	if at := strings.LastIndex(authority, "@"); at >= 0 {
		if name, _, hasPassword := strings.Cut(authority[:at], ":"); hasPassword {
			authority = name + ":" + redactedPassword + authority[at:]
		}
	}
	return scheme + "://" + authority + tail
}
