package postgres

import (
	"net/url"
	"strings"
)

// Settings is a fixture cache connection string after normalization.
type Settings struct {
	URL  string
	Name string
}

// ParseSettings reads a postgres URL or key=value DSN. For URLs it adds
// disable_prepared_binary_result=yes unless the caller set it, which keeps
// lib/pq working behind transaction-pooling proxies.
func ParseSettings(raw string, disablePreparedBinaryResult bool) Settings {
	settings := Settings{URL: strings.TrimSpace(raw)}

	parsed, err := url.Parse(settings.URL)
	if err != nil || parsed.Scheme == "" {
		settings.Name = dsnValue(settings.URL, "dbname")
		return settings
	}

	settings.Name = strings.TrimPrefix(parsed.Path, "/")
	if disablePreparedBinaryResult {
		query := parsed.Query()
		if query.Get("disable_prepared_binary_result") == "" {
			query.Set("disable_prepared_binary_result", "yes")
			parsed.RawQuery = query.Encode()
			settings.URL = parsed.String()
		}
	}
	return settings
}

// Redacted returns the URL with any password masked, for logs.
func (s Settings) Redacted() string {
	parsed, err := url.Parse(s.URL)
	if err != nil || parsed.Scheme == "" {
		return "dsn(" + s.Name + ")"
	}
	return parsed.Redacted()
}

func dsnValue(dsn, key string) string {
	prefix := key + "="
	for _, token := range strings.Fields(dsn) {
		if value, ok := strings.CutPrefix(token, prefix); ok {
			return strings.Trim(value, `"'`)
		}
	}
	return ""
}
