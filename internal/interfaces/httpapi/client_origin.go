package httpapi

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/httprate"
)

// clientOrigin is where a request came from, as far as the edge proxy tells us.
type clientOrigin struct {
	IP      string
	Country string
}

var countryHeaders = []string{
	"Fly-Client-Country",
	"CF-IPCountry",
	"X-Vercel-IP-Country",
	"CloudFront-Viewer-Country",
}

func resolveClientOrigin(r *http.Request) clientOrigin {
	return clientOrigin{
		IP:      resolveClientIP(r),
		Country: resolveCountryCode(r),
	}
}

// resolveClientIP prefers the Fly edge header, then falls back to the
// True-Client-IP / X-Real-IP / X-Forwarded-For chain httprate understands.
func resolveClientIP(r *http.Request) string {
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("Fly-Client-IP"))); ip != nil {
		return ip.String()
	}
	ip, err := httprate.KeyByRealIP(r)
	if err != nil {
		return ""
	}
	return ip
}

func resolveCountryCode(r *http.Request) string {
	for _, header := range countryHeaders {
		if code, ok := countryCode(r.Header.Get(header)); ok {
			return code
		}
	}
	return "ZZ"
}

func countryCode(raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != 2 || code[0] < 'A' || code[0] > 'Z' || code[1] < 'A' || code[1] > 'Z' {
		return "", false
	}
	return code, true
}
