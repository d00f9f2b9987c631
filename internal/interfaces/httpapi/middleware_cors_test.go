package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantOrigin string
	}{
		{"listed origin", []string{"https://app.prediction-league.example"}, http.MethodGet, "https://app.prediction-league.example", false, http.StatusOK, "https://app.prediction-league.example"},
		{"unlisted origin", []string{"https://app.prediction-league.example"}, http.MethodGet, "https://evil.example", false, http.StatusOK, ""},
		{"wildcard preflight", []string{"*"}, http.MethodOptions, "https://app.prediction-league.example", true, http.StatusNoContent, "*"},
		{"no origin header", []string{"*"}, http.MethodGet, "", false, http.StatusOK, ""},
		{"options without preflight header reaches router", []string{"*"}, http.MethodOptions, "https://app.prediction-league.example", false, http.StatusOK, "*"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/v1/predictions", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			if tc.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()

			CORS(tc.allowed, next).ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Fatalf("unexpected Access-Control-Allow-Origin: %q", got)
			}
		})
	}
}

func TestCORS_ExposesRateLimitHeaders(t *testing.T) {
	handler := CORS([]string{"*"}, http.NotFoundHandler())
	req := httptest.NewRequest(http.MethodPost, "/v1/groups", nil)
	req.Header.Set("Origin", "https://app.prediction-league.example")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	exposed := rec.Header().Get("Access-Control-Expose-Headers")
	for _, header := range []string{"X-Request-ID", "Retry-After", "X-RateLimit-Remaining"} {
		if !strings.Contains(exposed, header) {
			t.Fatalf("expected %s to be exposed, got %q", header, exposed)
		}
	}
}
