package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics handler, got %d", rec.Code)
	}
	return rec.Body.String()
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/v1/teapots/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/teapots/"+id, nil))
		if rec.Code != http.StatusTeapot {
			t.Fatalf("expected 418, got %d", rec.Code)
		}
	}

	want := `random_challenge_http_requests_total{method="GET",route="/api/v1/teapots/{id}",status="418"} 2`
	if body := scrape(t); !strings.Contains(body, want) {
		t.Fatalf("expected %q in metrics output", want)
	}
}

func TestDomainCounters(t *testing.T) {
	Selection(ResultNotFound)
	Completion(ResultDuplicate)
	Rating(SourceDirect)
	RateLimited("auth")

	body := scrape(t)
	for _, want := range []string{
		`random_challenge_selections_total{result="not_found"}`,
		`random_challenge_completions_total{result="already_completed"}`,
		`random_challenge_ratings_total{source="direct"}`,
		`random_challenge_rate_limited_requests_total{limiter="auth"}`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in metrics output", want)
		}
	}
}
