package services_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rentalhub/internal/repos"
)

func fakeBackend(t *testing.T, routes map[string]http.HandlerFunc) *repos.Client {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return repos.NewClient(srv.URL+"/api", 2*time.Second)
}

func jsonBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func status(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	}
}
