package health

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestEndpoints(t *testing.T) {
	var notReady error = errors.New("no tables cached")
	check := func() error { return notReady }
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("orbitgo_tables_built_total 1\n"))
	})
	mux := Mux(metrics, check)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	tests := []struct {
		path     string
		ready    bool
		wantCode int
		wantBody string
	}{
		{"/healthz", false, http.StatusOK, "ok"},
		{"/readyz", false, http.StatusServiceUnavailable, "no tables cached"},
		{"/readyz", true, http.StatusOK, "ready"},
		{"/metrics", false, http.StatusOK, "orbitgo_tables_built_total"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			notReady = errors.New("no tables cached")
			if tt.ready {
				notReady = nil
			}
			rec := get(tt.path)
			if rec.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantCode)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body %q does not contain %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}
