package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdminToken(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{name: "matching token", token: "secret", header: "Bearer secret", want: http.StatusNoContent},
		{name: "wrong token", token: "secret", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "missing header", token: "secret", want: http.StatusUnauthorized},
		{name: "not bearer", token: "secret", header: "Basic secret", want: http.StatusUnauthorized},
		{name: "no token configured", token: "", header: "Bearer ", want: http.StatusUnauthorized},
		{name: "no token configured without header", token: "", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AdminToken(tt.token)(ok).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
