package authn

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"credentials_service/internal/lib/jwt"
	"credentials_service/internal/lib/logger/handlers/slogdiscard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	issuer, err := jwt.NewIssuer("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	token, _, err := issuer.NewToken("u1", "a@x.com")
	require.NoError(t, err)

	var seen *jwt.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = Claims(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	h := New(slogdiscard.NewDiscardLogger(), issuer)(next)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid", header: "Bearer " + token, want: http.StatusNoContent},
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, want: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer not-a-jwt", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil

			req := httptest.NewRequest(http.MethodDelete, "/auth/revoke", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusNoContent {
				require.NotNil(t, seen)
				assert.Equal(t, "u1", seen.UserID)
			} else {
				assert.Nil(t, seen)
			}
		})
	}
}
