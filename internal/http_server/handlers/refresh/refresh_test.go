package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"credentials_service/internal/auth"
	"credentials_service/internal/lib/logger/handlers/slogdiscard"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type refresherFunc func(ctx context.Context, refreshToken string) (auth.RefreshResult, error)

func (f refresherFunc) Refresh(ctx context.Context, refreshToken string) (auth.RefreshResult, error) {
	return f(ctx, refreshToken)
}

func TestRefreshHandler(t *testing.T) {
	expiresAt := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	svc := refresherFunc(func(_ context.Context, key string) (auth.RefreshResult, error) {
		switch key {
		case "k1":
			return auth.RefreshResult{SessionToken: "jwt", ExpiresAt: expiresAt, RefreshToken: "k1-next"}, nil
		case "boom":
			return auth.RefreshResult{}, errors.New("db down")
		default:
			return auth.RefreshResult{}, auth.ErrNotFound
		}
	})

	h := New(slogdiscard.NewDiscardLogger(), validator.New(), svc)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "success", body: `{"refresh_token":"k1"}`, want: http.StatusOK},
		{name: "unknown key", body: `{"refresh_token":"k0"}`, want: http.StatusNotFound},
		{name: "store failure", body: `{"refresh_token":"boom"}`, want: http.StatusInternalServerError},
		{name: "missing key", body: `{}`, want: http.StatusBadRequest},
		{name: "malformed json", body: `nope`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)

			require.Equal(t, tt.want, rr.Code)

			if tt.want != http.StatusOK {
				return
			}

			var got Response
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, "jwt", got.JWTToken)
			assert.Equal(t, expiresAt.Unix(), got.ExpiresAt)
			assert.Equal(t, "k1-next", got.RefreshToken)
		})
	}
}
