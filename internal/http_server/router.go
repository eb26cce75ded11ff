package http_server

import (
	"log/slog"
	"net/http"

	"credentials_service/internal/http_server/handlers/login"
	"credentials_service/internal/http_server/handlers/refresh"
	"credentials_service/internal/http_server/handlers/revoke"
	"credentials_service/internal/middleware/authn"
	rateLimit "credentials_service/internal/middleware/ratelimit"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type CredentialService interface {
	login.Authenticator
	refresh.Refresher
	revoke.Revoker
}

func NewRouter(
	log *slog.Logger,
	svc CredentialService,
	parser authn.TokenParser,
	gatherer prometheus.Gatherer,
) *chi.Mux {
	validate := validator.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/auth", func(r chi.Router) {
		r.With(rateLimit.Login()).Post("/login", login.New(log, validate, svc))
		r.With(rateLimit.Refresh()).Post("/refresh", refresh.New(log, validate, svc))
		r.With(rateLimit.Revoke(), authn.New(log, parser)).Delete("/revoke", revoke.New(log, validate, svc))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
