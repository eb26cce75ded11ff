package refresh

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"credentials_service/internal/auth"
	resp "credentials_service/internal/lib/api/response"
	sl "credentials_service/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type Response struct {
	resp.Response
	JWTToken     string `json:"jwt_token"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
}

type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (auth.RefreshResult, error)
}

// New godoc
// @Summary      Обновление session token
// @Description  Обменивает refresh credential на новый session token.
// @Description  Credential одноразовый: старый ключ удаляется, в ответе возвращается новый.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token  body  object{refresh_token=string}  true  "Refresh credential"
// @Success      200  {object}  object{status=string,jwt_token=string,expires_at=int,refresh_token=string}
// @Failure      400  {object}  object{status=string,error=string}  "Ошибка валидации"
// @Failure      404  {object}  object{status=string,error=string}  "Credential не найден или уже использован"
// @Failure      500  {object}  object{status=string,error=string}  "Внутренняя ошибка сервера"
// @Router       /auth/refresh [post]
func New(
	log *slog.Logger,
	validate *validator.Validate,
	refresher Refresher,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.refresh.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		log.Info("Request body decoded")

		if err := validate.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res, err := refresher.Refresh(ctx, req.RefreshToken)
		if err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Refresh token not found"))

				return
			}

			log.Error("failed to refresh tokens", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Tokens refreshed successfully")

		ResponseOK(w, r, res)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, res auth.RefreshResult) {
	render.JSON(w, r, Response{
		Response:     resp.OK(),
		JWTToken:     res.SessionToken,
		ExpiresAt:    res.ExpiresAt.Unix(),
		RefreshToken: res.RefreshToken,
	})
}
