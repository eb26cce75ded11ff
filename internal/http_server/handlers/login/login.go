package login

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"credentials_service/internal/auth"
	resp "credentials_service/internal/lib/api/response"
	sl "credentials_service/internal/lib/logger"
	"credentials_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email string `json:"email" validate:"required,email"`
	Pass  string `json:"password" validate:"required"`
}

type Response struct {
	resp.Response
	JWTToken  string          `json:"jwt_token"`
	ExpiresAt int64           `json:"expires_at"`
	UserInfo  models.UserInfo `json:"user_info"`
}

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (auth.AuthenticateResult, error)
}

// New godoc
// @Summary      Вход в систему
// @Description  Проверяет email и пароль и выдает session token (JWT, HS256) сроком на 24 часа.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body  object{email=string,password=string}  true  "Учетные данные"
// @Success      200  {object}  object{status=string,jwt_token=string,expires_at=int,user_info=object{user_id=string,email=string}}
// @Failure      400  {object}  object{status=string,error=string}  "Ошибка валидации"
// @Failure      401  {object}  object{status=string,error=string}  "Неверный пароль"
// @Failure      404  {object}  object{status=string,error=string}  "Пользователь не найден"
// @Failure      500  {object}  object{status=string,error=string}  "Внутренняя ошибка сервера"
// @Router       /auth/login [post]
func New(
	log *slog.Logger,
	validate *validator.Validate,
	authenticator Authenticator,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.login.New"

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

		res, err := authenticator.Authenticate(ctx, req.Email, req.Pass)
		if err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("User not found"))

				return
			}
			if errors.Is(err, auth.ErrInvalidCredentials) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Invalid credentials"))

				return
			}

			log.Error("failed to authenticate user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("User logged in successfully")

		ResponseOK(w, r, res)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, res auth.AuthenticateResult) {
	render.JSON(w, r, Response{
		Response:  resp.OK(),
		JWTToken:  res.Token,
		ExpiresAt: res.ExpiresAt.Unix(),
		UserInfo:  res.UserInfo,
	})
}
