package revoke

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"credentials_service/internal/auth"
	resp "credentials_service/internal/lib/api/response"
	sl "credentials_service/internal/lib/logger"
	"credentials_service/internal/middleware/authn"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	TokenType string `validate:"required"`
	Token     string `validate:"required"`
}

type Revoker interface {
	Revoke(ctx context.Context, userID, tokenType, token string) auth.RevokeResult
}

// New godoc
// @Summary      Отзыв API key
// @Description  ## Описание
// @Description  Удаляет API key (refresh credential), принадлежащий текущему пользователю.
// @Description  Пользователь определяется по session token из заголовка Authorization.
// @Description
// @Description  ### Особенности:
// @Description  - Поддерживается только token_type=api_key (без учета регистра)
// @Description  - Несуществующий и чужой ключ дают одинаковый ответ, чтобы не раскрывать существование ключа
// @Description  - Повторный отзыв того же ключа возвращает success=false
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Param        token_type  query  string  true  "Тип токена (api_key)"
// @Param        token       query  string  true  "Отзываемый ключ"
// @Success      200  {object}  object{success=bool,message=string}  "Ключ отозван"
// @Failure      400  {object}  object{success=bool,message=string}  "Неподдерживаемый тип токена"
// @Failure      401  {object}  object{status=string,error=string}  "Нет или невалидный session token"
// @Failure      404  {object}  object{success=bool,message=string}  "Ключ не найден или не принадлежит пользователю"
// @Failure      500  {object}  object{success=bool,message=string}  "Внутренняя ошибка сервера"
// @Router       /auth/revoke [delete]
func New(
	log *slog.Logger,
	validate *validator.Validate,
	revoker Revoker,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.revoke.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		claims, ok := authn.Claims(r.Context())
		if !ok {
			log.Error("session claims missing from context")

			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("unauthorized"))

			return
		}

		req := Request{
			TokenType: r.URL.Query().Get("token_type"),
			Token:     r.URL.Query().Get("token"),
		}

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

		res := revoker.Revoke(ctx, claims.UserID, req.TokenType, req.Token)

		render.Status(r, statusFor(res))
		render.JSON(w, r, res)
	}
}

func statusFor(res auth.RevokeResult) int {
	if res.Success {
		return http.StatusOK
	}

	switch res.Message {
	case auth.MsgUnsupportedTokenType:
		return http.StatusBadRequest
	case auth.MsgNotFoundOrUnauthorized:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
