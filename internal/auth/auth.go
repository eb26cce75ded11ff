package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"credentials_service/internal/lib/keygen"
	sl "credentials_service/internal/lib/logger"
	"credentials_service/internal/models"
	"credentials_service/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const TokenTypeAPIKey = "api_key"

const (
	MsgRevoked                = "revoked"
	MsgUnsupportedTokenType   = "unsupported token type"
	MsgNotFoundOrUnauthorized = "not found or not authorized"
	MsgRevocationFailed       = "revocation failed"
)

const (
	OpAuthenticate = "authenticate"
	OpRefresh      = "refresh"
	OpRevoke       = "revoke"
)

const (
	OutcomeSuccess            = "success"
	OutcomeNotFound           = "not_found"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeReplayed           = "replayed"
	OutcomeUnsupported        = "unsupported"
	OutcomeError              = "error"
)

type Auth struct {
	log         *slog.Logger
	usrProvider UserProvider
	credStore   CredentialStore
	issuer      TokenIssuer
	verifier    PasswordVerifier
	guard       ReplayGuard
	publisher   EventPublisher
	metrics     MetricsRecorder
	newKey      func() (string, error)
}

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
}

// CredentialStore must implement RotateCredential and DeleteCredentialOwnedBy
// as single atomic operations.
type CredentialStore interface {
	Credential(ctx context.Context, key string) (models.Credential, error)
	RotateCredential(ctx context.Context, oldKey, newKey string) (bool, error)
	DeleteCredentialOwnedBy(ctx context.Context, key, ownerID string) (bool, error)
}

type TokenIssuer interface {
	NewToken(userID, email string) (token string, expiresAt time.Time, err error)
}

type PasswordVerifier interface {
	Verify(plaintext, storedHash string) bool
}

// ReplayGuard remembers refresh credentials that were already presented.
// MarkConsumed returns false if the key was seen before.
type ReplayGuard interface {
	MarkConsumed(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

type MetricsRecorder interface {
	Observe(operation, outcome string)
}

type AuthenticateResult struct {
	Token     string
	ExpiresAt time.Time
	UserInfo  models.UserInfo
}

type RefreshResult struct {
	SessionToken string
	ExpiresAt    time.Time
	RefreshToken string
}

type RevokeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Option func(*Auth)

func WithReplayGuard(g ReplayGuard) Option {
	return func(a *Auth) { a.guard = g }
}

func WithPublisher(p EventPublisher) Option {
	return func(a *Auth) { a.publisher = p }
}

func WithMetrics(m MetricsRecorder) Option {
	return func(a *Auth) { a.metrics = m }
}

func New(
	log *slog.Logger,
	userProvider UserProvider,
	credStore CredentialStore,
	issuer TokenIssuer,
	verifier PasswordVerifier,
	opts ...Option,
) *Auth {
	a := &Auth{
		log:         log,
		usrProvider: userProvider,
		credStore:   credStore,
		issuer:      issuer,
		verifier:    verifier,
		newKey:      keygen.NewKey,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// * Authenticate проверяет email и пароль и выпускает session token
func (a *Auth) Authenticate(ctx context.Context, email, password string) (AuthenticateResult, error) {
	const op = "auth.Authenticate"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			a.observe(OpAuthenticate, OutcomeNotFound)

			return AuthenticateResult{}, ErrNotFound
		}

		log.Error("failed to get user", sl.Err(err))
		a.observe(OpAuthenticate, OutcomeError)

		return AuthenticateResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if !a.verifier.Verify(password, user.PasswordHash) {
		log.Info("invalid credentials", slog.String("uid", user.ID))
		a.observe(OpAuthenticate, OutcomeInvalidCredentials)

		return AuthenticateResult{}, ErrInvalidCredentials
	}

	token, expiresAt, err := a.issuer.NewToken(user.ID, user.Email)
	if err != nil {
		log.Error("failed to generate session token", sl.Err(err))
		a.observe(OpAuthenticate, OutcomeError)

		return AuthenticateResult{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user authenticated successfully", slog.String("uid", user.ID))
	a.observe(OpAuthenticate, OutcomeSuccess)

	return AuthenticateResult{
		Token:     token,
		ExpiresAt: expiresAt,
		UserInfo: models.UserInfo{
			UserID: user.ID,
			Email:  user.Email,
		},
	}, nil
}

// * Refresh обменивает refresh credential на новый session token и ротирует credential
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	const op = "auth.Refresh"

	log := a.log.With(slog.String("op", op))

	cred, err := a.credStore.Credential(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrCredentialNotFound) {
			log.Warn("refresh credential not found")
			a.observe(OpRefresh, OutcomeNotFound)

			return RefreshResult{}, ErrNotFound
		}

		log.Error("failed to get refresh credential", sl.Err(err))
		a.observe(OpRefresh, OutcomeError)

		return RefreshResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if cred.Owner == nil || cred.Owner.ID != cred.OwnerUserID {
		log.Error("credential owner is missing", slog.String("uid", cred.OwnerUserID))
		a.observe(OpRefresh, OutcomeError)

		return RefreshResult{}, fmt.Errorf("%s: credential owner %q is missing", op, cred.OwnerUserID)
	}

	log = log.With(slog.String("uid", cred.OwnerUserID))

	if a.guard != nil {
		first, err := a.guard.MarkConsumed(ctx, refreshToken)
		if err != nil {
			log.Error("failed to mark refresh credential as consumed", sl.Err(err))
			a.observe(OpRefresh, OutcomeError)

			return RefreshResult{}, fmt.Errorf("%s: %w", op, err)
		}

		if !first {
			log.Warn("refresh credential replay detected")
			a.observe(OpRefresh, OutcomeReplayed)

			return RefreshResult{}, ErrNotFound
		}
	}

	sessionToken, expiresAt, err := a.issuer.NewToken(cred.Owner.ID, cred.Owner.Email)
	if err != nil {
		log.Error("failed to generate session token", sl.Err(err))
		a.releaseGuard(ctx, log, refreshToken)
		a.observe(OpRefresh, OutcomeError)

		return RefreshResult{}, fmt.Errorf("%s: %w", op, err)
	}

	newKey, err := a.newKey()
	if err != nil {
		log.Error("failed to generate refresh credential", sl.Err(err))
		a.releaseGuard(ctx, log, refreshToken)
		a.observe(OpRefresh, OutcomeError)

		return RefreshResult{}, fmt.Errorf("%s: %w", op, err)
	}

	rotated, err := a.credStore.RotateCredential(ctx, refreshToken, newKey)
	if err != nil {
		log.Error("failed to rotate refresh credential", sl.Err(err))
		a.releaseGuard(ctx, log, refreshToken)
		a.observe(OpRefresh, OutcomeError)

		return RefreshResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if !rotated {
		log.Warn("refresh credential was consumed concurrently")
		a.observe(OpRefresh, OutcomeReplayed)

		return RefreshResult{}, ErrNotFound
	}

	a.publish(ctx, log, models.EventCredentialRotated, cred.OwnerUserID)

	log.Info("refresh successful")
	a.observe(OpRefresh, OutcomeSuccess)

	return RefreshResult{
		SessionToken: sessionToken,
		ExpiresAt:    expiresAt,
		RefreshToken: newKey,
	}, nil
}

// * Revoke удаляет API key, если он принадлежит запрашивающему пользователю.
// Никогда не возвращает ошибку: все исходы закодированы в RevokeResult.
func (a *Auth) Revoke(ctx context.Context, userID, tokenType, token string) RevokeResult {
	const op = "auth.Revoke"

	log := a.log.With(
		slog.String("op", op),
		slog.String("uid", userID),
	)

	if !strings.EqualFold(tokenType, TokenTypeAPIKey) {
		log.Info("unsupported token type", slog.String("token_type", tokenType))
		a.observe(OpRevoke, OutcomeUnsupported)

		return RevokeResult{Success: false, Message: MsgUnsupportedTokenType}
	}

	if userID == "" || token == "" {
		a.observe(OpRevoke, OutcomeNotFound)

		return RevokeResult{Success: false, Message: MsgNotFoundOrUnauthorized}
	}

	deleted, err := a.credStore.DeleteCredentialOwnedBy(ctx, token, userID)
	if err != nil {
		log.Error("failed to delete credential", sl.Err(err))
		a.observe(OpRevoke, OutcomeError)

		return RevokeResult{Success: false, Message: MsgRevocationFailed}
	}

	if !deleted {
		log.Warn("credential not found or not owned by requester")
		a.observe(OpRevoke, OutcomeNotFound)

		return RevokeResult{Success: false, Message: MsgNotFoundOrUnauthorized}
	}

	a.publish(ctx, log, models.EventCredentialRevoked, userID)

	log.Info("credential revoked")
	a.observe(OpRevoke, OutcomeSuccess)

	return RevokeResult{Success: true, Message: MsgRevoked}
}

func (a *Auth) releaseGuard(ctx context.Context, log *slog.Logger, key string) {
	if a.guard == nil {
		return
	}

	if err := a.guard.Release(ctx, key); err != nil {
		log.Warn("failed to release replay marker", sl.Err(err))
	}
}

// publish is best-effort: lifecycle events never fail the operation.
func (a *Auth) publish(ctx context.Context, log *slog.Logger, eventType, userID string) {
	if a.publisher == nil {
		return
	}

	event := models.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}

	if err := a.publisher.Publish(ctx, event); err != nil {
		log.Error("failed to publish event", slog.String("type", eventType), sl.Err(err))
	}
}

func (a *Auth) observe(operation, outcome string) {
	if a.metrics != nil {
		a.metrics.Observe(operation, outcome)
	}
}
